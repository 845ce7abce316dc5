package world

import "errors"

var (
	// ErrGenerationFailed – генератор не смог построить контент ячейки
	ErrGenerationFailed = errors.New("cell generation failed")
	// ErrInconsistentState – индексы расходятся по набору ключей ячеек
	ErrInconsistentState = errors.New("inconsistent cell state")
	// ErrDisposeFailed – освобождение ресурса сцены завершилось ошибкой
	ErrDisposeFailed = errors.New("drawable dispose failed")
	// ErrCellNotResident – операция над блоком вне загруженной ячейки
	ErrCellNotResident = errors.New("cell is not resident")
	// ErrOutOfHeight – координата Y вне диапазона мира
	ErrOutOfHeight = errors.New("position outside world height")
	// ErrUnknownMaterial – материал не зарегистрирован
	ErrUnknownMaterial = errors.New("unknown material")
	// ErrBlockNotFound – блока в указанной позиции нет
	ErrBlockNotFound = errors.New("block not found")
	// ErrInvalidCellKey – ключ за пределами мира
	ErrInvalidCellKey = errors.New("invalid cell key")
)
