package block

import "sync"

var (
	registry   = make(map[BlockID]MaterialBehavior)
	registryMu sync.RWMutex
)

// Register добавляет материал в регистр
func Register(id BlockID, behavior MaterialBehavior) {
	registryMu.Lock()
	registry[id] = behavior
	registryMu.Unlock()
}

// Get возвращает поведение для указанного ID
func Get(id BlockID) (MaterialBehavior, bool) {
	registryMu.RLock()
	behavior, exists := registry[id]
	registryMu.RUnlock()
	return behavior, exists
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	_, exists := Get(id)
	return exists
}

// BlockID представляет идентификатор материала блока
type BlockID uint16

// Константы ID блоков
const (
	// Базовые типы блоков
	AirBlockID   BlockID = iota // 0
	StoneBlockID                // 1
	GrassBlockID                // 2
	WaterBlockID                // 3
	SandBlockID                 // 4
	DirtBlockID                 // 5
	SnowBlockID                 // 6

	// Декоративные блоки (начиная с 100)
	FlowerBlockID    BlockID = 100 // Цветок, билборд
	TreeBlockID      BlockID = 101 // Ствол дерева
	CactusBlockID    BlockID = 102 // Кактус
	LeavesBlockID    BlockID = 103 // Листва
	TallGrassBlockID BlockID = 104 // Высокая трава, билборд
	MushroomBlockID  BlockID = 105 // Светящийся гриб, билборд + частицы

	// Ресурсные узлы (начиная с 300)
	CoalOreBlockID BlockID = 300
	IronOreBlockID BlockID = 301
	GoldOreBlockID BlockID = 302

	// Блоки, которые ставит игрок (начиная с 500)
	PlanksBlockID BlockID = 500
	GlassBlockID  BlockID = 501
	TorchBlockID  BlockID = 502 // Факел, частицы пламени
)
