package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/annel0/chunk-streamer/internal/logging"
	"github.com/annel0/chunk-streamer/internal/world"
	"github.com/dgraph-io/badger/v3"
)

// ErrNotReady – хранилище закрыто
var ErrNotReady = errors.New("хранилище не готово")

// CellStore хранит блоки игрока по ячейкам в BadgerDB.
// Реализует world.Persistence; LoadCell вызывается из воркеров генерации.
type CellStore struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
	logger  *logging.Logger
}

var _ world.Persistence = (*CellStore)(nil)

// NewCellStore открывает хранилище в каталоге dataPath/cells
func NewCellStore(dataPath string, logger *logging.Logger) (*CellStore, error) {
	dbPath := filepath.Join(dataPath, "cells")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	logger.Info("💾 Cell store opened at %s", dbPath)
	return &CellStore{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
		logger:  logger,
	}, nil
}

// Close закрывает хранилище данных
func (cs *CellStore) Close() error {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	if !cs.isReady {
		return nil
	}

	cs.isReady = false
	return cs.db.Close()
}

func cellKey(key world.CellKey) []byte {
	return []byte(fmt.Sprintf("cell:%d:%d", key.X, key.Z))
}

// SaveCell сохраняет блоки игрока ячейки, перезаписывая прежнее состояние
func (cs *CellStore) SaveCell(key world.CellKey, blocks []world.BlockSpec) error {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	if !cs.isReady {
		return ErrNotReady
	}

	data, err := EncodeCell(key, blocks)
	if err != nil {
		return err
	}

	err = cs.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cellKey(key), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}

	cs.logger.Debug("Saved %d player blocks of cell %s", len(blocks), key)
	return nil
}

// LoadCell загружает сохранённые блоки. found=false, если ячейка не сохранялась.
func (cs *CellStore) LoadCell(key world.CellKey) ([]world.BlockSpec, bool, error) {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	if !cs.isReady {
		return nil, false, ErrNotReady
	}

	var data []byte
	err := cs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cellKey(key))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	stored, blocks, err := DecodeCell(data)
	if err != nil {
		return nil, false, err
	}
	if stored != key {
		return nil, false, fmt.Errorf("ячейка %s сохранена под ключом %s", stored, key)
	}
	return blocks, true, nil
}

// DeleteCell удаляет сохранённое состояние ячейки
func (cs *CellStore) DeleteCell(key world.CellKey) error {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	if !cs.isReady {
		return ErrNotReady
	}

	err := cs.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(cellKey(key))
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления из BadgerDB: %w", err)
	}
	return nil
}

// Cells возвращает ключи всех сохранённых ячеек
func (cs *CellStore) Cells() ([]world.CellKey, error) {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	if !cs.isReady {
		return nil, ErrNotReady
	}

	var keys []world.CellKey
	err := cs.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte("cell:")

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var k world.CellKey
			if _, err := fmt.Sscanf(string(it.Item().Key()), "cell:%d:%d", &k.X, &k.Z); err != nil {
				cs.logger.Warn("Ошибка парсинга ключа '%s': %v", it.Item().Key(), err)
				continue
			}
			keys = append(keys, k)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return keys, nil
}
