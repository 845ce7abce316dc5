package logging

import (
	"errors"
	"fmt"
	"sync"
)

// Component – имя подсистемы, под которым пишутся её логи
type Component string

const (
	ComponentStream       Component = "stream"
	ComponentStorage      Component = "storage"
	ComponentMetrics      Component = "metrics"
	ComponentInvalidation Component = "invalidation"
)

// LoggerManager раздаёт по одному логгеру на компонент и закрывает их при остановке
type LoggerManager struct {
	mu      sync.Mutex
	loggers map[Component]*Logger
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = &LoggerManager{loggers: make(map[Component]*Logger)}
	})
	return globalManager
}

// Logger возвращает логгер компонента. Если файл логов открыть не удалось,
// компонент пишет только в консоль.
func (lm *LoggerManager) Logger(c Component) *Logger {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if l, ok := lm.loggers[c]; ok {
		return l
	}
	l, err := NewLogger(string(c))
	if err != nil {
		Warn("⚠️ логгер %s без файла: %v", c, err)
		l = NewConsoleLogger(string(c), defaultLogger.minConsoleLevel)
	}
	lm.loggers[c] = l
	return l
}

// CloseAll закрывает файлы всех компонентов. Последующий Logger откроет новый файл.
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var errs []error
	for c, l := range lm.loggers {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s logger: %w", c, err))
		}
	}
	clear(lm.loggers)
	return errors.Join(errs...)
}

// For – логгер компонента из глобального менеджера
func For(c Component) *Logger {
	return GetLoggerManager().Logger(c)
}
