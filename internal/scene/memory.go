package scene

import (
	"fmt"
	"sync"
)

// MemoryScene – сцена в памяти: учитывает живые объекты и их ресурсы.
// Используется демо-бинарником и тестами.
type MemoryScene struct {
	mu       sync.Mutex
	next     Handle
	live     map[Handle]*memoryObject
	attached int

	// FailAttach – если не nil, вызывается перед каждым Attach
	FailAttach func(spec DrawableSpec) error

	attachCount  int
	disposeCount int
}

type memoryObject struct {
	spec     DrawableSpec
	attached bool
}

// NewMemoryScene создаёт пустую сцену
func NewMemoryScene() *MemoryScene {
	return &MemoryScene{
		live: make(map[Handle]*memoryObject),
	}
}

// Attach создаёт ресурсы и добавляет объект в сцену
func (s *MemoryScene) Attach(spec DrawableSpec) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailAttach != nil {
		if err := s.FailAttach(spec); err != nil {
			return 0, err
		}
	}

	s.next++
	h := s.next
	s.live[h] = &memoryObject{spec: spec, attached: true}
	s.attached++
	s.attachCount++
	return h, nil
}

// Detach убирает объект из сцены, ресурсы остаются живыми до Dispose
func (s *MemoryScene) Detach(h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.live[h]
	if !ok {
		return fmt.Errorf("detach %s: %w", h, ErrUnknownHandle)
	}
	if obj.attached {
		obj.attached = false
		s.attached--
	}
	return nil
}

// Dispose освобождает геометрию, материал и текстуру объекта
func (s *MemoryScene) Dispose(h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.live[h]
	if !ok {
		return fmt.Errorf("dispose %s: %w", h, ErrUnknownHandle)
	}
	if obj.attached {
		return fmt.Errorf("dispose %s: %w", h, ErrAttachedHandle)
	}
	delete(s.live, h)
	s.disposeCount++
	return nil
}

// Live возвращает количество неосвобождённых объектов
func (s *MemoryScene) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Attached возвращает количество объектов в сцене
func (s *MemoryScene) Attached() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

// LiveByKind возвращает количество живых объектов указанного типа
func (s *MemoryScene) LiveByKind(kind Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, obj := range s.live {
		if obj.spec.Kind == kind {
			n++
		}
	}
	return n
}

// Counters возвращает общее число Attach и Dispose
func (s *MemoryScene) Counters() (attached, disposed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attachCount, s.disposeCount
}

// ForceRelease освобождает handle в обход владельца (эмуляция внешнего освобождения)
func (s *MemoryScene) ForceRelease(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if obj, ok := s.live[h]; ok {
		if obj.attached {
			s.attached--
		}
		delete(s.live, h)
	}
}
