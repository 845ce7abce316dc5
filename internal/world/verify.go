package world

import (
	"fmt"
	"strings"
)

// Inconsistency – ключ, присутствующий лишь в части индексов
type Inconsistency struct {
	Key         CellKey
	Registry    bool
	Content     bool
	Decorations bool
	Aux         bool
}

func (i Inconsistency) Error() string {
	var parts []string
	for _, p := range []struct {
		name string
		ok   bool
	}{
		{"registry", i.Registry},
		{"content", i.Content},
		{"decorations", i.Decorations},
		{"aux", i.Aux},
	} {
		if p.ok {
			parts = append(parts, p.name)
		}
	}
	return fmt.Sprintf("%s: cell %s present only in [%s]", ErrInconsistentState, i.Key, strings.Join(parts, " "))
}

func (i Inconsistency) Unwrap() error {
	return ErrInconsistentState
}

// Verify сверяет наборы ключей всех индексов. Реестр, контент и декорации
// должны совпадать, вспомогательные индексы – быть подмножеством реестра.
func (s *Streamer) Verify() []Inconsistency {
	var issues []Inconsistency
	for _, key := range s.allKeys() {
		in := Inconsistency{
			Key:         key,
			Registry:    s.registry.Has(key),
			Content:     s.content.HasCell(key),
			Decorations: s.decorations.HasCell(key),
			Aux:         s.aux.Has(key),
		}
		consistent := in.Registry == in.Content && in.Content == in.Decorations && (!in.Aux || in.Registry)
		if !consistent {
			issues = append(issues, in)
		}
	}
	return issues
}

// reconcile обрабатывает обнаруженную рассинхронизацию: в strict-режиме
// паника, иначе ключ полностью освобождается.
func (s *Streamer) reconcile(key CellKey, cause error) {
	s.counters.inconsistencies.Add(1)
	if s.opts.Strict {
		panic(fmt.Errorf("cell %s: %w", key, cause))
	}
	s.logger.Error("❌ Cell %s inconsistent, reclaiming: %v", key, cause)
	s.evict(key, ReasonReclaim)
}
