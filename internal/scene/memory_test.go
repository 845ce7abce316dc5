package scene

import (
	"errors"
	"testing"

	"github.com/annel0/chunk-streamer/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySceneLifecycle(t *testing.T) {
	s := NewMemoryScene()

	h, err := s.Attach(DrawableSpec{Kind: KindBillboard, Position: vec.Vec3{X: 1, Y: 2, Z: 3}, Texture: "flower"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Live())
	assert.Equal(t, 1, s.Attached())
	assert.Equal(t, 1, s.LiveByKind(KindBillboard))

	// Нельзя освободить объект, который ещё в сцене
	assert.ErrorIs(t, s.Dispose(h), ErrAttachedHandle)

	require.NoError(t, s.Detach(h))
	require.NoError(t, s.Dispose(h))
	assert.Equal(t, 0, s.Live())

	// Повторное освобождение – ошибка, но не паника
	assert.ErrorIs(t, s.Dispose(h), ErrUnknownHandle)
	assert.ErrorIs(t, s.Detach(h), ErrUnknownHandle)
}

func TestMemorySceneFailAttach(t *testing.T) {
	s := NewMemoryScene()
	boom := errors.New("out of gpu memory")
	s.FailAttach = func(DrawableSpec) error { return boom }

	_, err := s.Attach(DrawableSpec{Kind: KindBlockMesh})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, s.Live())
}

func TestForceRelease(t *testing.T) {
	s := NewMemoryScene()
	h, err := s.Attach(DrawableSpec{Kind: KindBlockMesh})
	require.NoError(t, err)

	s.ForceRelease(h)
	assert.Equal(t, 0, s.Live())
	assert.Equal(t, 0, s.Attached())
}
