package strava

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncer_NewerSyncSupersedesOlder(t *testing.T) {
	s := NewSyncer()

	first := s.Begin("u1")
	second := s.Begin("u1")

	assert.False(t, s.Current(first))
	assert.True(t, s.Current(second))

	ran, err := s.Apply(first, func() error {
		t.Fatal("superseded sync must not apply")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, ran)

	applied := false
	ran, err = s.Apply(second, func() error {
		applied = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.True(t, applied)
}

func TestSyncer_UsersAreIndependent(t *testing.T) {
	s := NewSyncer()

	a := s.Begin("u1")
	b := s.Begin("u2")
	_ = s.Begin("u2")

	assert.True(t, s.Current(a))
	assert.False(t, s.Current(b))
}

func TestSyncer_ApplyReturnsWriteError(t *testing.T) {
	s := NewSyncer()
	tk := s.Begin("u1")

	ran, err := s.Apply(tk, func() error { return assert.AnError })
	assert.True(t, ran)
	assert.ErrorIs(t, err, assert.AnError)
}
