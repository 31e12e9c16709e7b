package kv

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetPut(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "tasks")
	require.ErrorIs(t, err, ErrNotFound)

	value := []byte(`[{"id":"1"}]`)
	require.NoError(t, m.Put(ctx, "tasks", value))

	value[0] = 'x'
	got, err := m.Get(ctx, "tasks")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, string(got), "stored value must not alias the caller's slice")
}

func TestSealedRoundTrip(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()

	s, err := NewSealed(ctx, inner, "correct horse")
	require.NoError(t, err)

	plain := []byte(`[{"name":"Work"}]`)
	require.NoError(t, s.Put(ctx, "categories", plain))

	raw, err := inner.Get(ctx, "categories")
	require.NoError(t, err)
	assert.False(t, bytes.Contains(raw, []byte("Work")), "backend must only see ciphertext")

	got, err := s.Get(ctx, "categories")
	require.NoError(t, err)
	assert.Equal(t, plain, got)

	// A second handle with the same passphrase reuses the stored salt.
	again, err := NewSealed(ctx, inner, "correct horse")
	require.NoError(t, err)
	got, err = again.Get(ctx, "categories")
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func TestSealedWrongPassphrase(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()

	s, err := NewSealed(ctx, inner, "one")
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "tasks", []byte("[]")))

	other, err := NewSealed(ctx, inner, "two")
	require.NoError(t, err)
	_, err = other.Get(ctx, "tasks")
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestSealedBindsKey(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	s, err := NewSealed(ctx, inner, "pw")
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "tasks", []byte("[]")))
	raw, err := inner.Get(ctx, "tasks")
	require.NoError(t, err)
	require.NoError(t, inner.Put(ctx, "categories", raw))

	_, err = s.Get(ctx, "categories")
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestSealedMissingKey(t *testing.T) {
	ctx := context.Background()
	s, err := NewSealed(ctx, NewMemory(), "pw")
	require.NoError(t, err)

	_, err = s.Get(ctx, "tasks")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = NewSealed(ctx, NewMemory(), "")
	assert.Error(t, err)
}
