package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/recall/internal/storage"
)

func newTestStore(t *testing.T) *CollectionStore {
	t.Helper()

	s, err := NewCollectionStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := []byte(`[{"id":"n1","content":"hello"}]`)
	require.NoError(t, s.Save(ctx, storage.KeyNotes, doc))

	got, err := s.Load(ctx, storage.KeyNotes)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestLoadMissingKey(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Load(context.Background(), storage.KeyNotes)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSaveOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, storage.KeyEntities, []byte(`[]`)))
	require.NoError(t, s.Save(ctx, storage.KeyEntities, []byte(`[{"id":"e1"}]`)))

	got, err := s.Load(ctx, storage.KeyEntities)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"id":"e1"}]`), got)
}

func TestKeysAreIndependent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, storage.KeyNotes, []byte(`["a"]`)))
	require.NoError(t, s.Save(ctx, storage.KeyTasks, []byte(`["b"]`)))

	notes, err := s.Load(ctx, storage.KeyNotes)
	require.NoError(t, err)
	assert.Equal(t, []byte(`["a"]`), notes)

	tasks, err := s.Load(ctx, storage.KeyTasks)
	require.NoError(t, err)
	assert.Equal(t, []byte(`["b"]`), tasks)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	first, err := NewCollectionStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, storage.KeyConfig, []byte(`{"categories":[]}`)))
	require.NoError(t, first.Close())

	second, err := NewCollectionStore(path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Load(ctx, storage.KeyConfig)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"categories":[]}`), got)
}
