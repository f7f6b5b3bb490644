package profile

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSeed(t *testing.T) {
	s := NewStore(DefaultSeed()...)

	require.Equal(t, 2, s.Len())

	profiles := s.List()
	assert.Equal(t, int64(1), profiles[0].ID)
	assert.Equal(t, "John Doe", profiles[0].Name)
	assert.Equal(t, int64(2), profiles[1].ID)
	assert.Equal(t, "Jane Smith", profiles[1].Name)
}

func TestStoreCRUD(t *testing.T) {
	s := NewStore()

	created := s.Create("Ada Lovelace", "ada@example.com")
	assert.Equal(t, int64(1), created.ID)

	got, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	updated, err := s.Update(created.ID, "Ada King", "ada.king@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ada King", updated.Name)
	assert.Equal(t, created.ID, updated.ID)

	require.NoError(t, s.Delete(created.ID))
	_, err = s.Get(created.ID)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestStoreGetByEmail(t *testing.T) {
	s := NewStore(DefaultSeed()...)

	p, ok := s.GetByEmail("jane.smith@example.com")
	require.True(t, ok)
	assert.Equal(t, "Jane Smith", p.Name)

	_, ok = s.GetByEmail("nobody@example.com")
	assert.False(t, ok)
}

func TestStoreNotFound(t *testing.T) {
	s := NewStore()

	_, err := s.Get(42)
	assert.ErrorIs(t, err, ErrProfileNotFound)

	_, err = s.Update(42, "x", "x@example.com")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	assert.ErrorIs(t, s.Delete(42), ErrProfileNotFound)
}

func TestStoreIDsNeverReused(t *testing.T) {
	s := NewStore()

	first := s.Create("a", "a@example.com")
	require.NoError(t, s.Delete(first.ID))

	second := s.Create("b", "b@example.com")
	assert.Greater(t, second.ID, first.ID)
}

func TestStoreConcurrentCreate(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Create("user", "user@example.com")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())

	seen := make(map[int64]bool)
	for _, p := range s.List() {
		assert.False(t, seen[p.ID], "duplicate id %d", p.ID)
		seen[p.ID] = true
	}
}
