package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir(), FileOptions{})
	require.NoError(t, err)

	_, err = s.Get(ctx, "users")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Put(ctx, "users", []byte(`{"version":1}`)))
	got, err := s.Get(ctx, "users")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1}`, string(got))

	require.NoError(t, s.Put(ctx, "users", []byte(`{"version":2}`)))
	got, err = s.Get(ctx, "users")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":2}`, string(got))

	require.NoError(t, s.Delete(ctx, "users"))
	require.NoError(t, s.Delete(ctx, "users"), "deleting twice is fine")
	_, err = s.Get(ctx, "users")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFileStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, FileOptions{})
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "session", []byte(`null`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
	assert.FileExists(t, filepath.Join(dir, "session.json"))
}

func TestFileStore_RejectsBadKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), FileOptions{})
	require.NoError(t, err)

	for _, key := range []string{"", "..", "a/b", `a\b`} {
		err := s.Put(context.Background(), key, []byte("x"))
		assert.True(t, errors.Is(err, ErrInvalidKey), "key %q", key)
	}
}

func TestFileStore_LockExcludesOtherStores(t *testing.T) {
	dir := t.TempDir()
	first, err := NewFileStore(dir, FileOptions{LockTimeout: time.Second})
	require.NoError(t, err)
	second, err := NewFileStore(dir, FileOptions{LockTimeout: 100 * time.Millisecond})
	require.NoError(t, err)

	unlock, err := first.Lock(context.Background())
	require.NoError(t, err)

	_, err = second.Lock(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLockTimeout))

	require.NoError(t, unlock())
	require.NoError(t, unlock(), "unlock is idempotent")

	unlock2, err := second.Lock(context.Background())
	require.NoError(t, err)
	require.NoError(t, unlock2())
}

func TestFileStore_LockSerialisesGoroutines(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir(), FileOptions{LockTimeout: 5 * time.Second})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := s.Lock(ctx)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			assert.NoError(t, unlock())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}

func TestMemoryStore_Contract(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "users")
	assert.True(t, errors.Is(err, ErrNotFound))

	data := []byte("abc")
	require.NoError(t, s.Put(ctx, "users", data))
	data[0] = 'x'

	got, err := s.Get(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got), "store keeps its own copy")

	unlock, err := s.Lock(ctx)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = s.Lock(short)
	assert.True(t, errors.Is(err, ErrLockTimeout))

	require.NoError(t, unlock())
	unlock, err = s.Lock(ctx)
	require.NoError(t, err)
	require.NoError(t, unlock())
}
