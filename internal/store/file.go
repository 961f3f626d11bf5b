package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const (
	lockFileName   = ".lock"
	lockRetryDelay = 25 * time.Millisecond
)

// FileOptions configures a FileStore.
type FileOptions struct {
	// LockTimeout bounds how long Lock waits for another process.
	LockTimeout time.Duration
}

// FileStore keeps each key as <dir>/<key>.json.
type FileStore struct {
	mu          sync.Mutex // serialises Lock holders inside this process
	dir         string
	lock        *flock.Flock
	lockTimeout time.Duration
}

// NewFileStore creates the state directory if needed and returns a store rooted there.
func NewFileStore(dir string, opts FileOptions) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("store directory is required")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 5 * time.Second
	}

	return &FileStore{
		dir:         dir,
		lock:        flock.New(filepath.Join(dir, lockFileName)),
		lockTimeout: opts.LockTimeout,
	}, nil
}

// Dir returns the state directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get reads the value stored at key.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(key)) //nolint:gosec // G304: key validated, dir from config
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

// Put writes the value through a temp file and rename so readers see old or new, never half.
func (s *FileStore) Put(_ context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", key, err)
	}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		return fmt.Errorf("replacing %s: %w", key, err)
	}
	return nil
}

// Delete removes the file for key.
func (s *FileStore) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Lock takes the in-process mutex, then the advisory file lock shared with other processes.
func (s *FileStore) Lock(ctx context.Context) (Unlock, error) {
	s.mu.Lock()

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	ok, err := s.lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil || !ok {
		s.mu.Unlock()
		if err == nil || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, s.lock.Path())
		}
		return nil, fmt.Errorf("locking %s: %w", s.lock.Path(), err)
	}

	var once sync.Once
	return func() error {
		var unlockErr error
		once.Do(func() {
			unlockErr = s.lock.Unlock()
			s.mu.Unlock()
		})
		return unlockErr
	}, nil
}

// Close is a no-op; file handles are not held between calls.
func (s *FileStore) Close() error {
	return nil
}
