package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	s := newRedisStore(mock, RedisOptions{Namespace: "test"})

	_, err := s.Get(ctx, "users")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Put(ctx, "users", []byte(`{"version":1}`)))
	assert.Contains(t, mock.data, "test:users")

	got, err := s.Get(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(got))

	require.NoError(t, s.Delete(ctx, "users"))
	_, err = s.Get(ctx, "users")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRedisStore_Lock(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	first := newRedisStore(mock, RedisOptions{LockTimeout: time.Second})
	second := newRedisStore(mock, RedisOptions{LockTimeout: 80 * time.Millisecond})

	unlock, err := first.Lock(ctx)
	require.NoError(t, err)
	assert.Contains(t, mock.data, "lw:lock")

	_, err = second.Lock(ctx)
	assert.True(t, errors.Is(err, ErrLockTimeout))

	require.NoError(t, unlock())
	assert.NotContains(t, mock.data, "lw:lock")

	unlock, err = second.Lock(ctx)
	require.NoError(t, err)
	require.NoError(t, unlock())
}

func TestRedisStore_UnlockKeepsForeignLock(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	s := newRedisStore(mock, RedisOptions{})

	unlock, err := s.Lock(ctx)
	require.NoError(t, err)

	// Lock expired and somebody else took it.
	mock.set("lw:lock", "someone-else")

	require.NoError(t, unlock())
	assert.Equal(t, "someone-else", mock.data["lw:lock"])
}

func TestRedisOptions(t *testing.T) {
	_, err := redisOptions(RedisOptions{})
	assert.Error(t, err)

	opts, err := redisOptions(RedisOptions{URL: "redis://localhost:6380/2"})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	opts, err = redisOptions(RedisOptions{Addr: "cache:6379"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
}

type mockCmdable struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string)}
}

func (m *mockCmdable) set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = stringify(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = stringify(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func stringify(v any) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(v)
}
