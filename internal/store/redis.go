package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisLockKey = "lock"
	redisLockTTL = 30 * time.Second
)

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	URL         string
	Addr        string
	Namespace   string
	LockTimeout time.Duration
}

// RedisStore shares one roster between several machines through Redis.
type RedisStore struct {
	rdb         cmdable
	raw         *redis.Client
	namespace   string
	lockTimeout time.Duration
}

// NewRedisStore connects to Redis and verifies connectivity.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	ropts, err := redisOptions(opts)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(ropts)
	if err := raw.Ping(ctx).Err(); err != nil {
		raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	s := newRedisStore(raw, opts)
	s.raw = raw
	return s, nil
}

func newRedisStore(rdb cmdable, opts RedisOptions) *RedisStore {
	ns := opts.Namespace
	if ns == "" {
		ns = "lw"
	}
	timeout := opts.LockTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RedisStore{rdb: rdb, namespace: ns, lockTimeout: timeout}
}

func redisOptions(opts RedisOptions) (*redis.Options, error) {
	if opts.URL == "" && opts.Addr == "" {
		return nil, errors.New("redis url or address is required")
	}
	if opts.URL != "" {
		parsed, err := redis.ParseURL(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		return parsed, nil
	}
	return &redis.Options{Addr: opts.Addr}, nil
}

func (s *RedisStore) key(parts ...string) string {
	return s.namespace + ":" + strings.Join(parts, ":")
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	data, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

// Put is a single SET, which Redis applies atomically.
func (s *RedisStore) Put(ctx context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.key(key), data, 0).Err(); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Lock acquires a token lock with SET NX. The TTL frees the lock if a holder dies.
func (s *RedisStore) Lock(ctx context.Context) (Unlock, error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	token := uuid.NewString()
	lockKey := s.key(redisLockKey)
	ticker := time.NewTicker(lockRetryDelay)
	defer ticker.Stop()

	for {
		ok, err := s.rdb.SetNX(lockCtx, lockKey, token, redisLockTTL).Result()
		if err != nil && lockCtx.Err() == nil {
			return nil, fmt.Errorf("acquiring redis lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-lockCtx.Done():
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, lockKey)
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() error {
		var unlockErr error
		once.Do(func() {
			// Background context: the caller's ctx may already be cancelled.
			bg := context.Background()
			held, err := s.rdb.Get(bg, lockKey).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) {
					unlockErr = fmt.Errorf("checking redis lock: %w", err)
				}
				return
			}
			if held != token {
				return
			}
			if err := s.rdb.Del(bg, lockKey).Err(); err != nil {
				unlockErr = fmt.Errorf("releasing redis lock: %w", err)
			}
		})
		return unlockErr
	}, nil
}

func (s *RedisStore) Close() error {
	if s.raw == nil {
		return nil
	}
	return s.raw.Close()
}
