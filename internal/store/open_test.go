package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/luckywheel/internal/config"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.StoreConfig{Backend: config.BackendFile, Dir: t.TempDir(), LockTimeout: time.Second})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)
	require.NoError(t, s.Close())

	s, err = Open(ctx, config.StoreConfig{Backend: config.BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open(ctx, config.StoreConfig{Backend: "tape"})
	assert.ErrorContains(t, err, `unknown store backend "tape"`)
}
