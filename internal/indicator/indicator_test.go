package indicator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/opsboard-backend/internal/model"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "copied:7:proof_validated", Key(7, model.FlagProofValidated))
}

func TestMemoryExpires(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	key := Key(1, model.FlagCreativeDone)
	assert.False(t, m.Active(ctx, key))

	require.NoError(t, m.Mark(ctx, key, 2*time.Second))
	assert.True(t, m.Active(ctx, key))
	assert.False(t, m.Active(ctx, Key(1, model.FlagProofValidated)))

	now = now.Add(1999 * time.Millisecond)
	assert.True(t, m.Active(ctx, key))

	now = now.Add(time.Millisecond)
	assert.False(t, m.Active(ctx, key))
}

func TestMemoryMarkRestartsWindow(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Unix(0, 0)
	m.now = func() time.Time { return now }

	_ = m.Mark(ctx, "k", 2*time.Second)
	now = now.Add(1500 * time.Millisecond)
	_ = m.Mark(ctx, "k", 2*time.Second)
	now = now.Add(1500 * time.Millisecond)
	assert.True(t, m.Active(ctx, "k"))
}

func TestRedisUnreachableIsInactive(t *testing.T) {
	r := NewRedis("127.0.0.1:1", "", 0)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.False(t, r.Active(ctx, "copied:1:creative_done"))
	assert.Error(t, r.Ping(ctx))
}
