package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/medcenter_backend/config"
)

func newMini(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := NewRedis(Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestFromCentralConfig_Defaults(t *testing.T) {
	cfg := FromCentralConfig(config.RedisConfig{Addr: "r:6379", PoolSize: 50})
	assert.Equal(t, 50, cfg.PoolSize)
	assert.Equal(t, DefaultConfig().MinIdleConns, cfg.MinIdleConns)
	assert.Equal(t, 5*time.Second, cfg.DialTimeout())
}

func TestNewRedis_EmptyAddr(t *testing.T) {
	_, err := NewRedis(Config{})
	assert.ErrorIs(t, err, ErrEmptyAddr)
}

func TestSessions(t *testing.T) {
	mr, rdb := newMini(t)
	ctx := context.Background()
	s := NewSessions(rdb)
	sid := uuid.New()

	ok, err := s.Exists(ctx, sid)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Create(ctx, sid, 7, time.Minute))
	ok, err = s.Exists(ctx, sid)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = s.Exists(ctx, sid)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Create(ctx, sid, 7, 0))
	require.NoError(t, s.Revoke(ctx, sid))
	ok, _ = s.Exists(ctx, sid)
	assert.False(t, ok)
}

func TestIncrWithTTL_FixedWindow(t *testing.T) {
	mr, rdb := newMini(t)
	ctx := context.Background()
	key := OTPAttemptsKey(1, 2)
	assert.Equal(t, "medcenter:otp:attempts:1:2", key)

	for want := int64(1); want <= 3; want++ {
		n, err := IncrWithTTL(ctx, rdb, key, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	mr.FastForward(61 * time.Second)
	n, err := IncrWithTTL(ctx, rdb, key, time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestCaseToken(t *testing.T) {
	_, rdb := newMini(t)
	ctx := context.Background()

	n, err := NextCaseToken(ctx, rdb)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, SeedCaseToken(ctx, rdb, 40))
	n, err = NextCaseToken(ctx, rdb)
	require.NoError(t, err)
	assert.EqualValues(t, 41, n)

	require.NoError(t, SeedCaseToken(ctx, rdb, 10))
	n, err = NextCaseToken(ctx, rdb)
	require.NoError(t, err)
	assert.EqualValues(t, 42, n)
}
