package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/medcenter_backend/pkg/constants"
)

// ----------------------------------------------------------------------------
// Sessions
// ----------------------------------------------------------------------------

func SessionKey(sid uuid.UUID) string {
	return constants.RedisSessionPrefix + sid.String()
}

// Sessions tracks live bearer-token sessions. A token is only honoured while
// its session key exists.
type Sessions struct {
	rdb goredis.Cmdable
}

func NewSessions(rdb goredis.Cmdable) *Sessions {
	return &Sessions{rdb: rdb}
}

func (s *Sessions) Create(ctx context.Context, sid uuid.UUID, userID int64, ttl time.Duration) error {
	return s.rdb.Set(ctx, SessionKey(sid), userID, ttl).Err()
}

func (s *Sessions) Exists(ctx context.Context, sid uuid.UUID) (bool, error) {
	n, err := s.rdb.Exists(ctx, SessionKey(sid)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Sessions) Revoke(ctx context.Context, sid uuid.UUID) error {
	return s.rdb.Del(ctx, SessionKey(sid)).Err()
}

// ----------------------------------------------------------------------------
// Counters
// ----------------------------------------------------------------------------

func OTPAttemptsKey(doctorID, patientID int64) string {
	return fmt.Sprintf("%s%d:%d", constants.RedisOTPAttemptsPrefix, doctorID, patientID)
}

var incrWithTTL = goredis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// IncrWithTTL increments key and starts its expiry window on the first hit,
// so the window is fixed from the first attempt.
func IncrWithTTL(ctx context.Context, rdb goredis.Scripter, key string, ttl time.Duration) (int64, error) {
	return incrWithTTL.Run(ctx, rdb, []string{key}, ttl.Milliseconds()).Int64()
}

// NextCaseToken returns the next visit number from the shared counter.
func NextCaseToken(ctx context.Context, rdb goredis.Cmdable) (int64, error) {
	return rdb.Incr(ctx, constants.RedisCaseTokenKey).Result()
}

// SeedCaseToken raises the counter to at least floor. Used after a restore or
// when tokens were issued from the database fallback.
func SeedCaseToken(ctx context.Context, rdb goredis.Scripter, floor int64) error {
	return seedMax.Run(ctx, rdb, []string{constants.RedisCaseTokenKey}, floor).Err()
}

var seedMax = goredis.NewScript(`
local cur = tonumber(redis.call("GET", KEYS[1]) or "0")
local floor = tonumber(ARGV[1])
if floor > cur then
  redis.call("SET", KEYS[1], floor)
  return floor
end
return cur
`)
