package history

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	redispkg "github.com/Alijeyrad/medcenter_backend/pkg/redis"
)

// AttemptCounter throttles verification guesses per (doctor, patient).
type AttemptCounter interface {
	Hit(ctx context.Context, doctorID, patientID int64) (int64, error)
	Reset(ctx context.Context, doctorID, patientID int64) error
}

type redisAttempts struct {
	rdb    goredis.UniversalClient
	window time.Duration
}

func NewRedisAttempts(rdb goredis.UniversalClient, window time.Duration) AttemptCounter {
	if window <= 0 {
		window = defaultAttemptWindow
	}
	return &redisAttempts{rdb: rdb, window: window}
}

func (a *redisAttempts) Hit(ctx context.Context, doctorID, patientID int64) (int64, error) {
	return redispkg.IncrWithTTL(ctx, a.rdb, redispkg.OTPAttemptsKey(doctorID, patientID), a.window)
}

func (a *redisAttempts) Reset(ctx context.Context, doctorID, patientID int64) error {
	return a.rdb.Del(ctx, redispkg.OTPAttemptsKey(doctorID, patientID)).Err()
}
