package clinical

import (
	"context"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	redispkg "github.com/Alijeyrad/medcenter_backend/pkg/redis"
)

// TokenSource hands out queue tokens.
type TokenSource interface {
	Next(ctx context.Context) (int64, error)
	// Resync moves the source past every token already stored.
	Resync(ctx context.Context) error
}

type maxTokenReader interface {
	MaxToken(ctx context.Context) (int64, error)
}

// redisTokens counts in Redis and falls back to the stored maximum when
// Redis is unreachable. The unique index on cases.token settles collisions.
type redisTokens struct {
	rdb  goredis.UniversalClient
	repo maxTokenReader
}

func NewRedisTokens(rdb goredis.UniversalClient, repo maxTokenReader) TokenSource {
	return &redisTokens{rdb: rdb, repo: repo}
}

func (t *redisTokens) Next(ctx context.Context) (int64, error) {
	n, err := redispkg.NextCaseToken(ctx, t.rdb)
	if err == nil {
		return n, nil
	}
	slog.WarnContext(ctx, "clinical: redis token counter unavailable, using database", "error", err)

	top, err := t.repo.MaxToken(ctx)
	if err != nil {
		return 0, err
	}
	return top + 1, nil
}

func (t *redisTokens) Resync(ctx context.Context) error {
	top, err := t.repo.MaxToken(ctx)
	if err != nil {
		return err
	}
	return redispkg.SeedCaseToken(ctx, t.rdb, top)
}
