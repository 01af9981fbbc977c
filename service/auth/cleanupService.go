package authsvc

import (
	"context"
	"time"

	authrepo "bookswap/repository/auth"
)

// Cleaner drops stale unverified signups and expired refresh tokens. Run from
// the cron schedule in main.
type Cleaner interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type cleaner struct {
	r authrepo.Repo
}

func NewCleaner(r authrepo.Repo) Cleaner { return &cleaner{r: r} }

func (c *cleaner) PurgeExpired(ctx context.Context) (int64, error) {
	return c.r.PurgeExpired(ctx, time.Now().UTC())
}
