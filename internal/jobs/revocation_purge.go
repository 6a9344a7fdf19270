package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Purger deletes revocation entries whose tokens can no longer validate.
// Implemented by repository.RevokedTokenRepo.
type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// StartRevocationPurgeJob runs purger every interval until ctx is done.  The
// Redis revocation store expires its own keys and does not need the job.
func StartRevocationPurgeJob(ctx context.Context, purger Purger, interval time.Duration) {
	if purger == nil {
		return
	}
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				purgeOnce(ctx, purger, time.Now().UTC())
			}
		}
	}()
}

func purgeOnce(ctx context.Context, purger Purger, now time.Time) int64 {
	tickCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	n, err := purger.PurgeExpired(tickCtx, now)
	if err != nil {
		log.Error().Err(err).Msg("revocation purge job error")
		return 0
	}
	if n > 0 {
		log.Info().Int64("purged", n).Msg("revocation purge job removed expired entries")
	}
	return n
}
