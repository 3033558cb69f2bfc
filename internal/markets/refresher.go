package markets

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type Refresher struct {
	db       *Database
	cache    *Cache
	interval time.Duration // Time between cache reloads
}

func NewRefresher(db *Database, cache *Cache, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Refresher{
		db:       db,
		cache:    cache,
		interval: interval,
	}
}

// Update reloads the cache from the market table
func (r *Refresher) Update(ctx context.Context) error {
	markets, err := r.db.FindAll(ctx)
	if err != nil {
		return err
	}
	r.cache.Replace(markets)

	log.Debug().
		Str("component", "market_refresher").
		Int("market_count", len(markets)).
		Msg("refreshed perpetual market cache")
	return nil
}

// Start reloads the cache on every tick until ctx is cancelled
func (r *Refresher) Start(ctx context.Context) {
	logger := log.With().Str("component", "market_refresher").Logger()
	logger.Info().Dur("interval", r.interval).Msg("starting market refresher")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down market refresher")
			return
		case <-ticker.C:
			if err := r.Update(ctx); err != nil {
				logger.Error().Err(err).Msg("failed to refresh perpetual markets")
			}
		}
	}
}
