package svc

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"pastebox/metrics"
	"pastebox/svc/store"
	"pastebox/svc/util"
)

var (
	janitorOnce    sync.Once
	janitorRunning atomic.Bool
)

// StartJanitor periodically sweeps expired pastes from the file and memory
// backends. Expiry stays correct without it (reads evict lazily); this only
// bounds how long dead records linger. The remote backend expires
// service-side and never needs a sweep.
func StartJanitor(ctx context.Context, st store.Store, interval time.Duration) error {
	if st.Mode() == store.ModeRedis {
		return errors.New("janitor not supported for the redis backend")
	}
	if janitorRunning.Load() {
		return errors.New("janitor already running")
	}
	janitorOnce.Do(func() {
		janitorRunning.Store(true)
		go runJanitor(ctx, st, interval)
	})
	return nil
}

func runJanitor(ctx context.Context, st store.Store, interval time.Duration) {
	defer janitorRunning.Store(false)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	util.Info().Dur("interval", interval).Msg("janitor started")
	for {
		select {
		case <-ctx.Done():
			util.Info().Msg("janitor shutting down")
			return
		case <-ticker.C:
			// ListAll evicts expired records as it scans
			if _, err := st.ListAll(ctx); err != nil {
				util.Error().Err(err).Msg("janitor sweep failed")
				continue
			}
			metrics.PruneCycles.Inc()
		}
	}
}
