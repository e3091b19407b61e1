// Package sweeper runs the periodic expiry sweep: open records whose
// deadline has passed are marked expired through the correspondence
// system, so every sweep leaves a normal audit entry.
package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oficiohq/oficio/internal/correspondence"
	"github.com/oficiohq/oficio/pkg/clock"
	"github.com/oficiohq/oficio/pkg/lifecycle"
)

// Actor recorded on sweep-driven transitions.
const Actor = "system:sweeper"

// Sweeper periodically expires overdue records.
type Sweeper struct {
	sys    correspondence.System
	store  correspondence.Store
	clock  clock.Clock
	logger *slog.Logger
	config *Config
}

// New creates a Sweeper. The store provides the overdue scan; transitions
// go through the system so guards and auditing apply.
func New(
	sys correspondence.System,
	st correspondence.Store,
	clk clock.Clock,
	logger *slog.Logger,
	cfg *Config,
) *Sweeper {
	return &Sweeper{
		sys:    sys,
		store:  st,
		clock:  clk,
		logger: logger.With("system", "sweeper"),
		config: cfg,
	}
}

// Start registers the sweep loop with the lifecycle coordinator. The loop
// runs until the coordinator's context is cancelled.
func (s *Sweeper) Start(lc *lifecycle.Coordinator) {
	if !s.config.Enabled {
		s.logger.Info("sweeper disabled")
		return
	}

	ctx := lc.Context()
	done := make(chan struct{})

	lc.OnStartup(func() error {
		go func() {
			defer close(done)
			s.run(ctx)
		}()
		return nil
	})

	lc.OnShutdown(func() {
		<-ctx.Done()
		<-done
	})
}

func (s *Sweeper) run(ctx context.Context) {
	interval := s.config.IntervalDuration()
	s.logger.Info("sweeper started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			if n, err := s.Sweep(ctx); err != nil {
				s.logger.Error("sweep failed", "error", err)
			} else if n > 0 {
				s.logger.Info("sweep expired records", "count", n)
			}
		}
	}
}

// Sweep runs one expiry pass and returns how many records it expired.
// Records another writer closes mid-sweep are skipped, not errors.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	overdue, err := s.store.Overdue(ctx, s.clock.Now(), s.config.BatchLimit)
	if err != nil {
		return 0, err
	}
	if len(overdue) == 0 {
		return 0, nil
	}

	var g errgroup.Group
	g.SetLimit(s.config.Concurrency)

	expired := make(chan struct{}, len(overdue))
	for _, rec := range overdue {
		g.Go(func() error {
			got, err := s.sys.MarkExpired(ctx, rec.ID, Actor)
			if err != nil {
				if errors.Is(err, correspondence.ErrInvalidTransition) ||
					errors.Is(err, correspondence.ErrConflict) ||
					errors.Is(err, correspondence.ErrNotFound) {
					return nil
				}
				return err
			}
			if got.Stage == correspondence.StageExpired {
				expired <- struct{}{}
			}
			return nil
		})
	}

	err = g.Wait()
	close(expired)
	return len(expired), err
}
