package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/larder/internal/model"
	"github.com/theirongolddev/larder/internal/notify"
)

// AlertChecker raises expiry alerts. *expiry.Advisor satisfies it.
type AlertChecker interface {
	CheckAllExpiry(ctx context.Context) []model.ExpiryAlert
}

// RateRefresher writes fitted usage rates back to the inventory.
// *forecast.Forecaster satisfies it.
type RateRefresher interface {
	RefreshUsageRates(ctx context.Context) int
}

// Sender delivers notifications. *notify.Notifier satisfies it.
type Sender interface {
	Send(ctx context.Context, n notify.Notification) notify.Outcome
	Sweep(ctx context.Context) notify.SweepResult
}

// Reloader re-reads persisted state written by other processes.
type Reloader interface {
	Reload(ctx context.Context)
}

// SweepReport summarizes one pass of periodic work.
type SweepReport struct {
	At             time.Time          `json:"at"`
	NewAlerts      int                `json:"new_alerts"`
	Delivered      int                `json:"delivered"`
	Suppressed     int                `json:"suppressed"`
	Failed         int                `json:"failed"`
	RatesRefreshed int                `json:"rates_refreshed"`
	Scheduled      notify.SweepResult `json:"scheduled"`
}

// SweeperConfig wires the periodic work. Any nil collaborator is skipped.
type SweeperConfig struct {
	Reload   []Reloader
	Alerts   AlertChecker
	Rates    RateRefresher
	Notifier Sender
	Interval time.Duration
	Now      func() time.Time
	Logger   zerolog.Logger

	// OnSweep, when set, receives every report after the pass completes.
	OnSweep func(SweepReport)
}

// Sweeper runs expiry checks, notifications and rate refreshes on a ticker.
type Sweeper struct {
	cfg SweeperConfig

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper returns a stopped sweeper.
func NewSweeper(cfg SweeperConfig) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Sweeper{cfg: cfg}
}

// Interval returns the tick period.
func (s *Sweeper) Interval() time.Duration {
	return s.cfg.Interval
}

// RunOnce performs a single pass synchronously.
func (s *Sweeper) RunOnce(ctx context.Context) SweepReport {
	for _, r := range s.cfg.Reload {
		r.Reload(ctx)
	}
	rep := SweepReport{At: s.cfg.Now()}

	if s.cfg.Alerts != nil {
		created := s.cfg.Alerts.CheckAllExpiry(ctx)
		rep.NewAlerts = len(created)
		if s.cfg.Notifier != nil {
			for _, al := range created {
				switch s.cfg.Notifier.Send(ctx, notify.AlertNotification(al)) {
				case notify.Delivered:
					rep.Delivered++
				case notify.Failed:
					rep.Failed++
				default:
					rep.Suppressed++
				}
			}
		}
	}
	if s.cfg.Rates != nil {
		rep.RatesRefreshed = s.cfg.Rates.RefreshUsageRates(ctx)
	}
	if s.cfg.Notifier != nil {
		rep.Scheduled = s.cfg.Notifier.Sweep(ctx)
	}

	s.cfg.Logger.Debug().
		Int("new_alerts", rep.NewAlerts).
		Int("delivered", rep.Delivered).
		Int("rates_refreshed", rep.RatesRefreshed).
		Stringer("scheduled", rep.Scheduled).
		Msg("sweep complete")

	if s.cfg.OnSweep != nil {
		s.cfg.OnSweep(rep)
	}
	return rep
}

// Start runs a pass immediately and then on every tick until Stop or ctx
// cancellation. Starting a running sweeper restarts it.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		s.RunOnce(runCtx)

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.RunOnce(runCtx)
			}
		}
	}()
	s.cfg.Logger.Info().Dur("interval", s.cfg.Interval).Msg("sweeper started")
}

// Stop halts the ticker and waits for an in-flight pass to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopLocked() {
		s.cfg.Logger.Info().Msg("sweeper stopped")
	}
}

func (s *Sweeper) stopLocked() bool {
	if s.cancel == nil {
		return false
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
	return true
}

// Running reports whether the ticker is active.
func (s *Sweeper) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}
