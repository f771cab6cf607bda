// Package daemon provides the long-running background sweeper and its HTTP API.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/larder/internal/events"
	"github.com/theirongolddev/larder/internal/expiry"
	"github.com/theirongolddev/larder/internal/forecast"
	"github.com/theirongolddev/larder/internal/inventory"
	"github.com/theirongolddev/larder/internal/notify"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Addr         string
	Interval     time.Duration
	EventsBuffer int
	DBPath       string
	Now          func() time.Time
	Logger       zerolog.Logger
}

// Deps are the components the daemon sweeps and reports on. Only Inventory
// is required.
type Deps struct {
	Inventory  *inventory.Store
	Advisor    *expiry.Advisor
	Forecaster *forecast.Forecaster
	Notifier   *notify.Notifier
}

// Snapshot is a compact inventory state for status/event payloads.
type Snapshot struct {
	At               time.Time `json:"at"`
	Items            int       `json:"items"`
	TotalValue       float64   `json:"total_value"`
	ExpiringSoon     int       `json:"expiring_soon"`
	ExpiringThisWeek int       `json:"expiring_this_week"`
	LowStock         int       `json:"low_stock"`
	ActiveAlerts     int       `json:"active_alerts"`
	WasteCostMonth   float64   `json:"waste_cost_month"`
}

// Event is emitted on inventory changes and after each sweep.
type Event struct {
	ID        int64        `json:"id"`
	Type      string       `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	ItemID    string       `json:"item_id,omitempty"`
	ItemName  string       `json:"item_name,omitempty"`
	Reason    string       `json:"reason,omitempty"`
	Snapshot  *Snapshot    `json:"snapshot,omitempty"`
	Sweep     *SweepReport `json:"sweep,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt        time.Time    `json:"started_at"`
	LastSweepAt      time.Time    `json:"last_sweep_at"`
	SweepIntervalSec int          `json:"sweep_interval_sec"`
	SweepCount       int64        `json:"sweep_count"`
	DBPath           string       `json:"db_path,omitempty"`
	Summary          Snapshot     `json:"summary"`
	LastSweep        *SweepReport `json:"last_sweep,omitempty"`
	EventCount       int          `json:"event_count"`
	SubscriberCount  int          `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	deps    Deps
	sweeper *Sweeper
	metrics *metrics
	log     zerolog.Logger

	mu          sync.RWMutex
	startedAt   time.Time
	lastSweep   *SweepReport
	sweepCount  int64
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config, deps Deps) *Service {
	if cfg.Interval < time.Minute {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8797"
	}
	if cfg.Now == nil {
		cfg.Now = deps.Inventory.Now
	}

	s := &Service{
		cfg:       cfg,
		deps:      deps,
		metrics:   newMetrics(),
		log:       cfg.Logger,
		startedAt: cfg.Now(),
		subs:      make(map[int]chan Event),
	}

	// Typed nils must not reach the sweeper's interfaces.
	sc := SweeperConfig{
		Reload:   []Reloader{deps.Inventory},
		Interval: cfg.Interval,
		Now:      cfg.Now,
		Logger:   cfg.Logger,
		OnSweep:  s.onSweep,
	}
	if deps.Advisor != nil {
		sc.Alerts = deps.Advisor
		sc.Reload = append(sc.Reload, deps.Advisor)
	}
	if deps.Forecaster != nil {
		sc.Rates = deps.Forecaster
	}
	if deps.Notifier != nil {
		sc.Notifier = deps.Notifier
		sc.Reload = append(sc.Reload, deps.Notifier)
	}
	s.sweeper = NewSweeper(sc)

	s.refreshSnapshot()
	return s
}

// Sweeper exposes the periodic worker.
func (s *Service) Sweeper() *Sweeper {
	return s.sweeper
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	mux.Handle("/metrics", s.metrics.handler())
	return mux
}

// Run starts HTTP endpoints and the sweeper until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	sub := s.deps.Inventory.Bus().Subscribe(s.onItemEvent)
	defer sub.Unsubscribe()

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info().Str("addr", s.cfg.Addr).Msg("daemon listening")

	s.sweeper.Start(ctx)
	defer s.sweeper.Stop()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("daemon http server: %w", err)
	}
}

func (s *Service) onSweep(rep SweepReport) {
	snap := s.refreshSnapshot()
	s.metrics.observeSweep(rep)

	s.mu.Lock()
	s.lastSweep = &rep
	s.sweepCount++
	s.mu.Unlock()

	s.publishEvent(Event{
		Type:      "sweep",
		Timestamp: rep.At,
		Snapshot:  &snap,
		Sweep:     &rep,
	})
}

func (s *Service) onItemEvent(e events.Event) {
	snap := s.refreshSnapshot()
	s.metrics.observeEvent(e.Kind())

	ev := Event{
		Type:      string(e.Kind()),
		Timestamp: s.cfg.Now(),
		ItemID:    e.ItemID(),
		Snapshot:  &snap,
	}
	switch v := e.(type) {
	case events.ItemAdded:
		ev.ItemName = v.Item.Name
	case events.ItemUpdated:
		ev.ItemName = v.Item.Name
	case events.ItemRemoved:
		ev.ItemName = v.Item.Name
		ev.Reason = v.Reason
	}

	s.publishEvent(ev)
}

func (s *Service) refreshSnapshot() Snapshot {
	stats := s.deps.Inventory.Stats()
	snap := Snapshot{
		At:               s.cfg.Now(),
		Items:            stats.TotalItems,
		TotalValue:       stats.TotalValue,
		ExpiringSoon:     stats.ExpiringSoon,
		ExpiringThisWeek: stats.ExpiringThisWeek,
		LowStock:         stats.LowStock,
		WasteCostMonth:   stats.WasteCostMonth,
	}
	if s.deps.Advisor != nil {
		snap.ActiveAlerts = len(s.deps.Advisor.ActiveAlerts())
	}
	s.metrics.observeSnapshot(snap)

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
	return snap
}

// publishEvent numbers ev and appends it under one lock, so the buffer
// stays in id order.
func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.nextEventID++
	ev.ID = s.nextEventID
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		StartedAt:        s.startedAt,
		SweepIntervalSec: int(s.cfg.Interval.Seconds()),
		SweepCount:       s.sweepCount,
		DBPath:           s.cfg.DBPath,
		Summary:          s.snapshot,
		EventCount:       len(s.events),
		SubscriberCount:  len(s.subs),
	}
	if s.lastSweep != nil {
		rep := *s.lastSweep
		st.LastSweep = &rep
		st.LastSweepAt = rep.At
	}
	return st
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	evs := make([]Event, len(s.events))
	copy(evs, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(evs)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	summary := s.snapshotStatus().Summary
	writeSSE(w, Event{
		Type:      "snapshot",
		Timestamp: s.cfg.Now(),
		Snapshot:  &summary,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
