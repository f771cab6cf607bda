package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/larder/internal/expiry"
	"github.com/theirongolddev/larder/internal/forecast"
	"github.com/theirongolddev/larder/internal/inventory"
	"github.com/theirongolddev/larder/internal/notify"
	"github.com/theirongolddev/larder/internal/store"
)

var epoch = time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu   sync.Mutex
	seen []notify.Notification
}

func (r *recorder) Deliver(_ context.Context, n notify.Notification) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, n)
	return true, nil
}

type harness struct {
	svc *Service
	inv *inventory.Store
	out *recorder
}

func newHarness(t *testing.T, buffer int) *harness {
	t.Helper()
	ctx := context.Background()
	now := func() time.Time { return epoch }
	mem := store.NewMemory()

	inv := inventory.Open(ctx, mem, inventory.Options{Now: now})
	adv := expiry.Open(ctx, inv, mem, expiry.Options{})
	t.Cleanup(adv.Close)
	out := &recorder{}
	ntf := notify.Open(ctx, mem, out, notify.Options{Now: now, Policy: notify.Policy{MaxPerDay: 10}})

	svc := New(Config{EventsBuffer: buffer, DBPath: "/tmp/larder.db"}, Deps{
		Inventory:  inv,
		Advisor:    adv,
		Forecaster: forecast.New(inv, forecast.Options{}),
		Notifier:   ntf,
	})
	return &harness{svc: svc, inv: inv, out: out}
}

func TestNew_Defaults(t *testing.T) {
	inv := inventory.Open(context.Background(), store.NewMemory(), inventory.Options{})
	s := New(Config{Interval: time.Second}, Deps{Inventory: inv})

	assert.Equal(t, 15*time.Minute, s.cfg.Interval)
	assert.Equal(t, 200, s.cfg.EventsBuffer)
	assert.Equal(t, "127.0.0.1:8797", s.cfg.Addr)
	assert.Nil(t, s.sweeper.cfg.Alerts)
	assert.Nil(t, s.sweeper.cfg.Rates)
	assert.Nil(t, s.sweeper.cfg.Notifier)
}

func TestPublishEventRingBuffer(t *testing.T) {
	h := newHarness(t, 2)
	s := h.svc

	s.publishEvent(Event{Type: "a"})
	s.publishEvent(Event{Type: "b"})
	s.publishEvent(Event{Type: "c"})

	s.mu.RLock()
	defer s.mu.RUnlock()

	require.Len(t, s.events, 2)
	assert.Equal(t, int64(2), s.events[0].ID)
	assert.Equal(t, int64(3), s.events[1].ID)
	assert.Equal(t, "c", s.events[1].Type)
}

func TestPublishEvent_ConcurrentIDsStayOrdered(t *testing.T) {
	h := newHarness(t, 500)
	sub := h.inv.Bus().Subscribe(h.svc.onItemEvent)
	defer sub.Unsubscribe()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				h.inv.AddItem(context.Background(), inventory.NewItem{Name: "Egg"})
			}
		}()
	}
	wg.Wait()

	h.svc.mu.RLock()
	defer h.svc.mu.RUnlock()
	require.Len(t, h.svc.events, 200)
	for i, ev := range h.svc.events {
		assert.Equal(t, int64(i+1), ev.ID)
	}
}

func TestSweep_UpdatesStatusAndNotifies(t *testing.T) {
	h := newHarness(t, 10)
	exp := epoch.Add(20 * time.Hour)
	h.inv.AddItem(context.Background(), inventory.NewItem{Name: "Milk", ExpiryDate: &exp, Cost: 2})

	h.svc.Sweeper().RunOnce(context.Background())

	st := h.svc.snapshotStatus()
	assert.Equal(t, int64(1), st.SweepCount)
	require.NotNil(t, st.LastSweep)
	assert.Equal(t, 1, st.LastSweep.NewAlerts)
	assert.Equal(t, 1, st.LastSweep.Delivered)
	assert.Equal(t, 1, st.Summary.Items)
	assert.Equal(t, 1, st.Summary.ActiveAlerts)
	assert.Equal(t, 1, st.Summary.ExpiringSoon)
	assert.Equal(t, epoch, st.LastSweepAt)

	require.Len(t, h.out.seen, 1)
	assert.Equal(t, "Milk expires soon", h.out.seen[0].Title)

	require.Equal(t, 1, st.EventCount)
	assert.Equal(t, "sweep", h.svc.events[0].Type)
}

func TestHandlers(t *testing.T) {
	h := newHarness(t, 10)
	srv := httptest.NewServer(h.svc.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok\n", string(body))

	h.svc.Sweeper().RunOnce(context.Background())

	resp, err = http.Get(srv.URL + "/v1/status")
	require.NoError(t, err)
	var st Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	resp.Body.Close()
	assert.Equal(t, int64(1), st.SweepCount)
	assert.Equal(t, 900, st.SweepIntervalSec)
	assert.Equal(t, "/tmp/larder.db", st.DBPath)

	resp, err = http.Get(srv.URL + "/v1/events")
	require.NoError(t, err)
	var evs []Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&evs))
	resp.Body.Close()
	require.Len(t, evs, 1)
	assert.Equal(t, "sweep", evs[0].Type)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "larder_sweeps_total 1")
	assert.Contains(t, string(body), "larder_items 0")
}

func TestStream_ForwardsItemEvents(t *testing.T) {
	h := newHarness(t, 10)
	sub := h.inv.Bus().Subscribe(h.svc.onItemEvent)
	defer sub.Unsubscribe()

	srv := httptest.NewServer(h.svc.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	typ, _ := readSSE(t, r)
	assert.Equal(t, "snapshot", typ)

	require.Eventually(t, func() bool {
		h.svc.mu.RLock()
		defer h.svc.mu.RUnlock()
		return len(h.svc.subs) == 1
	}, time.Second, time.Millisecond)

	h.inv.AddItem(context.Background(), inventory.NewItem{Name: "Bread"})

	typ, data := readSSE(t, r)
	assert.Equal(t, "item_added", typ)
	var ev Event
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.Equal(t, "Bread", ev.ItemName)
	require.NotNil(t, ev.Snapshot)
	assert.Equal(t, 1, ev.Snapshot.Items)
}

func readSSE(t *testing.T, r *bufio.Reader) (typ, data string) {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			typ = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && typ != "":
			return typ, data
		}
	}
}
