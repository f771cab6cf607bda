// Package notify applies the daily limit and quiet hours to outgoing
// notifications and keeps the schedule of deferred ones.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/theirongolddev/larder/internal/model"
	"github.com/theirongolddev/larder/internal/store"
)

// Priority of a notification.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Notification is a fully composed message.
type Notification struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Priority Priority `json:"priority"`
	Actions  []string `json:"actions,omitempty"`
	ItemID   string   `json:"item_id,omitempty"`
}

// Outcome explains what happened to a Send.
type Outcome string

const (
	Delivered       Outcome = "delivered"
	SuppressedCap   Outcome = "suppressed_daily_limit"
	SuppressedQuiet Outcome = "suppressed_quiet_hours"
	Failed          Outcome = "failed"
)

// Policy is the throttling configuration.
type Policy struct {
	MaxPerDay      int
	QuietHours     bool
	QuietStartHour int
	QuietEndHour   int
}

// DefaultPolicy allows five a day and stays quiet 22:00-07:00.
func DefaultPolicy() Policy {
	return Policy{MaxPerDay: 5, QuietHours: true, QuietStartHour: 22, QuietEndHour: 7}
}

// InQuietHours reports whether t's local hour falls in the window. The
// window may wrap midnight; equal start and end disable it.
func (p Policy) InQuietHours(t time.Time) bool {
	if !p.QuietHours || p.QuietStartHour == p.QuietEndHour {
		return false
	}
	h := t.Hour()
	if p.QuietStartHour < p.QuietEndHour {
		return h >= p.QuietStartHour && h < p.QuietEndHour
	}
	return h >= p.QuietStartHour || h < p.QuietEndHour
}

// Options configures a Notifier.
type Options struct {
	Now    func() time.Time
	NewID  func() string
	Policy Policy
	Logger zerolog.Logger
}

type pending struct {
	Notification Notification `json:"notification"`
	At           time.Time    `json:"at"`
}

type state struct {
	Day     string    `json:"day"`
	Sent    int       `json:"sent"`
	Pending []pending `json:"pending"`
}

// Notifier gates delivery. Blocked sends are suppressed, never queued.
type Notifier struct {
	mu      sync.Mutex
	out     Deliverer
	storage store.Storage
	policy  Policy
	st      state

	now   func() time.Time
	newID func() string
	log   zerolog.Logger
}

// Open loads the daily counter and pending schedule.
func Open(ctx context.Context, storage store.Storage, out Deliverer, opts Options) *Notifier {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	n := &Notifier{
		out:     out,
		storage: storage,
		policy:  opts.Policy,
		now:     opts.Now,
		newID:   opts.NewID,
		log:     opts.Logger,
	}

	n.st = n.load(ctx)
	return n
}

// Reload replaces the daily counter and schedule with the persisted blob.
func (n *Notifier) Reload(ctx context.Context) {
	st := n.load(ctx)
	n.mu.Lock()
	n.st = st
	n.mu.Unlock()
}

func (n *Notifier) load(ctx context.Context) state {
	var st state
	data, err := n.storage.Get(ctx, store.KeyNotify)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		n.log.Error().Err(err).Str("key", store.KeyNotify).Msg("loading notifier state failed")
	default:
		if err := json.Unmarshal(data, &st); err != nil {
			n.log.Warn().Err(err).Str("key", store.KeyNotify).Msg("corrupt notifier state, starting empty")
			return state{}
		}
	}
	return st
}

// Send delivers msg now if the policy allows it.
func (n *Notifier) Send(ctx context.Context, msg Notification) Outcome {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.sendLocked(ctx, msg, n.now())
	n.persistLocked(ctx)
	return out
}

func (n *Notifier) sendLocked(ctx context.Context, msg Notification, now time.Time) Outcome {
	n.rollDayLocked(now)
	if msg.ID == "" {
		msg.ID = n.newID()
	}

	switch {
	case n.policy.InQuietHours(now):
		n.log.Debug().Str("title", msg.Title).Msg("notification suppressed: quiet hours")
		return SuppressedQuiet
	case n.policy.MaxPerDay > 0 && n.st.Sent >= n.policy.MaxPerDay:
		n.log.Debug().Str("title", msg.Title).Int("sent", n.st.Sent).Msg("notification suppressed: daily limit")
		return SuppressedCap
	}

	ok, err := n.out.Deliver(ctx, msg)
	if err != nil {
		n.log.Warn().Err(err).Str("title", msg.Title).Msg("notification delivery failed")
	}
	if !ok {
		return Failed
	}
	n.st.Sent++
	return Delivered
}

// rollDayLocked resets the counter at the local-day boundary.
func (n *Notifier) rollDayLocked(now time.Time) {
	day := now.Format(time.DateOnly)
	if n.st.Day != day {
		n.st.Day = day
		n.st.Sent = 0
	}
}

// Schedule queues msg for delivery at or after at. It returns the id.
func (n *Notifier) Schedule(ctx context.Context, msg Notification, at time.Time) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if msg.ID == "" {
		msg.ID = n.newID()
	}
	n.st.Pending = append(n.st.Pending, pending{Notification: msg, At: at})
	sort.SliceStable(n.st.Pending, func(i, j int) bool { return n.st.Pending[i].At.Before(n.st.Pending[j].At) })
	n.persistLocked(ctx)
	return msg.ID
}

// Cancel drops a pending notification. It returns false for an unknown id.
func (n *Notifier) Cancel(ctx context.Context, id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, p := range n.st.Pending {
		if p.Notification.ID == id {
			n.st.Pending = append(n.st.Pending[:i], n.st.Pending[i+1:]...)
			n.persistLocked(ctx)
			return true
		}
	}
	return false
}

// SweepResult counts what a sweep did with due entries.
type SweepResult struct {
	Delivered  int
	Suppressed int
	Failed     int
	Remaining  int
}

func (r SweepResult) String() string {
	return fmt.Sprintf("delivered=%d suppressed=%d failed=%d remaining=%d", r.Delivered, r.Suppressed, r.Failed, r.Remaining)
}

// Sweep attempts every due pending entry. Entries not yet due, or blocked by
// quiet hours or the daily limit, stay pending for the next sweep.
func (n *Notifier) Sweep(ctx context.Context) SweepResult {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	var res SweepResult
	var keep []pending
	for _, p := range n.st.Pending {
		if p.At.After(now) {
			keep = append(keep, p)
			continue
		}
		switch n.sendLocked(ctx, p.Notification, now) {
		case Delivered:
			res.Delivered++
		case Failed:
			res.Failed++
		case SuppressedQuiet, SuppressedCap:
			res.Suppressed++
			keep = append(keep, p)
		}
	}
	n.st.Pending = keep
	res.Remaining = len(keep)
	n.persistLocked(ctx)
	return res
}

// Pending returns scheduled notifications, soonest first.
func (n *Notifier) Pending() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.st.Pending))
	for i, p := range n.st.Pending {
		out[i] = p.Notification
	}
	return out
}

// SentToday returns the number of deliveries counted against today's limit.
func (n *Notifier) SentToday() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rollDayLocked(n.now())
	return n.st.Sent
}

func (n *Notifier) persistLocked(ctx context.Context) {
	data, err := json.Marshal(n.st)
	if err != nil {
		n.log.Error().Err(err).Msg("encoding notifier state")
		return
	}
	if err := n.storage.Set(ctx, store.KeyNotify, data); err != nil {
		n.log.Error().Err(err).Str("key", store.KeyNotify).Msg("persisting notifier state failed")
	}
}

// AlertNotification composes the message for an expiry alert.
func AlertNotification(a model.ExpiryAlert) Notification {
	n := Notification{ItemID: a.ItemID, Actions: append([]string(nil), a.SuggestedActions...)}
	switch a.AlertType {
	case model.AlertExpired:
		n.Title = a.ItemName + " has expired"
		n.Body = fmt.Sprintf("%s passed its expiry date. Check it before eating.", a.ItemName)
		n.Priority = PriorityHigh
	case model.AlertCritical:
		n.Title = a.ItemName + " expires soon"
		n.Body = fmt.Sprintf("%s expires in %s.", a.ItemName, days(a.DaysUntilExpiry))
		n.Priority = PriorityHigh
	default:
		n.Title = "Use " + a.ItemName + " this week"
		n.Body = fmt.Sprintf("%s expires in %s.", a.ItemName, days(a.DaysUntilExpiry))
		n.Priority = PriorityNormal
	}
	if len(a.MealSuggestions) > 0 {
		n.Body += " Try: " + a.MealSuggestions[0] + "."
	}
	return n
}

func days(d int) string {
	switch d {
	case 0:
		return "less than a day"
	case 1:
		return "1 day"
	}
	return fmt.Sprintf("%d days", d)
}
