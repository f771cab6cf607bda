// Package events is a typed publish/subscribe bus for inventory changes.
package events

import (
	"sort"
	"sync"

	"github.com/theirongolddev/larder/internal/model"
)

// Kind names an event variant.
type Kind string

const (
	KindItemAdded   Kind = "item_added"
	KindItemUpdated Kind = "item_updated"
	KindItemRemoved Kind = "item_removed"
)

// Event is one of ItemAdded, ItemUpdated or ItemRemoved.
type Event interface {
	Kind() Kind
	ItemID() string
}

// ItemAdded is published after a new item is stored.
type ItemAdded struct {
	Item model.InventoryItem
}

// ItemUpdated is published after an item changes.
type ItemUpdated struct {
	Previous model.InventoryItem
	Item     model.InventoryItem
}

// ItemRemoved is published after an item is deleted.
type ItemRemoved struct {
	Item   model.InventoryItem
	Reason string
}

func (ItemAdded) Kind() Kind   { return KindItemAdded }
func (ItemUpdated) Kind() Kind { return KindItemUpdated }
func (ItemRemoved) Kind() Kind { return KindItemRemoved }

func (e ItemAdded) ItemID() string   { return e.Item.ID }
func (e ItemUpdated) ItemID() string { return e.Item.ID }
func (e ItemRemoved) ItemID() string { return e.Item.ID }

// Handler receives published events synchronously.
type Handler func(Event)

// Bus fans events out to subscribers.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscriber
}

type subscriber struct {
	kinds   map[Kind]struct{} // empty means all kinds
	handler Handler
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	bus *Bus
	id  int
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]subscriber)}
}

// Subscribe registers h for the given kinds, or for every kind when none are given.
func (b *Bus) Subscribe(h Handler, kinds ...Kind) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := subscriber{handler: h, kinds: make(map[Kind]struct{}, len(kinds))}
	for _, k := range kinds {
		sub.kinds[k] = struct{}{}
	}
	b.nextID++
	b.subs[b.nextID] = sub
	return &Subscription{bus: b, id: b.nextID}
}

// Unsubscribe removes the handler. Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.mu.Lock()
	delete(s.bus.subs, s.id)
	s.bus.mu.Unlock()
	s.bus = nil
}

// Publish delivers ev to every matching subscriber in subscription order.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	handlers := make([]Handler, 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		sub := b.subs[id]
		if len(sub.kinds) > 0 {
			if _, ok := sub.kinds[ev.Kind()]; !ok {
				continue
			}
		}
		handlers = append(handlers, sub.handler)
	}
	b.mu.RUnlock()

	// Handlers run outside the lock so they may subscribe or unsubscribe.
	for _, h := range handlers {
		h(ev)
	}
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
