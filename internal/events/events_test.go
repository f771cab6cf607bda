package events

import (
	"testing"

	"github.com/theirongolddev/larder/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestBus_SubscribeFiltersKinds(t *testing.T) {
	bus := NewBus()

	var all, removed []Kind
	bus.Subscribe(func(ev Event) { all = append(all, ev.Kind()) })
	bus.Subscribe(func(ev Event) { removed = append(removed, ev.Kind()) }, KindItemRemoved)

	item := model.InventoryItem{ID: "a"}
	bus.Publish(ItemAdded{Item: item})
	bus.Publish(ItemUpdated{Previous: item, Item: item})
	bus.Publish(ItemRemoved{Item: item, Reason: "eaten"})

	assert.Equal(t, []Kind{KindItemAdded, KindItemUpdated, KindItemRemoved}, all)
	assert.Equal(t, []Kind{KindItemRemoved}, removed)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	sub := bus.Subscribe(func(Event) { calls++ })

	bus.Publish(ItemAdded{Item: model.InventoryItem{ID: "a"}})
	sub.Unsubscribe()
	sub.Unsubscribe()
	bus.Publish(ItemAdded{Item: model.InventoryItem{ID: "b"}})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Len())
}

func TestBus_HandlerMayUnsubscribeItself(t *testing.T) {
	bus := NewBus()
	var sub *Subscription
	calls := 0
	sub = bus.Subscribe(func(Event) {
		calls++
		sub.Unsubscribe()
	})

	bus.Publish(ItemAdded{Item: model.InventoryItem{ID: "a"}})
	bus.Publish(ItemAdded{Item: model.InventoryItem{ID: "b"}})
	assert.Equal(t, 1, calls)
}

func TestBus_NilPublishIsNoop(t *testing.T) {
	var bus *Bus
	bus.Publish(ItemAdded{})
}
