// Package store provides key-scoped blob persistence for larder state.
package store

import (
	"context"
	"errors"
)

// Keys used by the core components.
const (
	KeyInventory = "inventory"
	KeyExpiry    = "expiry"
	KeyProducts  = "products"
	KeyNotify    = "notify"
)

// ErrNotFound is returned by Get when no blob is stored under the key.
var ErrNotFound = errors.New("store: key not found")

// Storage is the persistence port shared by the inventory, advisor,
// lookup cache and notifier.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}
