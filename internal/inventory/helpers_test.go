package inventory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/theirongolddev/larder/internal/store"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

var epoch = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *fakeClock, *store.Memory) {
	t.Helper()
	clk := &fakeClock{t: epoch}
	mem := store.NewMemory()
	s := Open(context.Background(), mem, Options{Now: clk.Now, NewID: seqIDs()})
	return s, clk, mem
}
