package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/theirongolddev/larder/internal/model"
)

func TestDaysUntilExpiry(t *testing.T) {
	now := epoch
	opened := func(daysAgo int) *time.Time {
		d := now.AddDate(0, 0, -daysAgo)
		return &d
	}

	cases := []struct {
		name   string
		expiry time.Time
		opened *time.Time
		want   int
	}{
		{"whole days", now.AddDate(0, 0, 5), nil, 5},
		{"partial day floors", now.Add(36 * time.Hour), nil, 1},
		{"just expired", now.Add(-time.Hour), nil, -1},
		{"opened caps remaining", now.AddDate(0, 0, 30), opened(2), 5},
		{"opened long ago floors at zero", now.AddDate(0, 0, 30), opened(10), 0},
		{"opening never extends", now.AddDate(0, 0, 2), opened(0), 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item := model.InventoryItem{ExpiryDate: tc.expiry, OpenedDate: tc.opened}
			assert.Equal(t, tc.want, DaysUntilExpiry(item, now))
		})
	}
}

func TestFreshnessOf(t *testing.T) {
	cases := map[int]model.Freshness{
		-1: model.FreshnessExpired,
		0:  model.FreshnessExpiring,
		1:  model.FreshnessExpiring,
		2:  model.FreshnessUseSoon,
		3:  model.FreshnessUseSoon,
		7:  model.FreshnessGood,
		8:  model.FreshnessFresh,
	}
	for days, want := range cases {
		item := model.InventoryItem{ExpiryDate: epoch.AddDate(0, 0, days)}
		assert.Equal(t, want, FreshnessOf(item, epoch), "days=%d", days)
	}
}

func TestDepletionDate(t *testing.T) {
	assert.Equal(t, epoch.AddDate(0, 0, 30), DepletionDate(5, 0, epoch))
	assert.Equal(t, epoch.AddDate(0, 0, 3), DepletionDate(5, 2, epoch))
	assert.Equal(t, epoch, DepletionDate(0, 1, epoch))
}

func TestCostPerUnit(t *testing.T) {
	assert.Equal(t, 2.5, CostPerUnit(10, 4))
	assert.Equal(t, 0.0, CostPerUnit(10, 0))
}
