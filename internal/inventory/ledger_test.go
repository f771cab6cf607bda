package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/larder/internal/model"
)

func TestLedger_TrimKeepsNewestInOrder(t *testing.T) {
	l := NewLedger(3, nil)
	for i := 0; i < 5; i++ {
		l.Append(model.Transaction{ID: string(rune('a' + i)), Timestamp: epoch.Add(time.Duration(i) * time.Hour)})
	}

	all := l.All()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "d", "e"}, []string{all[0].ID, all[1].ID, all[2].ID})
}

func TestLedger_ReadsDoNotTrim(t *testing.T) {
	seed := make([]model.Transaction, 4)
	l := NewLedger(10, seed)
	_ = l.All()
	_ = l.ForItem("x")
	_ = l.Between(time.Time{}, time.Time{})
	assert.Equal(t, 4, l.Len())
}

func TestLedger_Between(t *testing.T) {
	l := NewLedger(0, nil)
	for i := 0; i < 4; i++ {
		l.Append(model.Transaction{ItemID: "a", Timestamp: epoch.AddDate(0, 0, i)})
	}

	got := l.Between(epoch.AddDate(0, 0, 1), epoch.AddDate(0, 0, 3))
	require.Len(t, got, 2)
	assert.Equal(t, epoch.AddDate(0, 0, 1), got[0].Timestamp)
	assert.Len(t, l.ForItem("a"), 4)
	assert.Empty(t, l.ForItem("b"))
}
