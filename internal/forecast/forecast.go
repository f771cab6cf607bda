// Package forecast turns ledger history into usage-rate predictions,
// reorder suggestions and the ranked shopping list.
package forecast

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/larder/internal/inventory"
	"github.com/theirongolddev/larder/internal/model"
)

const (
	minRegressionPoints = 3
	sparseConfidence    = 0.2
	minDailyRate        = 0.01
	smoothingWindow     = 7
	trendWindow         = 7
	trendThreshold      = 15.0
)

// Config holds the tunable forecasting constants.
type Config struct {
	ReorderLeadDays  int
	SmoothingAlpha   float64
	BlendHorizonDays float64
	DefaultUsageRate float64
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		ReorderLeadDays:  3,
		SmoothingAlpha:   0.3,
		BlendHorizonDays: 14,
		DefaultUsageRate: 0.1,
	}
}

func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.ReorderLeadDays == 0 {
		c.ReorderLeadDays = d.ReorderLeadDays
	}
	c.ReorderLeadDays = min(14, max(1, c.ReorderLeadDays))
	if c.SmoothingAlpha <= 0 || c.SmoothingAlpha > 1 {
		c.SmoothingAlpha = d.SmoothingAlpha
	}
	if c.BlendHorizonDays <= 0 {
		c.BlendHorizonDays = d.BlendHorizonDays
	}
	if c.DefaultUsageRate <= 0 {
		c.DefaultUsageRate = d.DefaultUsageRate
	}
	return c
}

// Options configures a Forecaster. A nil Now uses the inventory's clock.
type Options struct {
	Now    func() time.Time
	Config Config
	Logger zerolog.Logger
}

// Forecaster reads the inventory and its ledger; it only writes back
// through RefreshUsageRates.
type Forecaster struct {
	inv *inventory.Store
	cfg Config
	now func() time.Time
	log zerolog.Logger
}

// New returns a Forecaster over inv.
func New(inv *inventory.Store, opts Options) *Forecaster {
	if opts.Now == nil {
		opts.Now = inv.Now
	}
	return &Forecaster{
		inv: inv,
		cfg: opts.Config.normalize(),
		now: opts.Now,
		log: opts.Logger,
	}
}

// Config returns the effective tuning after normalization.
func (f *Forecaster) Config() Config {
	return f.cfg
}

type usagePoint struct {
	at     time.Time
	amount float64
}

// usageSeries extracts consumption points from an item's ledger entries:
// remove entries and decreasing adjusts. DeductQuantity writes an adjust and
// a remove for the same consumption at the same instant; the adjust of such
// a pair is skipped so the amount counts once.
func usageSeries(txs []model.Transaction) []usagePoint {
	var points []usagePoint
	for i, tx := range txs {
		switch {
		case tx.Type == model.TxRemove:
		case tx.Type == model.TxAdjust && tx.NewQuantity < tx.PreviousQuantity:
			// Using one unit a day via DeductQuantity must read as 1/day, not 2.
			if i+1 < len(txs) && isDeductCompanion(tx, txs[i+1]) {
				continue
			}
		default:
			continue
		}
		points = append(points, usagePoint{at: tx.Timestamp, amount: tx.Quantity})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].at.Before(points[j].at) })
	return points
}

func isDeductCompanion(adjust, next model.Transaction) bool {
	return next.Type == model.TxRemove &&
		next.ItemID == adjust.ItemID &&
		next.Timestamp.Equal(adjust.Timestamp) &&
		next.Quantity == adjust.Quantity
}

// PredictUsage forecasts depletion for one item. It returns false only when
// the item does not exist.
func (f *Forecaster) PredictUsage(id string) (model.UsagePrediction, bool) {
	item, ok := f.inv.Item(id)
	if !ok {
		return model.UsagePrediction{}, false
	}
	points := usageSeries(f.inv.Transactions(id))
	rate, confidence := f.rate(item, points)
	return f.prediction(item, rate, confidence, len(points)), true
}

func (f *Forecaster) rate(item model.InventoryItem, points []usagePoint) (rate, confidence float64) {
	if len(points) < minRegressionPoints {
		rate = item.AvgUsageRate
		if rate <= 0 {
			rate = f.cfg.DefaultUsageRate
		}
		return max(minDailyRate, rate), sparseConfidence
	}

	first := points[0].at
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	amounts := make([]float64, len(points))
	var total float64
	for i, p := range points {
		total += p.amount
		xs[i] = p.at.Sub(first).Hours() / 24
		ys[i] = total
		amounts[i] = p.amount
	}

	fit := LinearRegression(xs, ys)
	rate = math.Abs(fit.Slope)
	confidence = clamp01(fit.R2)

	recent := amounts[max(0, len(amounts)-smoothingWindow):]
	smoothed := ExponentialSmoothing(recent, f.cfg.SmoothingAlpha)
	b := math.Min(1, float64(len(points))/f.cfg.BlendHorizonDays)
	// rate*b + smoothed*(1-b), written so equal inputs blend exactly.
	rate = smoothed + (rate-smoothed)*b

	return max(minDailyRate, rate), confidence
}

func (f *Forecaster) prediction(item model.InventoryItem, rate, confidence float64, points int) model.UsagePrediction {
	now := f.now()
	depletion := now.AddDate(0, 0, int(math.Ceil(item.Quantity/rate)))
	weekly := rate * 7
	return model.UsagePrediction{
		ItemID:                   item.ID,
		ItemName:                 item.Name,
		CurrentQuantity:          item.Quantity,
		PredictedDepletionDate:   depletion,
		ConfidenceScore:          confidence,
		DailyUsageRate:           rate,
		WeeklyUsageRate:          weekly,
		SuggestedReorderDate:     depletion.AddDate(0, 0, -f.cfg.ReorderLeadDays),
		SuggestedReorderQuantity: math.Ceil(weekly * 2),
		HistoricalDataPoints:     points,
	}
}

// PredictAllUsage forecasts every item, soonest depletion first.
func (f *Forecaster) PredictAllUsage() []model.UsagePrediction {
	items := f.inv.Items()
	out := make([]model.UsagePrediction, 0, len(items))
	for _, it := range items {
		p, ok := f.PredictUsage(it.ID)
		if !ok {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PredictedDepletionDate.Before(out[j].PredictedDepletionDate)
	})
	return out
}

// RefreshUsageRates writes regression-backed daily rates back to their
// items and returns how many changed. Items with sparse history keep their
// stored rate.
func (f *Forecaster) RefreshUsageRates(ctx context.Context) int {
	updated := 0
	for _, p := range f.PredictAllUsage() {
		if p.HistoricalDataPoints < minRegressionPoints {
			continue
		}
		item, ok := f.inv.Item(p.ItemID)
		if !ok || math.Abs(item.AvgUsageRate-p.DailyUsageRate) < 1e-9 {
			continue
		}
		rate := p.DailyUsageRate
		if _, ok := f.inv.UpdateItem(ctx, p.ItemID, inventory.ItemUpdate{AvgUsageRate: &rate}); ok {
			updated++
		}
	}
	if updated > 0 {
		f.log.Debug().Int("items", updated).Msg("usage rates refreshed")
	}
	return updated
}

// UsageTrend compares the last seven usage events against the seven before.
func (f *Forecaster) UsageTrend(id string) model.UsageTrend {
	stable := model.UsageTrend{Direction: model.TrendStable}
	points := usageSeries(f.inv.Transactions(id))
	n := len(points)
	if n < trendWindow {
		return stable
	}

	var recent, prior float64
	for _, p := range points[n-trendWindow:] {
		recent += p.amount
	}
	for _, p := range points[max(0, n-2*trendWindow) : n-trendWindow] {
		prior += p.amount
	}
	if prior == 0 {
		return stable
	}

	change := (recent - prior) / prior * 100
	trend := model.UsageTrend{Direction: model.TrendStable, PercentChange: change}
	switch {
	case change > trendThreshold:
		trend.Direction = model.TrendIncreasing
	case change < -trendThreshold:
		trend.Direction = model.TrendDecreasing
	}
	return trend
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}
