package lookup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/larder/internal/model"
	"github.com/theirongolddev/larder/internal/store"
)

var epoch = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

type countingFetcher struct {
	calls   atomic.Int32
	found   bool
	err     error
	release chan struct{}
}

func (f *countingFetcher) Fetch(ctx context.Context, code string) (Product, bool, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return Product{}, false, f.err
	}
	return Product{Barcode: code, Name: "Oat milk"}, f.found, nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestLookup_CachesForThirtyDays(t *testing.T) {
	clk := &fakeClock{t: epoch}
	f := &countingFetcher{found: true}
	svc := Open(context.Background(), store.NewMemory(), f, Options{Now: clk.Now})
	ctx := context.Background()

	first := svc.Lookup(ctx, "7394376616501")
	require.True(t, first.Found)
	assert.False(t, first.Cached)
	assert.Equal(t, "Oat milk", first.Product.Name)

	clk.t = epoch.Add(29 * 24 * time.Hour)
	second := svc.Lookup(ctx, "7394-3766-16501")
	assert.True(t, second.Cached)
	assert.Equal(t, int32(1), f.calls.Load())

	clk.t = epoch.Add(30 * 24 * time.Hour)
	third := svc.Lookup(ctx, "7394376616501")
	assert.False(t, third.Cached)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestLookup_NotFoundIsCached(t *testing.T) {
	f := &countingFetcher{found: false}
	svc := Open(context.Background(), store.NewMemory(), f, Options{Now: (&fakeClock{t: epoch}).Now})

	assert.False(t, svc.Lookup(context.Background(), "00000000").Found)
	res := svc.Lookup(context.Background(), "00000000")
	assert.False(t, res.Found)
	assert.True(t, res.Cached)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestLookup_FailuresReadAsNotFound(t *testing.T) {
	f := &countingFetcher{err: errors.New("boom")}
	svc := Open(context.Background(), store.NewMemory(), f, Options{})

	assert.Equal(t, Result{Barcode: "12345678"}, svc.Lookup(context.Background(), "12345678"))
	svc.Lookup(context.Background(), "12345678")
	assert.Equal(t, int32(2), f.calls.Load(), "errors are not cached")
	assert.Equal(t, 0, svc.CacheLen())
}

func TestLookup_DisabledCatalog(t *testing.T) {
	svc := Open(context.Background(), store.NewMemory(), Disabled{}, Options{})

	res := svc.Lookup(context.Background(), "12345678")
	assert.False(t, res.Found)
	assert.Equal(t, 0, svc.CacheLen())
}

func TestLookup_InvalidBarcodeSkipsFetch(t *testing.T) {
	f := &countingFetcher{found: true}
	svc := Open(context.Background(), store.NewMemory(), f, Options{})

	res := svc.Lookup(context.Background(), "12-34")
	assert.False(t, res.Found)
	assert.Equal(t, int32(0), f.calls.Load())
}

func TestLookup_ConcurrentCallsShareOneFetch(t *testing.T) {
	f := &countingFetcher{found: true, release: make(chan struct{})}
	svc := Open(context.Background(), store.NewMemory(), f, Options{})

	const n = 8
	var wg sync.WaitGroup
	results := make([]Result, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.Lookup(context.Background(), "40084015")
		}(i)
	}

	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(f.release)
	wg.Wait()

	assert.Equal(t, int32(1), f.calls.Load())
	for _, r := range results {
		assert.True(t, r.Found)
	}
}

func TestOpen_PersistedCache(t *testing.T) {
	mem := store.NewMemory()
	clk := &fakeClock{t: epoch}
	f := &countingFetcher{found: true}
	Open(context.Background(), mem, f, Options{Now: clk.Now}).Lookup(context.Background(), "87654321")

	again := Open(context.Background(), mem, f, Options{Now: clk.Now})
	assert.True(t, again.Lookup(context.Background(), "87654321").Cached)
	assert.Equal(t, int32(1), f.calls.Load())

	require.NoError(t, mem.Set(context.Background(), store.KeyProducts, []byte("nope")))
	assert.Equal(t, 0, Open(context.Background(), mem, f, Options{}).CacheLen())
}

func TestOpenFoodFacts_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v2/product/3017620422003.json":
			_, _ = w.Write([]byte(`{"status":1,"product":{
				"product_name":"Nutella","brands":"Ferrero, Nutella",
				"categories":"Spreads, Sweet spreads, Cocoa and hazelnuts spreads, Chocolate spreads",
				"quantity":"400 g","image_url":"https://img/nutella.jpg",
				"nutriments":{"energy-kcal_100g":539,"proteins_100g":6.3,"carbohydrates_100g":57.5,"fat_100g":30.9,"sugars_100g":56.3}}}`))
		case "/api/v2/product/11111111.json":
			_, _ = w.Write([]byte(`{"status":0,"status_verbose":"product not found"}`))
		case "/api/v2/product/22222222.json":
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	off := NewOpenFoodFacts(srv.URL, time.Second)
	ctx := context.Background()

	p, found, err := off.Fetch(ctx, "3017620422003")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Nutella", p.Name)
	assert.Equal(t, "Ferrero", p.Brand)
	assert.Equal(t, model.CategorySnacks, p.Category)
	assert.Equal(t, 400.0, p.Quantity)
	assert.Equal(t, "g", p.Unit)
	require.NotNil(t, p.Nutrition)
	assert.Equal(t, 539.0, p.Nutrition.Calories)

	_, found, err = off.Fetch(ctx, "11111111")
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = off.Fetch(ctx, "22222222")
	assert.ErrorIs(t, err, ErrRateLimited)

	_, _, err = off.Fetch(ctx, "99999999")
	assert.Error(t, err)
}

func TestOpenFoodFacts_ThroughService(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"status":1,"product":{"product_name":"Greek yogurt","categories":"Dairies, Yogurts","quantity":"4 x 125 g"}}`))
	}))
	defer srv.Close()

	svc := Open(context.Background(), store.NewMemory(), NewOpenFoodFacts(srv.URL, time.Second), Options{})
	res := svc.Lookup(context.Background(), "3033490004743")
	require.True(t, res.Found)
	assert.Equal(t, model.CategoryDairy, res.Product.Category)
	assert.Equal(t, 4.0, res.Product.Quantity)
	svc.Lookup(context.Background(), "3033490004743")
	assert.Equal(t, int32(1), hits.Load())
}
