// Package lookup resolves barcodes to product metadata through a cached,
// deduplicated catalog client.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/theirongolddev/larder/internal/store"
)

const defaultCacheAge = 30 * 24 * time.Hour

// Result is the outcome of a lookup. Failures of any kind read as not found.
type Result struct {
	Barcode string  `json:"barcode"`
	Found   bool    `json:"found"`
	Product Product `json:"product"`
	Cached  bool    `json:"cached"`
}

// Options configures a Service.
type Options struct {
	Now     func() time.Time
	MaxAge  time.Duration // cache staleness; 30 days when zero
	Timeout time.Duration // per-fetch deadline
	Logger  zerolog.Logger
}

type cacheEntry struct {
	Found     bool      `json:"found"`
	Product   Product   `json:"product"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Service memoizes Fetcher results. Concurrent lookups for one barcode share
// a single request.
type Service struct {
	fetcher Fetcher
	storage store.Storage
	group   singleflight.Group

	mu    sync.Mutex
	cache map[string]cacheEntry

	now     func() time.Time
	maxAge  time.Duration
	timeout time.Duration
	log     zerolog.Logger
}

// Open loads the persisted product cache. A missing or corrupt blob starts
// with an empty cache.
func Open(ctx context.Context, storage store.Storage, fetcher Fetcher, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = defaultCacheAge
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	s := &Service{
		fetcher: fetcher,
		storage: storage,
		cache:   make(map[string]cacheEntry),
		now:     opts.Now,
		maxAge:  opts.MaxAge,
		timeout: opts.Timeout,
		log:     opts.Logger,
	}

	data, err := storage.Get(ctx, store.KeyProducts)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		s.log.Error().Err(err).Str("key", store.KeyProducts).Msg("loading product cache failed")
	default:
		if err := json.Unmarshal(data, &s.cache); err != nil {
			s.log.Warn().Err(err).Str("key", store.KeyProducts).Msg("corrupt product cache, starting empty")
			s.cache = make(map[string]cacheEntry)
		}
	}
	return s
}

// Lookup resolves raw (any formatting) to a product.
func (s *Service) Lookup(ctx context.Context, raw string) Result {
	code, ok := NormalizeBarcode(raw)
	if !ok {
		return Result{Barcode: code}
	}

	if e, ok := s.cached(code); ok {
		return Result{Barcode: code, Found: e.Found, Product: e.Product, Cached: true}
	}

	v, err, _ := s.group.Do(code, func() (any, error) {
		// Waiters share this fetch, so it must outlive the first caller.
		shared := context.WithoutCancel(ctx)
		fctx, cancel := context.WithTimeout(shared, s.timeout)
		defer cancel()

		p, found, err := s.fetcher.Fetch(fctx, code)
		if err != nil {
			return nil, err
		}
		e := cacheEntry{Found: found, Product: p, FetchedAt: s.now()}
		s.store(shared, code, e)
		return e, nil
	})
	if err != nil {
		s.log.Warn().Err(err).Str("barcode", code).Msg("product lookup failed")
		return Result{Barcode: code}
	}
	e := v.(cacheEntry)
	return Result{Barcode: code, Found: e.Found, Product: e.Product}
}

func (s *Service) cached(code string) (cacheEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.cache[code]
	if !ok || s.now().Sub(e.FetchedAt) >= s.maxAge {
		return cacheEntry{}, false
	}
	return e, true
}

func (s *Service) store(ctx context.Context, code string, e cacheEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[code] = e

	data, err := json.Marshal(s.cache)
	if err != nil {
		s.log.Error().Err(err).Msg("encoding product cache")
		return
	}
	if err := s.storage.Set(ctx, store.KeyProducts, data); err != nil {
		s.log.Error().Err(err).Str("key", store.KeyProducts).Msg("persisting product cache failed")
	}
}

// CacheLen returns the number of cached barcodes, fresh or stale.
func (s *Service) CacheLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}
