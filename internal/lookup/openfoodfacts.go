package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/theirongolddev/larder/internal/model"
)

const (
	// DefaultBaseURL is the public Open Food Facts API.
	DefaultBaseURL = "https://world.openfoodfacts.org"
	defaultTimeout = 10 * time.Second
	userAgent      = "larder/1.0 (github.com/theirongolddev/larder)"
)

// ErrRateLimited indicates the catalog asked us to back off.
var ErrRateLimited = errors.New("lookup: rate limited")

// Fetcher queries a product catalog. found=false with a nil error means the
// catalog has no such product.
type Fetcher interface {
	Fetch(ctx context.Context, barcode string) (p Product, found bool, err error)
}

// ErrDisabled is returned by Disabled for every barcode.
var ErrDisabled = errors.New("lookup: catalog disabled")

// Disabled is the Fetcher used when catalog lookups are turned off. Its
// failures are never cached.
type Disabled struct{}

// Fetch implements Fetcher.
func (Disabled) Fetch(context.Context, string) (Product, bool, error) {
	return Product{}, false, ErrDisabled
}

// OpenFoodFacts fetches products from the Open Food Facts v2 API.
type OpenFoodFacts struct {
	client *resty.Client
}

// NewOpenFoodFacts returns a fetcher against baseURL (DefaultBaseURL when
// empty) with a per-request timeout.
func NewOpenFoodFacts(baseURL string, timeout time.Duration) *OpenFoodFacts {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)
	return &OpenFoodFacts{client: client}
}

type offResponse struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

type offProduct struct {
	ProductName string        `json:"product_name"`
	GenericName string        `json:"generic_name"`
	Brands      string        `json:"brands"`
	Categories  string        `json:"categories"`
	Quantity    string        `json:"quantity"`
	ImageURL    string        `json:"image_url"`
	Nutriments  offNutriments `json:"nutriments"`
}

type offNutriments struct {
	EnergyKcal float64 `json:"energy-kcal_100g"`
	Proteins   float64 `json:"proteins_100g"`
	Carbs      float64 `json:"carbohydrates_100g"`
	Fat        float64 `json:"fat_100g"`
	Sugars     float64 `json:"sugars_100g"`
	Fiber      float64 `json:"fiber_100g"`
	Salt       float64 `json:"salt_100g"`
}

// Fetch implements Fetcher.
func (o *OpenFoodFacts) Fetch(ctx context.Context, barcode string) (Product, bool, error) {
	resp, err := o.client.R().
		SetContext(ctx).
		SetPathParam("code", barcode).
		Get("/api/v2/product/{code}.json")
	if err != nil {
		return Product{}, false, fmt.Errorf("lookup: request failed: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusNotFound:
		return Product{}, false, nil
	case http.StatusTooManyRequests:
		return Product{}, false, ErrRateLimited
	}
	if !resp.IsSuccess() {
		return Product{}, false, fmt.Errorf("lookup: unexpected status %d", resp.StatusCode())
	}
	// The catalog does not always label responses as JSON, so decode by hand.
	var body offResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return Product{}, false, fmt.Errorf("lookup: parsing product: %w", err)
	}
	if body.Status != 1 {
		return Product{}, false, nil
	}
	return body.Product.toProduct(barcode), true, nil
}

func (p offProduct) toProduct(barcode string) Product {
	name := strings.TrimSpace(p.ProductName)
	if name == "" {
		name = strings.TrimSpace(p.GenericName)
	}
	if name == "" {
		name = "Product " + barcode
	}
	brand, _, _ := strings.Cut(p.Brands, ",")
	qty, unit := ParseQuantity(p.Quantity)

	out := Product{
		Barcode:  barcode,
		Name:     name,
		Brand:    strings.TrimSpace(brand),
		Category: MapCategory(p.Categories + " " + name),
		Quantity: qty,
		Unit:     unit,
		ImageURL: p.ImageURL,
	}
	if n := p.Nutriments; n != (offNutriments{}) {
		out.Nutrition = &model.Nutrition{
			Calories: n.EnergyKcal,
			Protein:  n.Proteins,
			Carbs:    n.Carbs,
			Fat:      n.Fat,
			Sugar:    n.Sugars,
			Fiber:    n.Fiber,
			Salt:     n.Salt,
		}
	}
	return out
}
