package openfoodfacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"food-expose-backend/internal/domain"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	maxProductBody = 4 << 20
	maxImageBody   = 8 << 20
)

// Config configures the Open Food Facts client.
type Config struct {
	BaseURL       string
	UserAgent     string
	RatePerMinute int
	// Timeout bounds a whole request. Zero means no timeout.
	Timeout time.Duration
}

// Client reads products from the Open Food Facts v2 API.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

func NewClient(cfg Config) *Client {
	limit := rate.Inf
	burst := 1
	if cfg.RatePerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RatePerMinute))
		burst = cfg.RatePerMinute
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(limit, burst),
	}
}

var (
	_ domain.NutritionLookup = (*Client)(nil)
	_ domain.ImageFetcher    = (*Client)(nil)
)

// Lookup fetches barcode. Missing products yield domain.ErrProductNotFound;
// anything else that goes wrong yields a *domain.TransportError. No retries.
func (c *Client) Lookup(ctx context.Context, barcode string) (*domain.ProductRecord, error) {
	endpoint := fmt.Sprintf("%s/api/v2/product/%s.json", c.baseURL, url.PathEscape(barcode))

	body, status, err := c.get(ctx, endpoint, maxProductBody)
	if err != nil {
		return nil, &domain.TransportError{Barcode: barcode, StatusCode: status, Err: err}
	}
	// Unknown barcodes come back as 404 with a regular status:0 payload.
	if status != http.StatusNotFound && (status < 200 || status > 299) {
		return nil, &domain.TransportError{Barcode: barcode, StatusCode: status, Err: errors.New(http.StatusText(status))}
	}
	if !gjson.ValidBytes(body) {
		return nil, &domain.TransportError{Barcode: barcode, StatusCode: status, Err: errors.New("invalid JSON payload")}
	}

	return ParseProduct(barcode, body)
}

// ParseProduct maps a v2 product payload to a record, filling placeholders and
// zeroes for missing fields.
func ParseProduct(barcode string, body []byte) (*domain.ProductRecord, error) {
	doc := gjson.ParseBytes(body)

	product := doc.Get("product")
	if doc.Get("status").Int() != 1 || !product.IsObject() {
		return nil, domain.ErrProductNotFound
	}

	nutriments := product.Get("nutriments")
	record := &domain.ProductRecord{
		Barcode:      barcode,
		Name:         orDefault(product.Get("product_name").String(), domain.ProductNamePlaceholder),
		Brand:        orDefault(product.Get("brands").String(), domain.ProductBrandPlaceholder),
		CaloriesKcal: nutriments.Get("energy-kcal").Float(),
		ProteinG:     nutriments.Get("proteins").Float(),
		CarbsG:       nutriments.Get("carbohydrates").Float(),
		FatG:         nutriments.Get("fat").Float(),
		FiberG:       nutriments.Get("fiber").Float(),
		SugarG:       nutriments.Get("sugars").Float(),
		SaltG:        nutriments.Get("salt").Float(),
	}
	if img := product.Get("image_url").String(); img != "" {
		record.ImageURL = &img
	}

	return record, nil
}

// FetchImage downloads a product image.
func (c *Client) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	body, status, err := c.get(ctx, imageURL, maxImageBody)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("image fetch: unexpected status %d", status)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, endpoint string, limit int64) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
