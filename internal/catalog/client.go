// Package catalog reads the salon's bookable services from the Shopify
// product catalog. A product is a service; its variants carry the
// bookable durations and prices.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/walid-afk/salon-scheduler/pkg/logging"
)

const (
	defaultAPIVersion = "2024-01"
	defaultTimeout    = 15 * time.Second
)

// ErrUnknownVariant means a requested variant is not in the catalog.
var ErrUnknownVariant = errors.New("catalog: unknown variant")

// durationPattern extracts the minutes encoded in a variant title, e.g.
// "Brushing - 30 min".
var durationPattern = regexp.MustCompile(`(\d+)\s*min`)

// Variant is one bookable option of a service.
type Variant struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Price       string `json:"price"`
	DurationMin int    `json:"durationMin"`
}

// Service is a bookable salon service.
type Service struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Variants []Variant `json:"variants"`
}

// API is the catalog surface the rest of the system consumes.
type API interface {
	ListServices(ctx context.Context) ([]Service, error)
}

// Client talks to the Shopify Admin REST API.
type Client struct {
	baseURL    string
	token      string
	apiVersion string
	httpClient *http.Client
	logger     *logging.Logger
}

// ClientConfig wires a Client. BaseURL overrides the shop domain for
// tests; normally it is derived from ShopDomain.
type ClientConfig struct {
	ShopDomain  string
	AccessToken string
	APIVersion  string
	BaseURL     string
	Logger      *logging.Logger
}

// NewClient creates a Shopify Admin API client.
func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	version := cfg.APIVersion
	if version == "" {
		version = defaultAPIVersion
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://" + cfg.ShopDomain
	}
	return &Client{
		baseURL:    baseURL,
		token:      cfg.AccessToken,
		apiVersion: version,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
}

type productsResponse struct {
	Products []struct {
		ID       int64  `json:"id"`
		Title    string `json:"title"`
		Variants []struct {
			ID    int64  `json:"id"`
			Title string `json:"title"`
			Price string `json:"price"`
		} `json:"variants"`
	} `json:"products"`
}

// ListServices fetches the service products and derives each variant's
// duration from its title. Variants without a recognizable duration are
// kept with DurationMin 0; duration resolution rejects them later.
func (c *Client) ListServices(ctx context.Context) ([]Service, error) {
	url := fmt.Sprintf("%s/admin/api/%s/products.json?product_type=Service&limit=250", c.baseURL, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.token)
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch products: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog: products request returned status %d", res.StatusCode)
	}

	var body productsResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("catalog: decode products: %w", err)
	}

	services := make([]Service, 0, len(body.Products))
	for _, p := range body.Products {
		svc := Service{ID: p.ID, Title: p.Title}
		for _, v := range p.Variants {
			svc.Variants = append(svc.Variants, Variant{
				ID:          v.ID,
				Title:       v.Title,
				Price:       v.Price,
				DurationMin: parseDuration(v.Title),
			})
		}
		services = append(services, svc)
	}
	return services, nil
}

func parseDuration(title string) int {
	m := durationPattern.FindStringSubmatch(title)
	if m == nil {
		return 0
	}
	minutes, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return minutes
}

// ResolveDuration sums the durations of the given variants using the
// provided API (usually the cached catalog). Unknown variants and
// variants without a duration are rejected.
func ResolveDuration(ctx context.Context, api API, variantIDs []int64) (int, error) {
	if len(variantIDs) == 0 {
		return 0, errors.New("catalog: no variants requested")
	}
	services, err := api.ListServices(ctx)
	if err != nil {
		return 0, err
	}

	durations := make(map[int64]int)
	for _, svc := range services {
		for _, v := range svc.Variants {
			durations[v.ID] = v.DurationMin
		}
	}

	total := 0
	for _, id := range variantIDs {
		minutes, ok := durations[id]
		if !ok {
			return 0, fmt.Errorf("%w: %d", ErrUnknownVariant, id)
		}
		if minutes <= 0 {
			return 0, fmt.Errorf("%w: variant %d has no duration", ErrUnknownVariant, id)
		}
		total += minutes
	}
	return total, nil
}
