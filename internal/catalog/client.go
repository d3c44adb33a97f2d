package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tillworks/tillpoint-backend/internal/pos"
	"github.com/tillworks/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillworks/tillpoint-backend/pkg/errors"
)

const errorBodyReadLimit int64 = 1024

// Client wraps the back-office catalog API consumed by terminals.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the catalog client for a back-office base URL.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog base URL is required")
	}

	client := &Client{
		baseURL:    trimmed,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// OtherChargeType is a configured non-product fee.
type OtherChargeType struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	DefaultAmount decimal.Decimal `json:"default_amount"`
}

// PaymentMethodDef is a configured payment method. At most one method
// carries the change-absorber role.
type PaymentMethodDef struct {
	ID   int64             `json:"id"`
	Name string            `json:"name"`
	Role enums.PaymentRole `json:"role"`
}

// CarGate is a configured dispatch gate.
type CarGate struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Products fetches the full product list, including unit conversions.
func (c *Client) Products(ctx context.Context) ([]pos.Product, error) {
	var out []pos.Product
	if err := c.get(ctx, "/products", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Customers fetches customers matching the optional search term.
func (c *Client) Customers(ctx context.Context, search string) ([]pos.CustomerRef, error) {
	path := "/customers"
	if s := strings.TrimSpace(search); s != "" {
		query := url.Values{}
		query.Set("search", s)
		path += "?" + query.Encode()
	}
	var out []pos.CustomerRef
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OtherChargeTypes fetches the configured fee types.
func (c *Client) OtherChargeTypes(ctx context.Context) ([]OtherChargeType, error) {
	var out []OtherChargeType
	if err := c.get(ctx, "/other-charges", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PaymentMethods fetches the configured payment methods.
func (c *Client) PaymentMethods(ctx context.Context) ([]PaymentMethodDef, error) {
	var out []PaymentMethodDef
	if err := c.get(ctx, "/payment-methods", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CarGates fetches the configured dispatch gates.
func (c *Client) CarGates(ctx context.Context) ([]CarGate, error) {
	var out []CarGate
	if err := c.get(ctx, "/car-gates", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "catalog client not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build catalog request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute catalog request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return pkgerrors.Wrap(
			pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"catalog request failed",
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode catalog response")
	}
	return nil
}
