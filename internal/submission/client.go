package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/tillworks/tillpoint-backend/pkg/errors"
)

const errorBodyReadLimit int64 = 2048

// OrderItem is one product line in the submitted payload, expressed in
// base units.
type OrderItem struct {
	ProductID int64           `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderPayment is one settled payment allocation.
type OrderPayment struct {
	PaymentMethodID int64           `json:"payment_method_id"`
	Amount          decimal.Decimal `json:"amount"`
	ReferenceID     string          `json:"reference_id,omitempty"`
}

// OrderCharge is one non-product fee allocation.
type OrderCharge struct {
	OtherChargeID int64           `json:"other_charge_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// OrderPayload is the order-creation request body.
type OrderPayload struct {
	Items          []OrderItem     `json:"items"`
	CustomerID     *int64          `json:"customer_id,omitempty"`
	CarGateID      *int64          `json:"car_gate_id,omitempty"`
	Remark         string          `json:"remark,omitempty"`
	Payments       []OrderPayment  `json:"payment"`
	OtherCharges   []OrderCharge   `json:"other_charges,omitempty"`
	GlobalDiscount decimal.Decimal `json:"global_discount"`
	SaleContext    string          `json:"sale_context"`
}

// Client wraps the back-office order API.
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

// NewClient builds the order submission client.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orders base URL is required")
	}
	client := &Client{
		baseURL:    trimmed,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type orderResponse struct {
	IsSuccess  bool   `json:"isSuccess"`
	OrderID    int64  `json:"order_id"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Detail     string `json:"detail"`
}

// CreateOrder submits the composed order and returns the created id.
func (c *Client) CreateOrder(ctx context.Context, payload OrderPayload) (int64, error) {
	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", payload, &resp); err != nil {
		return 0, err
	}
	if !resp.IsSuccess {
		return 0, remoteRejection("order creation rejected", resp)
	}
	return resp.OrderID, nil
}

// UpdateOrder replaces a created order's composition.
func (c *Client) UpdateOrder(ctx context.Context, orderID int64, payload OrderPayload) error {
	var resp orderResponse
	path := fmt.Sprintf("/orders/%d", orderID)
	if err := c.do(ctx, http.MethodPut, path, payload, &resp); err != nil {
		return err
	}
	if !resp.IsSuccess {
		return remoteRejection("order update rejected", resp)
	}
	return nil
}

// ConfirmOrder transitions a created order to confirmed.
func (c *Client) ConfirmOrder(ctx context.Context, orderID int64) error {
	var resp orderResponse
	path := fmt.Sprintf("/orders/%d/confirm", orderID)
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return err
	}
	if !resp.IsSuccess {
		return remoteRejection("order confirm rejected", resp)
	}
	return nil
}

// CancelOrder voids a created order.
func (c *Client) CancelOrder(ctx context.Context, orderID int64) error {
	var resp orderResponse
	path := fmt.Sprintf("/orders/%d/cancel", orderID)
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return err
	}
	if !resp.IsSuccess {
		return remoteRejection("order cancel rejected", resp)
	}
	return nil
}

func remoteRejection(msg string, resp orderResponse) error {
	detail := resp.Message
	if resp.Detail != "" {
		detail = detail + ": " + resp.Detail
	}
	return pkgerrors.New(pkgerrors.CodeDependency, msg).WithDetails(detail)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "orders client not configured")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal order request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build order request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute order request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return pkgerrors.Wrap(
			pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"order request failed",
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order response")
	}
	return nil
}
