package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukerupert/ostara/internal/domain"
)

const defaultTimeout = 30 * time.Second

// Client implements CartGateway against the storefront REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Config contains configuration for the REST client.
type Config struct {
	// BaseURL is the API root, e.g. "https://shop.example.com".
	BaseURL string

	// BearerToken authenticates cart endpoints. May be empty for a
	// guest-only session; authenticated calls will then fail with
	// EUNAUTHORIZED.
	BearerToken string

	// Timeout bounds each request. Defaults to 30s.
	Timeout time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// NewClient creates a REST cart gateway.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.BearerToken,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Wire types. The backend speaks snake_case JSON.

type remoteLine struct {
	ID             string `json:"id"`
	ProductID      int64  `json:"product_id"`
	ProductName    string `json:"product_name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int32  `json:"quantity"`
}

type fetchCartResponse struct {
	Cart       []remoteLine `json:"cart"`
	TotalCents int64        `json:"total_cents"`
	ItemCount  int32        `json:"item_count"`
}

type addLineRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int32 `json:"quantity"`
}

type updateLineRequest struct {
	Quantity int32 `json:"quantity"`
}

type checkoutRequest struct {
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	ShippingAddress string `json:"shipping_address"`
	PaymentMethod   string `json:"payment_method"`
	Notes           string `json:"notes"`
}

type checkoutResponse struct {
	OrderID    string `json:"order_id"`
	TotalCents int64  `json:"total_cents"`
}

type guestOrderRequest struct {
	Email      string             `json:"email"`
	Phone      string             `json:"phone"`
	Notes      string             `json:"notes"`
	Items      []domain.OrderItem `json:"items"`
	TotalCents int64              `json:"total_cents"`
}

type guestOrderResponse struct {
	Message string `json:"message"`
	OrderID string `json:"order_id"`
}

// errorBody is the shape the backend uses for failure responses. Either
// field may carry the user-facing message.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// FetchCart retrieves the full server-held cart.
func (c *Client) FetchCart(ctx context.Context) (*RemoteCart, error) {
	const op = "gateway.fetch"

	body, err := c.doAuthenticated(ctx, op, http.MethodGet, "/api/cart", nil)
	if err != nil {
		return nil, err
	}

	var resp fetchCartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, domain.WrapError(err, domain.EREJECTED, op, "Cart service returned an unreadable response")
	}

	lines := make([]domain.CartLine, 0, len(resp.Cart))
	for _, rl := range resp.Cart {
		lines = append(lines, domain.CartLine{
			ProductID:      rl.ProductID,
			DisplayName:    rl.ProductName,
			UnitPriceCents: rl.UnitPriceCents,
			Quantity:       rl.Quantity,
			RemoteLineID:   rl.ID,
		})
	}

	return &RemoteCart{
		Lines:      lines,
		TotalCents: resp.TotalCents,
		ItemCount:  resp.ItemCount,
	}, nil
}

// AddLine adds a product to the server-held cart.
func (c *Client) AddLine(ctx context.Context, productID int64, quantity int32) error {
	const op = "gateway.add"

	_, err := c.doAuthenticated(ctx, op, http.MethodPost, "/api/cart/items", addLineRequest{
		ProductID: productID,
		Quantity:  quantity,
	})
	return err
}

// UpdateLine sets the quantity of an existing server-held line.
func (c *Client) UpdateLine(ctx context.Context, lineID string, quantity int32) error {
	const op = "gateway.update"

	if lineID == "" {
		return domain.Invalid(op, "remote line id is required")
	}

	_, err := c.doAuthenticated(ctx, op, http.MethodPut, "/api/cart/items/"+url.PathEscape(lineID), updateLineRequest{
		Quantity: quantity,
	})
	return err
}

// RemoveLine deletes a server-held line.
func (c *Client) RemoveLine(ctx context.Context, lineID string) error {
	const op = "gateway.remove"

	if lineID == "" {
		return domain.Invalid(op, "remote line id is required")
	}

	_, err := c.doAuthenticated(ctx, op, http.MethodDelete, "/api/cart/items/"+url.PathEscape(lineID), nil)
	return err
}

// Checkout converts the server-held cart into an order.
func (c *Client) Checkout(ctx context.Context, contact domain.Contact) (*CheckoutResult, error) {
	const op = "gateway.checkout"

	body, err := c.doAuthenticated(ctx, op, http.MethodPost, "/api/cart/checkout", checkoutRequest{
		Email:           contact.Email,
		Phone:           contact.Phone,
		ShippingAddress: contact.ShippingAddress,
		PaymentMethod:   contact.PaymentMethod,
		Notes:           contact.Notes,
	})
	if err != nil {
		return nil, err
	}

	var resp checkoutResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, domain.WrapError(err, domain.EREJECTED, op, "Checkout service returned an unreadable response")
	}

	return &CheckoutResult{
		OrderID:    resp.OrderID,
		TotalCents: resp.TotalCents,
	}, nil
}

// SubmitGuestOrder posts a client-assembled draft to the guest endpoint.
func (c *Client) SubmitGuestOrder(ctx context.Context, draft domain.OrderDraft) (*GuestOrderResult, error) {
	const op = "gateway.guest_order"

	body, err := c.do(ctx, op, http.MethodPost, "/api/orders/guest", guestOrderRequest{
		Email:      draft.Contact.Email,
		Phone:      draft.Contact.Phone,
		Notes:      draft.Contact.Notes,
		Items:      draft.Items,
		TotalCents: draft.TotalCents,
	}, false)
	if err != nil {
		return nil, err
	}

	var resp guestOrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, domain.WrapError(err, domain.EREJECTED, op, "Order service returned an unreadable response")
	}

	return &GuestOrderResult{
		OrderID: resp.OrderID,
		Message: resp.Message,
	}, nil
}

// doAuthenticated runs a request that requires the bearer credential.
// Its absence is a programming-contract violation: the orchestrator must
// never route a guest session here.
func (c *Client) doAuthenticated(ctx context.Context, op, method, path string, payload interface{}) ([]byte, error) {
	if c.token == "" {
		return nil, domain.Unauthorized(op, "bearer credential required")
	}
	return c.do(ctx, op, method, path, payload, true)
}

func (c *Client) do(ctx context.Context, op, method, path string, payload interface{}, authed bool) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to encode request")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to build request")
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("cart request failed", "op", op, "method", method, "path", path, "error", err)
		return nil, domain.WrapError(err, domain.ENETWORK, op, "Could not reach the store. Check your connection and try again.")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WrapError(err, domain.ENETWORK, op, "Could not reach the store. Check your connection and try again.")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := serverMessage(body)
		c.logger.Warn("cart request rejected", "op", op, "status", resp.StatusCode, "message", msg)
		return nil, &domain.Error{
			Code:    domain.EREJECTED,
			Op:      op,
			Message: msg,
		}
	}

	return body, nil
}

// serverMessage extracts the server-provided message from a failure body,
// falling back to a generic one.
func serverMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Error != "" {
			return eb.Error
		}
	}
	return "The store rejected the request. Please try again."
}
