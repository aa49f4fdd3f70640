// Package gateway translates cart intents into REST calls against the
// storefront backend. Authenticated endpoints require a bearer credential;
// the orchestrator must never reach them in guest mode.
package gateway

import (
	"context"

	"github.com/dukerupert/ostara/internal/domain"
)

// RemoteCart is the server's view of an authenticated cart.
// Every line carries its remote line ID for later update/delete calls.
type RemoteCart struct {
	Lines      []domain.CartLine
	TotalCents int64
	ItemCount  int32
}

// CheckoutResult carries the server-authoritative outcome of checkout.
// The server, not the client, is the source of truth for the charged total.
type CheckoutResult struct {
	OrderID    string
	TotalCents int64
}

// GuestOrderResult is the response from the unauthenticated submission
// endpoint.
type GuestOrderResult struct {
	OrderID string
	Message string
}

// CartGateway is the remote cart and order API consumed by the
// orchestrator and the submission pipeline.
type CartGateway interface {
	// FetchCart retrieves the full server-held cart.
	FetchCart(ctx context.Context) (*RemoteCart, error)

	// AddLine adds a product to the server-held cart.
	AddLine(ctx context.Context, productID int64, quantity int32) error

	// UpdateLine sets the quantity of an existing server-held line.
	UpdateLine(ctx context.Context, lineID string, quantity int32) error

	// RemoveLine deletes a server-held line.
	RemoveLine(ctx context.Context, lineID string) error

	// Checkout converts the server-held cart into an order. Only contact
	// and shipping fields travel; the server already knows the items.
	Checkout(ctx context.Context, contact domain.Contact) (*CheckoutResult, error)

	// SubmitGuestOrder posts a fully client-assembled draft to the guest
	// endpoint. No credential is required.
	SubmitGuestOrder(ctx context.Context, draft domain.OrderDraft) (*GuestOrderResult, error)
}
