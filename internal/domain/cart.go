package domain

// Cart domain errors.
var (
	ErrInvalidQuantity = &Error{Code: EINVALID, Message: "Quantity must be greater than 0"}
	ErrCartNotReady    = &Error{Code: EINVALID, Message: "Cart has not finished loading"}
	ErrLinePending     = &Error{Code: EINVALID, Message: "Cart line is still syncing, try again"}
	ErrEmptyCart       = &Error{Code: EINVALID, Message: "Cart is empty"}
)

// Mode identifies which backing store holds the authoritative cart.
// It is decided once at session bootstrap and never re-evaluated per
// operation, so a mutation cannot observe a mid-flight mode flip.
type Mode string

const (
	// ModeGuest keeps the cart in a local snapshot only.
	ModeGuest Mode = "guest"

	// ModeAuthenticated defers to the server-held cart.
	ModeAuthenticated Mode = "authenticated"
)

// Product is the validated input shape for adding a line to the cart.
type Product struct {
	ID             int64
	Name           string
	UnitPriceCents int64
}

// CartLine represents one product's presence in the cart.
// Name and price are snapshots captured at add time, not re-fetched per read.
type CartLine struct {
	ProductID      int64  `json:"product_id"`
	DisplayName    string `json:"display_name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int32  `json:"quantity"`

	// RemoteLineID identifies this line in the server-held cart.
	// Empty for guest carts and for lines whose remote add has not
	// completed yet.
	RemoteLineID string `json:"remote_line_id,omitempty"`
}

// SubtotalCents returns the line subtotal.
func (l CartLine) SubtotalCents() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}

// Committed reports whether the line is backed by the remote store.
// Only meaningful in authenticated mode.
func (l CartLine) Committed() bool {
	return l.RemoteLineID != ""
}

// NewCartLine validates a product payload and quantity and builds a typed
// CartLine. Partially-formed payloads never reach the cart: a bad shape is
// rejected here with an EINVALID error.
func NewCartLine(p Product, quantity int32) (CartLine, error) {
	const op = "cart.line"

	if p.ID <= 0 {
		return CartLine{}, Invalid(op, "product id must be positive")
	}
	if p.Name == "" {
		return CartLine{}, Invalid(op, "product name is required")
	}
	if p.UnitPriceCents < 0 {
		return CartLine{}, Invalid(op, "unit price cannot be negative")
	}
	if quantity < 1 {
		return CartLine{}, ErrInvalidQuantity
	}

	return CartLine{
		ProductID:      p.ID,
		DisplayName:    p.Name,
		UnitPriceCents: p.UnitPriceCents,
		Quantity:       quantity,
	}, nil
}

// CartState aggregates the in-memory cart.
// Lines preserve insertion order for stable UI rendering; order is
// irrelevant to total computation.
type CartState struct {
	Lines []CartLine
	Mode  Mode
}

// TotalCents returns the sum of unit price times quantity over all lines.
func (s CartState) TotalCents() int64 {
	var total int64
	for _, l := range s.Lines {
		total += l.SubtotalCents()
	}
	return total
}

// ItemCount returns the sum of quantities over all lines.
func (s CartState) ItemCount() int32 {
	var count int32
	for _, l := range s.Lines {
		count += l.Quantity
	}
	return count
}

// FindLine returns the index of the line for productID, or -1.
func (s CartState) FindLine(productID int64) int {
	for i, l := range s.Lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// CloneLines returns a copy of the lines slice safe to hand to callers.
func (s CartState) CloneLines() []CartLine {
	if s.Lines == nil {
		return nil
	}
	out := make([]CartLine, len(s.Lines))
	copy(out, s.Lines)
	return out
}
