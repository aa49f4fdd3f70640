package domain

// Contact carries the customer-provided fields for an order.
// Email and phone are required; the rest is passed through untouched.
type Contact struct {
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required,min=7,max=20"`
	ShippingAddress string `json:"shipping_address,omitempty" validate:"omitempty,max=500"`
	PaymentMethod   string `json:"payment_method,omitempty" validate:"omitempty,max=50"`
	Notes           string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// OrderItem is a snapshot of one cart line at submission time.
// PriceCents and SubtotalCents are only populated on the guest path,
// where no server-side price lookup occurs.
type OrderItem struct {
	ProductID     int64  `json:"product_id"`
	ProductName   string `json:"product_name"`
	Quantity      int32  `json:"quantity"`
	PriceCents    int64  `json:"price_cents"`
	SubtotalCents int64  `json:"subtotal_cents"`
}

// OrderDraft is the assembled payload for the guest submission endpoint.
// TotalCents is computed client-side; the authenticated path never builds
// a draft because the server already holds the cart.
type OrderDraft struct {
	Contact    Contact     `json:"contact"`
	Items      []OrderItem `json:"items"`
	TotalCents int64       `json:"total_cents"`
}

// BuildGuestDraft snapshots the given lines into an OrderDraft with
// client-computed subtotals and total.
func BuildGuestDraft(contact Contact, lines []CartLine) OrderDraft {
	items := make([]OrderItem, 0, len(lines))
	var total int64
	for _, l := range lines {
		sub := l.SubtotalCents()
		total += sub
		items = append(items, OrderItem{
			ProductID:     l.ProductID,
			ProductName:   l.DisplayName,
			Quantity:      l.Quantity,
			PriceCents:    l.UnitPriceCents,
			SubtotalCents: sub,
		})
	}

	return OrderDraft{
		Contact:    contact,
		Items:      items,
		TotalCents: total,
	}
}

// OrderConfirmation is the outcome of a successful submission.
// On the authenticated path TotalCents is the server's authoritative
// charged amount, not a client-side computation.
type OrderConfirmation struct {
	OrderID    string
	TotalCents int64
	Message    string
}
