// Package order builds the final submission payload and routes it to the
// guest or authenticated endpoint. It owns the cart-clearing decision:
// the cart is emptied only after a confirmed success, never before.
package order

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/ostara/internal/cart"
	"github.com/dukerupert/ostara/internal/domain"
	"github.com/dukerupert/ostara/internal/gateway"
	"github.com/dukerupert/ostara/internal/telemetry"
)

// Pipeline submits orders for the session's cart.
type Pipeline struct {
	cart     *cart.Orchestrator
	gw       gateway.CartGateway
	validate *validator.Validate
	logger   *slog.Logger
	metrics  *telemetry.Metrics
}

// NewPipeline creates an order submission pipeline. metrics may be nil.
func NewPipeline(c *cart.Orchestrator, gw gateway.CartGateway, logger *slog.Logger, metrics *telemetry.Metrics) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		cart:     c,
		gw:       gw,
		validate: validator.New(),
		logger:   logger,
		metrics:  metrics,
	}
}

// Submit validates the contact, routes the order down the correct path
// and clears the cart on confirmed success. A failed submission leaves
// the cart fully intact for retry, and the server's message is surfaced
// verbatim when present.
func (p *Pipeline) Submit(ctx context.Context, contact domain.Contact) (*domain.OrderConfirmation, error) {
	const op = "order.submit"

	if err := p.validateContact(op, contact); err != nil {
		p.recordFailure(err)
		return nil, err
	}

	lines := p.cart.Lines()
	if len(lines) == 0 {
		p.recordFailure(domain.ErrEmptyCart)
		return nil, domain.ErrEmptyCart
	}

	var (
		conf *domain.OrderConfirmation
		err  error
	)
	switch p.cart.Mode() {
	case domain.ModeAuthenticated:
		conf, err = p.submitAuthenticated(ctx, contact)
	default:
		conf, err = p.submitGuest(ctx, contact, lines)
	}
	if err != nil {
		p.recordFailure(err)
		return nil, err
	}

	// Only a confirmed success empties the cart.
	if clearErr := p.cart.Clear(ctx); clearErr != nil {
		p.logger.Warn("order submitted but cart clear failed", "order_id", conf.OrderID, "error", clearErr)
	}

	p.logger.Info("order submitted", "order_id", conf.OrderID, "total_cents", conf.TotalCents, "mode", p.cart.Mode())
	if p.metrics != nil {
		mode := string(p.cart.Mode())
		p.metrics.OrdersSubmitted.WithLabelValues(mode).Inc()
		p.metrics.OrderValue.WithLabelValues(mode).Observe(float64(conf.TotalCents))
	}

	return conf, nil
}

// submitGuest assembles the full draft with captured prices and a
// client-computed total; no server-side price lookup occurs on this path.
func (p *Pipeline) submitGuest(ctx context.Context, contact domain.Contact, lines []domain.CartLine) (*domain.OrderConfirmation, error) {
	draft := domain.BuildGuestDraft(contact, lines)

	result, err := p.gw.SubmitGuestOrder(ctx, draft)
	if err != nil {
		return nil, err
	}

	return &domain.OrderConfirmation{
		OrderID:    result.OrderID,
		TotalCents: draft.TotalCents,
		Message:    result.Message,
	}, nil
}

// submitAuthenticated posts contact fields only; the server already holds
// the cart and computes the authoritative total.
func (p *Pipeline) submitAuthenticated(ctx context.Context, contact domain.Contact) (*domain.OrderConfirmation, error) {
	result, err := p.gw.Checkout(ctx, contact)
	if err != nil {
		return nil, err
	}

	return &domain.OrderConfirmation{
		OrderID:    result.OrderID,
		TotalCents: result.TotalCents,
	}, nil
}

// validateContact converts validator failures into field-level domain
// validation errors.
func (p *Pipeline) validateContact(op string, contact domain.Contact) error {
	err := p.validate.Struct(contact)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Internal(err, op, "contact validation failed")
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field())] = fieldMessage(fe)
	}

	return &domain.ValidationError{Op: op, Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return "Too short"
	case "max":
		return "Too long"
	default:
		return "Invalid value"
	}
}

func (p *Pipeline) recordFailure(err error) {
	code := domain.ErrorCode(err)
	if domain.IsValidationError(err) {
		code = domain.EINVALID
	}

	p.logger.Warn("order submission failed", "code", code, "error", err)
	if p.metrics != nil {
		p.metrics.OrderFailures.WithLabelValues(string(p.cart.Mode()), code).Inc()
	}
}
