// Package cart owns the in-memory cart state and mediates every mutation.
// Operations are served locally or remotely depending on the session mode
// decided at bootstrap, and a failed mutation always leaves the previous
// lines untouched.
package cart

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/dukerupert/ostara/internal/auth"
	"github.com/dukerupert/ostara/internal/cartstore"
	"github.com/dukerupert/ostara/internal/domain"
	"github.com/dukerupert/ostara/internal/gateway"
	"github.com/dukerupert/ostara/internal/telemetry"
)

// Phase is the orchestrator lifecycle state.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseBootstrapping
	PhaseReady
)

// lineLock serializes operations on a single product line. Operations on
// different products proceed concurrently; two quantity changes on the
// same line apply in sequence, so the last user intent wins instead of
// racing to a stale overwrite.
type lineLock struct {
	mu   sync.Mutex
	refs int
}

// Orchestrator is the single source of truth for cart contents.
// All mutation flows through its methods; no other component touches the
// line slice. Every error returned from a public method is a domain error
// safe to render with domain.ErrorMessage — nothing panics across this
// boundary.
type Orchestrator struct {
	store   cartstore.Store
	gw      gateway.CartGateway
	cred    auth.Credential
	logger  *slog.Logger
	metrics *telemetry.Metrics

	mu        sync.Mutex
	state     domain.CartState
	phase     Phase
	lineLocks map[int64]*lineLock
	inFlight  map[int64]string

	// refreshMu makes fetch-and-assign of the authoritative cart atomic,
	// so a slow refetch cannot clobber the result of a later one.
	refreshMu sync.Mutex
}

// New creates an orchestrator. metrics may be nil.
func New(store cartstore.Store, gw gateway.CartGateway, cred auth.Credential, logger *slog.Logger, metrics *telemetry.Metrics) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		store:     store,
		gw:        gw,
		cred:      cred,
		logger:    logger,
		metrics:   metrics,
		lineLocks: make(map[int64]*lineLock),
		inFlight:  make(map[int64]string),
	}
}

// Bootstrap runs once at session start and decides the mode.
//
// With a credential the cart is authenticated and populated from the
// remote store; a stale guest snapshot on disk is ignored entirely.
// Without one the cart is guest and loaded from the snapshot, where
// missing or corrupt data yields an empty cart, never an error.
func (o *Orchestrator) Bootstrap(ctx context.Context) error {
	const op = "cart.bootstrap"

	o.mu.Lock()
	if o.phase != PhaseUninitialized {
		o.mu.Unlock()
		return domain.Invalid(op, "cart already bootstrapped")
	}
	o.phase = PhaseBootstrapping
	o.mu.Unlock()

	if o.cred.Present() {
		remote, err := o.gw.FetchCart(ctx)
		if err != nil {
			o.mu.Lock()
			o.phase = PhaseUninitialized
			o.mu.Unlock()
			o.logger.Error("authenticated bootstrap failed", "error", err)
			return err
		}

		o.mu.Lock()
		o.state = domain.CartState{Lines: remote.Lines, Mode: domain.ModeAuthenticated}
		o.phase = PhaseReady
		o.mu.Unlock()
		o.logger.Info("cart bootstrapped", "mode", domain.ModeAuthenticated, "lines", len(remote.Lines))
		return nil
	}

	lines, err := o.store.Load(ctx)
	if err != nil {
		// Storage trouble never blocks a guest session; start empty.
		o.logger.Warn("snapshot unavailable, starting with empty cart", "error", err)
		lines = nil
	}

	o.mu.Lock()
	o.state = domain.CartState{Lines: lines, Mode: domain.ModeGuest}
	o.phase = PhaseReady
	o.mu.Unlock()
	o.logger.Info("cart bootstrapped", "mode", domain.ModeGuest, "lines", len(lines))
	return nil
}

// Mode returns the session mode decided at bootstrap.
func (o *Orchestrator) Mode() domain.Mode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Mode
}

// Ready reports whether bootstrap has completed.
func (o *Orchestrator) Ready() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase == PhaseReady
}

// Lines returns a copy of the current cart lines in insertion order.
func (o *Orchestrator) Lines() []domain.CartLine {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.CloneLines()
}

// TotalCents returns the derived cart total.
func (o *Orchestrator) TotalCents() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.TotalCents()
}

// ItemCount returns the derived quantity sum.
func (o *Orchestrator) ItemCount() int32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.ItemCount()
}

// LineBusy reports whether the given product has a remote operation in
// flight. The UI disables that line's controls, not the whole cart.
func (o *Orchestrator) LineBusy(productID int64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, busy := o.inFlight[productID]
	return busy
}

// AddItem adds a product or increments its existing line.
//
// Guest mode merges locally and persists immediately. Authenticated mode
// posts the line and then re-fetches the authoritative cart, including
// the new remote line ID, before declaring success.
func (o *Orchestrator) AddItem(ctx context.Context, p domain.Product, quantity int32) error {
	const op = "cart.add"

	if err := o.ensureReady(); err != nil {
		return err
	}

	line, err := domain.NewCartLine(p, quantity)
	if err != nil {
		o.recordFailure(op, err)
		return err
	}

	release := o.lockLine(p.ID)
	defer release()

	if o.Mode() == domain.ModeGuest {
		o.mu.Lock()
		if idx := o.state.FindLine(p.ID); idx >= 0 {
			o.state.Lines[idx].Quantity += quantity
		} else {
			o.state.Lines = append(o.state.Lines, line)
		}
		o.mu.Unlock()

		o.persistGuest(ctx)
		o.countAdd(quantity)
		return nil
	}

	done := o.beginLineOp(p.ID)
	defer done()

	if err := o.gw.AddLine(ctx, p.ID, quantity); err != nil {
		o.recordFailure(op, err)
		return err
	}

	if err := o.refreshAuthoritative(ctx); err != nil {
		o.recordFailure(op, err)
		return err
	}

	o.countAdd(quantity)
	return nil
}

// UpdateQuantity sets a line's quantity. A quantity of zero or below is
// deliberately equivalent to removal: a zero-quantity line is never a
// visible cart state.
func (o *Orchestrator) UpdateQuantity(ctx context.Context, productID int64, quantity int32) error {
	const op = "cart.update"

	if err := o.ensureReady(); err != nil {
		return err
	}

	if quantity <= 0 {
		return o.RemoveItem(ctx, productID)
	}

	release := o.lockLine(productID)
	defer release()

	o.mu.Lock()
	idx := o.state.FindLine(productID)
	if idx < 0 {
		o.mu.Unlock()
		err := domain.NotFound(op, "cart line", strconv.FormatInt(productID, 10))
		o.recordFailure(op, err)
		return err
	}
	line := o.state.Lines[idx]
	mode := o.state.Mode
	o.mu.Unlock()

	if mode == domain.ModeGuest {
		o.mu.Lock()
		if idx := o.state.FindLine(productID); idx >= 0 {
			o.state.Lines[idx].Quantity = quantity
		}
		o.mu.Unlock()

		o.persistGuest(ctx)
		o.countUpdate("update")
		return nil
	}

	// A line whose remote add has not completed has no remote ID yet.
	// Reject rather than silently dropping the intent.
	if !line.Committed() {
		o.recordFailure(op, domain.ErrLinePending)
		return domain.ErrLinePending
	}

	done := o.beginLineOp(productID)
	defer done()

	if err := o.gw.UpdateLine(ctx, line.RemoteLineID, quantity); err != nil {
		o.recordFailure(op, err)
		return err
	}

	if err := o.refreshAuthoritative(ctx); err != nil {
		o.recordFailure(op, err)
		return err
	}

	o.countUpdate("update")
	return nil
}

// RemoveItem removes a product's line. Removing a product not in the cart
// is a no-op success, not an error.
func (o *Orchestrator) RemoveItem(ctx context.Context, productID int64) error {
	const op = "cart.remove"

	if err := o.ensureReady(); err != nil {
		return err
	}

	release := o.lockLine(productID)
	defer release()

	o.mu.Lock()
	idx := o.state.FindLine(productID)
	if idx < 0 {
		o.mu.Unlock()
		return nil
	}
	line := o.state.Lines[idx]
	mode := o.state.Mode
	o.mu.Unlock()

	if mode == domain.ModeGuest {
		o.deleteLine(productID)
		o.persistGuest(ctx)
		o.countUpdate("remove")
		return nil
	}

	if !line.Committed() {
		o.recordFailure(op, domain.ErrLinePending)
		return domain.ErrLinePending
	}

	done := o.beginLineOp(productID)
	defer done()

	if err := o.gw.RemoveLine(ctx, line.RemoteLineID); err != nil {
		o.recordFailure(op, err)
		return err
	}

	o.deleteLine(productID)
	o.countUpdate("remove")
	return nil
}

// Clear empties the cart. In guest mode the snapshot file is deleted
// outright rather than overwritten with an empty list.
func (o *Orchestrator) Clear(ctx context.Context) error {
	if err := o.ensureReady(); err != nil {
		return err
	}

	o.mu.Lock()
	mode := o.state.Mode
	o.state.Lines = nil
	o.mu.Unlock()

	if mode == domain.ModeGuest {
		if err := o.store.Clear(ctx); err != nil {
			o.logger.Warn("failed to delete cart snapshot", "error", err)
		}
	}

	if o.metrics != nil {
		o.metrics.CartCleared.WithLabelValues(string(mode)).Inc()
	}
	return nil
}

// ensureReady rejects operations before bootstrap completes.
func (o *Orchestrator) ensureReady() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != PhaseReady {
		return domain.ErrCartNotReady
	}
	return nil
}

// lockLine acquires the per-product lock and returns its release func.
func (o *Orchestrator) lockLine(productID int64) func() {
	o.mu.Lock()
	l, ok := o.lineLocks[productID]
	if !ok {
		l = &lineLock{}
		o.lineLocks[productID] = l
	}
	l.refs++
	o.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		o.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(o.lineLocks, productID)
		}
		o.mu.Unlock()
	}
}

// beginLineOp marks a remote round-trip in flight for one line and
// returns the func that clears it.
func (o *Orchestrator) beginLineOp(productID int64) func() {
	opID := uuid.NewString()
	o.mu.Lock()
	o.inFlight[productID] = opID
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		if o.inFlight[productID] == opID {
			delete(o.inFlight, productID)
		}
		o.mu.Unlock()
	}
}

// refreshAuthoritative replaces local lines with the server-held cart.
// Fetch and assign happen under one lock so an older fetch can never
// overwrite a newer one.
func (o *Orchestrator) refreshAuthoritative(ctx context.Context) error {
	o.refreshMu.Lock()
	defer o.refreshMu.Unlock()

	remote, err := o.gw.FetchCart(ctx)
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.state.Lines = remote.Lines
	o.mu.Unlock()
	return nil
}

// persistGuest writes the snapshot after a guest mutation. Storage
// failures are recovered locally: the mutation stands in memory and the
// failure is only logged.
func (o *Orchestrator) persistGuest(ctx context.Context) {
	o.mu.Lock()
	lines := o.state.CloneLines()
	o.mu.Unlock()

	if err := o.store.Save(ctx, lines); err != nil {
		o.logger.Warn("failed to persist cart snapshot, keeping in-memory state", "error", err)
	}
}

func (o *Orchestrator) deleteLine(productID int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if idx := o.state.FindLine(productID); idx >= 0 {
		o.state.Lines = append(o.state.Lines[:idx], o.state.Lines[idx+1:]...)
	}
}

func (o *Orchestrator) countAdd(quantity int32) {
	if o.metrics == nil {
		return
	}
	o.metrics.CartItemsAdded.WithLabelValues(string(o.Mode())).Add(float64(quantity))
}

func (o *Orchestrator) countUpdate(operation string) {
	if o.metrics == nil {
		return
	}
	o.metrics.CartUpdated.WithLabelValues(string(o.Mode()), operation).Inc()
}

func (o *Orchestrator) recordFailure(op string, err error) {
	o.logger.Warn("cart mutation failed", "op", op, "code", domain.ErrorCode(err), "error", err)
	if o.metrics != nil {
		o.metrics.MutationFailures.WithLabelValues(string(o.Mode()), op, domain.ErrorCode(err)).Inc()
	}
}
