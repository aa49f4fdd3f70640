// Package cartstore persists the guest cart snapshot to a durable
// client-side slot. The snapshot is a single serialized line list,
// overwritten wholesale on every save; there are no partial writes.
package cartstore

import (
	"context"

	"github.com/dukerupert/ostara/internal/domain"
)

// Store reads and writes the guest cart snapshot.
//
// Load must degrade missing or corrupt snapshots to an empty cart rather
// than surfacing an error; a broken snapshot is never a reason to block
// the session. Save and Clear report ESTORAGE failures so the caller can
// log them and continue with in-memory state only.
type Store interface {
	// Load returns the persisted lines, or an empty slice when no usable
	// snapshot exists.
	Load(ctx context.Context) ([]domain.CartLine, error)

	// Save overwrites the snapshot with the given lines.
	Save(ctx context.Context, lines []domain.CartLine) error

	// Clear deletes the snapshot entirely. Deleting the slot, rather than
	// writing an empty list, prevents a stale cart from resurfacing on
	// code paths that only check for the slot's presence.
	Clear(ctx context.Context) error
}
