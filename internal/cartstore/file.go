package cartstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/dukerupert/ostara/internal/domain"
)

// snapshot is the on-disk shape. Version allows format evolution without
// misreading old files as corrupt.
type snapshot struct {
	Version int               `json:"version"`
	Lines   []domain.CartLine `json:"lines"`
}

const snapshotVersion = 1

// FileStore implements Store using a single JSON file per profile.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore creates a file-backed snapshot store.
//
// path is the snapshot file location (parent directory created if needed).
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	return &FileStore{
		path:   path,
		logger: logger,
	}, nil
}

// Load reads the snapshot. A missing file or unparseable content yields an
// empty cart; only genuine I/O failures surface as ESTORAGE.
func (s *FileStore) Load(ctx context.Context) ([]domain.CartLine, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, domain.WrapError(err, domain.ESTORAGE, "cartstore.load", "failed to read cart snapshot")
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("discarding corrupt cart snapshot", "path", s.path, "error", err)
		return nil, nil
	}

	// Defend against hand-edited snapshots: drop lines that violate cart
	// invariants instead of admitting them.
	lines := make([]domain.CartLine, 0, len(snap.Lines))
	seen := make(map[int64]bool, len(snap.Lines))
	for _, l := range snap.Lines {
		if l.ProductID <= 0 || l.Quantity < 1 || seen[l.ProductID] {
			s.logger.Warn("dropping invalid snapshot line", "product_id", l.ProductID, "quantity", l.Quantity)
			continue
		}
		seen[l.ProductID] = true
		lines = append(lines, l)
	}

	return lines, nil
}

// Save overwrites the snapshot wholesale using an atomic file replace, so
// a crash mid-write can never leave a half-written cart behind.
func (s *FileStore) Save(ctx context.Context, lines []domain.CartLine) error {
	snap := snapshot{
		Version: snapshotVersion,
		Lines:   lines,
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return domain.WrapError(err, domain.ESTORAGE, "cartstore.save", "failed to encode cart snapshot")
	}

	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return domain.WrapError(err, domain.ESTORAGE, "cartstore.save", "failed to write cart snapshot")
	}

	return nil
}

// Clear deletes the snapshot file. A missing file is already clear.
func (s *FileStore) Clear(ctx context.Context) error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return domain.WrapError(err, domain.ESTORAGE, "cartstore.clear", "failed to delete cart snapshot")
	}

	return nil
}
