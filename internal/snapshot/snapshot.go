// Package snapshot persists the latest analysis result and serves paginated reads of it.
//
// Every replace writes a new generation of rows and retires the previous one, so readers
// see either the old set or the new set. When two runs for the same user race, the one
// that commits last wins.
package snapshot

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/warm-intros/internal/config"
	"github.com/jonathan/warm-intros/internal/logger"
	"github.com/jonathan/warm-intros/internal/types"
)

// Store is the write/read contract of the record store for snapshots.
type Store interface {
	// ReplaceSnapshot makes inferences the user's only active set and applies the
	// connection score write-backs. It returns the new generation number.
	ReplaceSnapshot(ctx context.Context, userID uuid.UUID, inferences []types.InferredRelationship, writeBacks []types.ScoreWriteBack) (int64, error)
	// ListActiveInferences returns one page of the active set ordered by
	// confidence desc, target asc, id asc, plus the total count. limit <= 0 means all.
	ListActiveInferences(ctx context.Context, userID uuid.UUID, limit, offset int) ([]types.InferredRelationship, int, error)
}

// Page is one page of a persisted snapshot
type Page struct {
	Matches    []types.InferredRelationship `json:"matches"`
	TotalCount int                          `json:"total_count"`
	Page       int                          `json:"page"`
	PageSize   int                          `json:"page_size"`
}

// Persister writes and reads snapshots
type Persister struct {
	store Store
	cfg   config.SnapshotConfig
	log   *logger.Logger
}

// NewPersister creates a Persister. Zero page size settings fall back to defaults.
func NewPersister(store Store, cfg config.SnapshotConfig, log *logger.Logger) *Persister {
	def := config.Default().Snapshot
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = def.DefaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = def.MaxPageSize
	}
	if cfg.DefaultPageSize > cfg.MaxPageSize {
		cfg.DefaultPageSize = cfg.MaxPageSize
	}
	return &Persister{store: store, cfg: cfg, log: logger.OrNop(log).With("component", "snapshot")}
}

// Replace stores inferences as the user's new snapshot together with the score write-backs.
// Rows are stamped with the user id and fresh ids before the write; the inputs are not modified.
func (p *Persister) Replace(ctx context.Context, userID uuid.UUID, inferences []types.InferredRelationship, writeBacks []types.ScoreWriteBack) (int64, error) {
	rows := make([]types.InferredRelationship, len(inferences))
	for i, rel := range inferences {
		if err := rel.Validate(); err != nil {
			return 0, &PersistError{Message: fmt.Sprintf("refusing to persist invalid relationship for %q", rel.TargetCompany), Cause: err}
		}
		if rel.ID == uuid.Nil {
			rel.ID = uuid.New()
		}
		rel.UserID = userID
		rel.IsActive = true
		rows[i] = rel
	}

	generation, err := p.store.ReplaceSnapshot(ctx, userID, rows, writeBacks)
	if err != nil {
		return 0, &PersistError{Message: "failed to replace snapshot", Cause: err}
	}

	p.log.Info("snapshot replaced",
		"user_id", userID,
		"generation", generation,
		"inferences", len(rows),
		"write_backs", len(writeBacks))
	return generation, nil
}

// GetPage reads one page of the stored snapshot without recomputing anything.
// page is 1-based; out-of-range sizes are clamped to the configured bounds.
func (p *Persister) GetPage(ctx context.Context, userID uuid.UUID, page, pageSize int) (*Page, error) {
	page, pageSize = p.normalize(page, pageSize)

	rows, total, err := p.store.ListActiveInferences(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot page: %w", err)
	}
	if rows == nil {
		rows = []types.InferredRelationship{}
	}

	return &Page{Matches: rows, TotalCount: total, Page: page, PageSize: pageSize}, nil
}

func (p *Persister) normalize(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = p.cfg.DefaultPageSize
	}
	if pageSize > p.cfg.MaxPageSize {
		pageSize = p.cfg.MaxPageSize
	}
	return page, pageSize
}

// TotalPages returns how many pages of size pageSize hold total entries.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
