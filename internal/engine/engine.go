// Package engine runs relationship analysis end to end and serves the read API on top of it.
//
//	Reader -> (Classifier || Alumni) -> Aggregator -> Persister
//
// ListOpportunities is a separate read path over the persisted snapshot and prospects.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/warm-intros/internal/alumni"
	"github.com/jonathan/warm-intros/internal/classifier"
	"github.com/jonathan/warm-intros/internal/config"
	"github.com/jonathan/warm-intros/internal/inference"
	"github.com/jonathan/warm-intros/internal/logger"
	"github.com/jonathan/warm-intros/internal/network"
	"github.com/jonathan/warm-intros/internal/opportunity"
	"github.com/jonathan/warm-intros/internal/snapshot"
	"github.com/jonathan/warm-intros/internal/types"
)

// Store is the full record store contract used by the engine
type Store interface {
	network.Source
	snapshot.Store
	opportunity.Source
}

// Classifier is the batch classification step. A nil Classifier runs heuristics and alumni only.
type Classifier interface {
	Classify(ctx context.Context, icp *types.ICPProfile, candidates []classifier.Candidate) classifier.Report
}

// Result is the outcome of one analysis run
type Result struct {
	Matches       []types.MatchResult          `json:"matches"`
	Inferences    []types.InferredRelationship `json:"inferences"`
	TotalAnalyzed int                          `json:"total_analyzed"`
	Persisted     bool                         `json:"persisted"`
	Generation    int64                        `json:"generation,omitempty"`
	Chunks        int                          `json:"chunks"`
	FailedChunks  int                          `json:"failed_chunks"`
	CacheHits     int                          `json:"cache_hits"`
}

// Engine wires the analysis components together
type Engine struct {
	reader     *network.Reader
	classifier Classifier
	persister  *snapshot.Persister
	merger     *opportunity.Merger
	log        *logger.Logger
	now        func() time.Time
}

// New creates an Engine. cls may be nil.
func New(store Store, cls Classifier, cfg config.SnapshotConfig, log *logger.Logger) *Engine {
	log = logger.OrNop(log)
	return &Engine{
		reader:     network.NewReader(store, log),
		classifier: cls,
		persister:  snapshot.NewPersister(store, cfg, log),
		merger:     opportunity.NewMerger(store, log),
		log:        log.With("component", "engine"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// RunAnalysis recomputes the user's matches and replaces the stored snapshot.
//
// A missing ICP disables role matching and classification. An empty network returns an
// empty result without classifying or writing. A failed write is logged and the computed
// result is still returned with Persisted=false. If ctx ends before the write, nothing is written.
func (e *Engine) RunAnalysis(ctx context.Context, userID uuid.UUID) (*Result, error) {
	started := e.now()

	snap, err := e.reader.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if snap.IsEmpty() {
		e.log.Info("empty network, skipping analysis", "user_id", userID)
		return &Result{Matches: []types.MatchResult{}, Inferences: []types.InferredRelationship{}}, nil
	}

	var (
		report   classifier.Report
		alumniRs []types.InferredRelationship
	)

	// Neither branch fails; the group only joins them.
	var g errgroup.Group
	g.Go(func() error {
		if e.classifier == nil || snap.ICP == nil {
			return nil
		}
		report = e.classifier.Classify(ctx, snap.ICP, inference.Candidates(snap.Connections, snap.WorkHistory))
		return nil
	})
	g.Go(func() error {
		alumniRs = alumni.Infer(userID, snap.WorkHistory, snap.Connections, started)
		return nil
	})
	_ = g.Wait()

	out := inference.Aggregate(inference.Input{
		UserID:          userID,
		Connections:     snap.Connections,
		WorkHistory:     snap.WorkHistory,
		ICP:             snap.ICP,
		Classifications: report.Results,
		Alumni:          alumniRs,
		GeneratedAt:     started,
	})
	if out.Dropped > 0 {
		e.log.Warn("dropped incomplete relationships", "user_id", userID, "dropped", out.Dropped)
	}

	result := &Result{
		Matches:       out.Matches,
		Inferences:    out.Inferences,
		TotalAnalyzed: len(snap.Connections),
		Chunks:        report.Chunks,
		FailedChunks:  report.FailedChunks,
		CacheHits:     report.CacheHits,
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	generation, err := e.persister.Replace(ctx, userID, out.Inferences, out.WriteBacks)
	if err != nil {
		e.log.Error("snapshot not persisted, returning computed result", "user_id", userID, "error", err)
	} else {
		result.Persisted = true
		result.Generation = generation
	}

	e.log.Info("analysis finished",
		"user_id", userID,
		"analyzed", result.TotalAnalyzed,
		"matches", len(result.Matches),
		"inferences", len(result.Inferences),
		"failed_chunks", result.FailedChunks,
		"persisted", result.Persisted,
		"duration", e.now().Sub(started))
	return result, nil
}

// GetSnapshotPage returns one page of the last persisted analysis. It never recomputes.
func (e *Engine) GetSnapshotPage(ctx context.Context, userID uuid.UUID, page, pageSize int) (*snapshot.Page, error) {
	return e.persister.GetPage(ctx, userID, page, pageSize)
}

// ListOpportunities returns the merged INTRO and OUTBOUND feed.
func (e *Engine) ListOpportunities(ctx context.Context, userID uuid.UUID) ([]types.Opportunity, error) {
	return e.merger.List(ctx, userID)
}
