// Package network loads a user's connections, work history and ICP profile for analysis.
package network

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/warm-intros/internal/logger"
	"github.com/jonathan/warm-intros/internal/types"
)

// Source is the read side of the record store used by the Reader.
// GetICPProfile returns (nil, nil) when the user has no profile.
type Source interface {
	ListConnections(ctx context.Context, userID uuid.UUID) ([]types.NetworkConnection, error)
	ListWorkHistory(ctx context.Context, userID uuid.UUID) ([]types.WorkHistoryEntry, error)
	GetICPProfile(ctx context.Context, userID uuid.UUID) (*types.ICPProfile, error)
}

// Snapshot is everything the engine needs about one user's network
type Snapshot struct {
	UserID      uuid.UUID
	Connections []types.NetworkConnection
	WorkHistory []types.WorkHistoryEntry
	ICP         *types.ICPProfile
}

// IsEmpty reports whether the user has no connections to analyze.
func (s *Snapshot) IsEmpty() bool {
	return s == nil || len(s.Connections) == 0
}

// Reader loads network snapshots from a Source
type Reader struct {
	source Source
	log    *logger.Logger
}

// NewReader creates a Reader over source.
func NewReader(source Source, log *logger.Logger) *Reader {
	return &Reader{source: source, log: logger.OrNop(log).With("component", "network_reader")}
}

// Load reads the user's connections, work history and ICP.
// Records that fail validation are skipped with a warning rather than failing the load.
// An invalid ICP is treated like a missing one.
func (r *Reader) Load(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	connections, err := r.source.ListConnections(ctx, userID)
	if err != nil {
		return nil, &LoadError{Message: "failed to list connections", Cause: err}
	}

	history, err := r.source.ListWorkHistory(ctx, userID)
	if err != nil {
		return nil, &LoadError{Message: "failed to list work history", Cause: err}
	}

	icp, err := r.source.GetICPProfile(ctx, userID)
	if err != nil {
		return nil, &LoadError{Message: "failed to get ICP profile", Cause: err}
	}

	snap := &Snapshot{
		UserID:      userID,
		Connections: make([]types.NetworkConnection, 0, len(connections)),
		WorkHistory: make([]types.WorkHistoryEntry, 0, len(history)),
	}

	for i := range connections {
		if err := connections[i].Validate(); err != nil {
			r.log.Warn("skipping invalid connection",
				"user_id", userID, "connection_id", connections[i].ID, "error", err)
			continue
		}
		snap.Connections = append(snap.Connections, connections[i])
	}

	for i := range history {
		if err := history[i].Validate(); err != nil {
			r.log.Warn("skipping invalid work history entry",
				"user_id", userID, "entry_id", history[i].ID, "error", err)
			continue
		}
		snap.WorkHistory = append(snap.WorkHistory, history[i])
	}

	if icp == nil {
		r.log.Warn("no ICP profile, role matching disabled", "user_id", userID)
	} else if err := icp.Validate(); err != nil {
		r.log.Warn("invalid ICP profile ignored, role matching disabled", "user_id", userID, "error", err)
	} else {
		snap.ICP = icp
	}

	r.log.Debug("network loaded",
		"user_id", userID,
		"connections", len(snap.Connections),
		"work_history", len(snap.WorkHistory),
		"has_icp", snap.ICP != nil)

	return snap, nil
}
