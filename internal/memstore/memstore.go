// Package memstore is an in-memory record store used by offline CLI runs and tests.
// It implements the same contracts as the PostgreSQL store, including generation-based
// snapshot replacement.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/warm-intros/internal/types"
)

// Store keeps every collection in maps keyed by user id
type Store struct {
	mu          sync.RWMutex
	connections map[uuid.UUID][]types.NetworkConnection
	history     map[uuid.UUID][]types.WorkHistoryEntry
	icps        map[uuid.UUID]types.ICPProfile
	prospects   map[uuid.UUID][]types.Prospect
	inferences  map[uuid.UUID][]types.InferredRelationship
	generations map[uuid.UUID]int64
	now         func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		connections: make(map[uuid.UUID][]types.NetworkConnection),
		history:     make(map[uuid.UUID][]types.WorkHistoryEntry),
		icps:        make(map[uuid.UUID]types.ICPProfile),
		prospects:   make(map[uuid.UUID][]types.Prospect),
		inferences:  make(map[uuid.UUID][]types.InferredRelationship),
		generations: make(map[uuid.UUID]int64),
		now:         time.Now,
	}
}

// LoadNetworkFile imports a network file for userID, assigning ids where missing.
func (s *Store) LoadNetworkFile(userID uuid.UUID, nf *types.NetworkFile) {
	if nf.ICP != nil {
		s.SetICPProfile(userID, *nf.ICP)
	}
	for _, c := range nf.Connections {
		s.AddConnection(userID, c)
	}
	for _, w := range nf.WorkHistory {
		s.AddWorkHistory(userID, w)
	}
	for _, p := range nf.Prospects {
		s.AddProspect(userID, p)
	}
}

// AddConnection stores c for userID and returns it with its id set.
func (s *Store) AddConnection(userID uuid.UUID, c types.NetworkConnection) types.NetworkConnection {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.UserID = userID
	ts := s.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = ts
	}
	c.UpdatedAt = ts
	s.connections[userID] = append(s.connections[userID], c)
	return c
}

// AddWorkHistory stores w for userID.
func (s *Store) AddWorkHistory(userID uuid.UUID, w types.WorkHistoryEntry) types.WorkHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	w.UserID = userID
	s.history[userID] = append(s.history[userID], w)
	return w
}

// SetICPProfile replaces the user's ICP.
func (s *Store) SetICPProfile(userID uuid.UUID, icp types.ICPProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.icps[userID] = icp
}

// AddProspect stores p for userID.
func (s *Store) AddProspect(userID uuid.UUID, p types.Prospect) types.Prospect {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.UserID = userID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.prospects[userID] = append(s.prospects[userID], p)
	return p
}

// ListConnections returns a copy of the user's connections in insertion order.
func (s *Store) ListConnections(_ context.Context, userID uuid.UUID) ([]types.NetworkConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.NetworkConnection{}, s.connections[userID]...), nil
}

// ListWorkHistory returns a copy of the user's work history.
func (s *Store) ListWorkHistory(_ context.Context, userID uuid.UUID) ([]types.WorkHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.WorkHistoryEntry{}, s.history[userID]...), nil
}

// GetICPProfile returns the user's ICP, or nil when none is set.
func (s *Store) GetICPProfile(_ context.Context, userID uuid.UUID) (*types.ICPProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	icp, ok := s.icps[userID]
	if !ok {
		return nil, nil
	}
	return &icp, nil
}

// ListProspects returns a copy of the user's prospects.
func (s *Store) ListProspects(_ context.Context, userID uuid.UUID) ([]types.Prospect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Prospect{}, s.prospects[userID]...), nil
}

// ReplaceSnapshot writes inferences as generation N+1, retires older generations and
// applies the write-backs, all under one lock.
func (s *Store) ReplaceSnapshot(_ context.Context, userID uuid.UUID, inferences []types.InferredRelationship, writeBacks []types.ScoreWriteBack) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	generation := s.generations[userID] + 1

	rows := make([]types.InferredRelationship, 0, len(inferences))
	for _, rel := range inferences {
		rel = rel.Clone()
		rel.UserID = userID
		rel.Generation = generation
		rel.IsActive = true
		if rel.ID == uuid.Nil {
			rel.ID = uuid.New()
		}
		rows = append(rows, rel)
	}
	// Retiring and collecting the old generation happen in the same critical section.
	s.inferences[userID] = rows
	s.generations[userID] = generation

	byID := make(map[uuid.UUID]types.ScoreWriteBack, len(writeBacks))
	for _, wb := range writeBacks {
		byID[wb.ConnectionID] = wb
	}
	conns := s.connections[userID]
	ts := s.now()
	for i := range conns {
		wb, ok := byID[conns[i].ID]
		if !ok {
			continue
		}
		conns[i].ICPMatchScore = wb.Score
		conns[i].ICPMatchType = wb.MatchType
		conns[i].ICPMatchReason = wb.Reason
		conns[i].UpdatedAt = ts
	}

	return generation, nil
}

// ListActiveInferences returns a page of the active generation.
func (s *Store) ListActiveInferences(_ context.Context, userID uuid.UUID, limit, offset int) ([]types.InferredRelationship, int, error) {
	s.mu.RLock()
	active := make([]types.InferredRelationship, 0, len(s.inferences[userID]))
	for _, rel := range s.inferences[userID] {
		if rel.IsActive {
			active = append(active, rel.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(active, func(i, j int) bool {
		a, b := active[i], active[j]
		if a.ConfidenceScore != b.ConfidenceScore {
			return a.ConfidenceScore > b.ConfidenceScore
		}
		if a.TargetCompany != b.TargetCompany {
			return a.TargetCompany < b.TargetCompany
		}
		return a.ID.String() < b.ID.String()
	})

	total := len(active)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []types.InferredRelationship{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return active[offset:end], total, nil
}

// Generation returns the user's current snapshot generation (0 before any analysis).
func (s *Store) Generation(userID uuid.UUID) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generations[userID]
}
