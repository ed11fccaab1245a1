// Package opportunity builds the combined feed of introduction and outbound opportunities.
// It only reads: nothing here writes back to the store.
package opportunity

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/warm-intros/internal/logger"
	"github.com/jonathan/warm-intros/internal/types"
)

// Source is the read contract the merger needs from the record store
type Source interface {
	ListActiveInferences(ctx context.Context, userID uuid.UUID, limit, offset int) ([]types.InferredRelationship, int, error)
	ListProspects(ctx context.Context, userID uuid.UUID) ([]types.Prospect, error)
	ListConnections(ctx context.Context, userID uuid.UUID) ([]types.NetworkConnection, error)
}

// Merger joins persisted inferences with prospects
type Merger struct {
	source Source
	log    *logger.Logger
}

// NewMerger creates a Merger over source.
func NewMerger(source Source, log *logger.Logger) *Merger {
	return &Merger{source: source, log: logger.OrNop(log).With("component", "opportunity_merger")}
}

// List returns every opportunity for the user, best first.
func (m *Merger) List(ctx context.Context, userID uuid.UUID) ([]types.Opportunity, error) {
	inferences, _, err := m.source.ListActiveInferences(ctx, userID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list active inferences: %w", err)
	}
	prospects, err := m.source.ListProspects(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prospects: %w", err)
	}

	var connections []types.NetworkConnection
	if len(inferences) > 0 {
		connections, err = m.source.ListConnections(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to list connections: %w", err)
		}
	}

	out := Merge(inferences, prospects, connections)
	m.log.Debug("opportunities merged",
		"user_id", userID, "intros", len(inferences), "outbound", len(prospects))
	return out, nil
}

// Merge maps inferences to INTRO and prospects to OUTBOUND opportunities and sorts the union
// by ai_score desc, then INTRO before OUTBOUND, then target company, then id.
func Merge(inferences []types.InferredRelationship, prospects []types.Prospect, connections []types.NetworkConnection) []types.Opportunity {
	byID := make(map[uuid.UUID]*types.NetworkConnection, len(connections))
	byCompany := make(map[string]*types.NetworkConnection, len(connections))
	for i := range connections {
		c := &connections[i]
		byID[c.ID] = c
		key := types.NormalizeCompanyName(c.CompanyName)
		if _, seen := byCompany[key]; !seen {
			byCompany[key] = c
		}
	}

	out := make([]types.Opportunity, 0, len(inferences)+len(prospects))
	for _, rel := range inferences {
		out = append(out, types.Opportunity{
			ID:            rel.ID,
			Kind:          types.KindIntro,
			TargetCompany: rel.TargetCompany,
			BridgeContact: resolveBridge(rel, byID, byCompany),
			AIScore:       rel.ConfidenceScore,
			Reasoning:     rel.Reasoning,
			Status:        types.StatusSuggested,
			CreatedDate:   rel.GeneratedAt,
		})
	}
	for _, p := range prospects {
		out = append(out, types.Opportunity{
			ID:            p.ID,
			Kind:          types.KindOutbound,
			TargetCompany: p.CompanyName,
			AIScore:       p.AIScore,
			Reasoning:     p.Reasoning,
			Status:        types.ParseOpportunityStatus(p.Status),
			CreatedDate:   p.CreatedAt,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.AIScore != b.AIScore {
			return a.AIScore > b.AIScore
		}
		if a.Kind != b.Kind {
			return a.Kind == types.KindIntro
		}
		if a.TargetCompany != b.TargetCompany {
			return a.TargetCompany < b.TargetCompany
		}
		return a.ID.String() < b.ID.String()
	})
	return out
}

// resolveBridge picks the bridge contact name: the one stored with the inference, else the
// linked connection's first key contact, else a contact-count placeholder, else a generic label.
func resolveBridge(rel types.InferredRelationship, byID map[uuid.UUID]*types.NetworkConnection, byCompany map[string]*types.NetworkConnection) string {
	if bc := rel.SupportingData.BridgeContact; bc != nil && strings.TrimSpace(bc.Name) != "" {
		return bc.Name
	}

	var conn *types.NetworkConnection
	if id := rel.SupportingData.ConnectionID; id != nil {
		conn = byID[*id]
	}
	if conn == nil {
		conn = byCompany[types.NormalizeCompanyName(rel.TargetCompany)]
	}
	if conn == nil {
		return types.GenericBridgeContact
	}
	return conn.BridgeContact().Name
}
