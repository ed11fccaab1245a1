package opportunity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/warm-intros/internal/memstore"
	"github.com/jonathan/warm-intros/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intro(target string, score int, contact *types.KeyContact) types.InferredRelationship {
	return types.InferredRelationship{
		ID:              uuid.New(),
		TargetCompany:   target,
		InferenceType:   types.InferenceDirect,
		ConfidenceScore: score,
		Reasoning:       "fit",
		SupportingData:  types.SupportingData{BridgeContact: contact},
		GeneratedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestMerge_IntroBeforeOutboundByScore(t *testing.T) {
	got := Merge(
		[]types.InferredRelationship{intro("Acme", 92, &types.KeyContact{Name: "Ann"})},
		[]types.Prospect{{ID: uuid.New(), CompanyName: "Initech", AIScore: 71, Status: "Requested"}},
		nil,
	)

	require.Len(t, got, 2)
	assert.Equal(t, types.KindIntro, got[0].Kind)
	assert.Equal(t, 92, got[0].AIScore)
	assert.Equal(t, "Ann", got[0].BridgeContact)
	assert.Equal(t, types.StatusSuggested, got[0].Status)
	assert.Equal(t, types.KindOutbound, got[1].Kind)
	assert.Equal(t, types.StatusRequested, got[1].Status)
	assert.Empty(t, got[1].BridgeContact)
}

func TestMerge_OutboundCanOutrankIntro(t *testing.T) {
	got := Merge(
		[]types.InferredRelationship{intro("Acme", 55, &types.KeyContact{Name: "Ann"})},
		[]types.Prospect{{ID: uuid.New(), CompanyName: "Initech", AIScore: 88}},
		nil,
	)
	require.Len(t, got, 2)
	assert.Equal(t, "Initech", got[0].TargetCompany)
}

func TestMerge_TiesPreferIntro(t *testing.T) {
	got := Merge(
		[]types.InferredRelationship{intro("Zeta", 70, &types.KeyContact{Name: "Ann"})},
		[]types.Prospect{{ID: uuid.New(), CompanyName: "Alpha", AIScore: 70}},
		nil,
	)
	require.Len(t, got, 2)
	assert.Equal(t, types.KindIntro, got[0].Kind)
}

func TestMerge_BridgeContactFallbacks(t *testing.T) {
	linked := types.NetworkConnection{ID: uuid.New(), CompanyName: "Linked", KeyContacts: []types.KeyContact{{Name: "Lee"}}}
	counted := types.NetworkConnection{ID: uuid.New(), CompanyName: "Counted Inc", ContactCount: 3}

	byConnID := intro("Linked", 80, nil)
	byConnID.SupportingData.ConnectionID = &linked.ID

	got := Merge([]types.InferredRelationship{
		intro("Stored", 90, &types.KeyContact{Name: "Sam"}),
		byConnID,
		intro("counted", 70, &types.KeyContact{Name: "  "}),
		intro("Unknown", 60, nil),
	}, nil, []types.NetworkConnection{linked, counted})

	require.Len(t, got, 4)
	assert.Equal(t, "Sam", got[0].BridgeContact)
	assert.Equal(t, "Lee", got[1].BridgeContact)
	assert.Equal(t, "3 contacts at Counted Inc", got[2].BridgeContact)
	assert.Equal(t, "Network Connection", got[3].BridgeContact)
}

func TestMerger_List(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	userID := uuid.New()
	store.AddProspect(userID, types.Prospect{CompanyName: "Initech", AIScore: 71, Status: "in_progress"})
	_, err := store.ReplaceSnapshot(ctx, userID, []types.InferredRelationship{intro("Acme", 92, &types.KeyContact{Name: "Ann"})}, nil)
	require.NoError(t, err)

	got, err := NewMerger(store, nil).List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Acme", got[0].TargetCompany)
	assert.Equal(t, types.StatusInProgress, got[1].Status)

	// Read-only: the snapshot is untouched.
	rows, total, err := store.ListActiveInferences(ctx, userID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, int64(1), rows[0].Generation)
}

func TestMerger_ListEmpty(t *testing.T) {
	got, err := NewMerger(memstore.New(), nil).List(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, got)
}

type brokenSource struct{ *memstore.Store }

func (brokenSource) ListProspects(context.Context, uuid.UUID) ([]types.Prospect, error) {
	return nil, errors.New("relation \"prospects\" does not exist")
}

func TestMerger_ListSourceError(t *testing.T) {
	_, err := NewMerger(brokenSource{memstore.New()}, nil).List(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list prospects")
}
