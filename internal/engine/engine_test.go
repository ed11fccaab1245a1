package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/warm-intros/internal/classifier"
	"github.com/jonathan/warm-intros/internal/config"
	"github.com/jonathan/warm-intros/internal/llm"
	"github.com/jonathan/warm-intros/internal/memstore"
	"github.com/jonathan/warm-intros/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockLLMClient is a mock implementation of llm.Client for testing
type MockLLMClient struct {
	GenerateJSONFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	calls            atomic.Int32
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	m.calls.Add(1)
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return `{"matches": []}`, nil
}

func (m *MockLLMClient) GetModel(llm.ModelTier) string { return "mock-model" }
func (m *MockLLMClient) Close() error                  { return nil }

var idPattern = regexp.MustCompile(`"id":"([^"]+)"`)

func scoreEveryCandidate(score int) func(context.Context, string, llm.ModelTier) (string, error) {
	return func(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
		var parts []string
		for _, m := range idPattern.FindAllStringSubmatch(prompt, -1) {
			parts = append(parts, fmt.Sprintf(`{"id": %q, "score": %d, "reasons": ["Target industry"]}`, m[1], score))
		}
		return `{"matches": [` + strings.Join(parts, ",") + `]}`, nil
	}
}

type stubClassifier struct {
	fn    func(ctx context.Context, icp *types.ICPProfile, cands []classifier.Candidate) classifier.Report
	calls int
}

func (s *stubClassifier) Classify(ctx context.Context, icp *types.ICPProfile, cands []classifier.Candidate) classifier.Report {
	s.calls++
	if s.fn != nil {
		return s.fn(ctx, icp, cands)
	}
	return classifier.Report{Results: classifier.Results{}}
}

type failingStore struct{ *memstore.Store }

func (failingStore) ReplaceSnapshot(context.Context, uuid.UUID, []types.InferredRelationship, []types.ScoreWriteBack) (int64, error) {
	return 0, errors.New("connection refused")
}

func classifierConfig() config.ClassifierConfig {
	return config.ClassifierConfig{ChunkSize: 50, ChunkTimeout: 2 * time.Second, MaxConcurrency: 4, Burst: 10, MaxRetries: 0}
}

func seed(store *memstore.Store, userID uuid.UUID, n int) {
	store.SetICPProfile(userID, types.ICPProfile{TargetIndustries: []string{"fintech"}, KeyRoles: []string{"CTO"}})
	for i := 0; i < n; i++ {
		store.AddConnection(userID, types.NetworkConnection{
			CompanyName:          fmt.Sprintf("Company %03d", i),
			RelationshipStrength: 2,
			KeyContacts:          []types.KeyContact{{Name: fmt.Sprintf("Contact %d", i), Title: "Engineer"}},
		})
	}
}

func TestRunAnalysis_EmptyNetwork(t *testing.T) {
	store := memstore.New()
	userID := uuid.New()
	store.SetICPProfile(userID, types.ICPProfile{KeyRoles: []string{"CTO"}})
	mock := &MockLLMClient{}

	eng := New(store, classifier.New(mock, classifierConfig()), config.SnapshotConfig{}, nil)
	res, err := eng.RunAnalysis(context.Background(), userID)

	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Equal(t, 0, res.TotalAnalyzed)
	assert.False(t, res.Persisted)
	assert.Equal(t, int32(0), mock.calls.Load())
	assert.Equal(t, int64(0), store.Generation(userID))
}

func TestRunAnalysis_PersistsAndPages(t *testing.T) {
	store := memstore.New()
	userID := uuid.New()
	seed(store, userID, 30)
	mock := &MockLLMClient{GenerateJSONFunc: scoreEveryCandidate(80)}

	eng := New(store, classifier.New(mock, classifierConfig()), config.SnapshotConfig{DefaultPageSize: 10, MaxPageSize: 100}, nil)
	res, err := eng.RunAnalysis(context.Background(), userID)
	require.NoError(t, err)

	assert.True(t, res.Persisted)
	assert.Equal(t, int64(1), res.Generation)
	assert.Equal(t, 30, res.TotalAnalyzed)
	assert.Len(t, res.Matches, 30)
	assert.Len(t, res.Inferences, 30)
	assert.Equal(t, int32(1), mock.calls.Load())

	page, err := eng.GetSnapshotPage(context.Background(), userID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 30, page.TotalCount)
	assert.Len(t, page.Matches, 10)
	assert.Equal(t, 2, page.Page)

	conns, _ := store.ListConnections(context.Background(), userID)
	require.NotNil(t, conns[0].ICPMatchScore)
	assert.Equal(t, 80, *conns[0].ICPMatchScore)
	assert.Equal(t, types.MatchFull, *conns[0].ICPMatchType)
}

func TestRunAnalysis_ChunkFailureKeepsOtherChunks(t *testing.T) {
	store := memstore.New()
	userID := uuid.New()
	seed(store, userID, 120)

	ok := scoreEveryCandidate(80)
	mock := &MockLLMClient{GenerateJSONFunc: func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
		if strings.Contains(prompt, `"id":"n50"`) {
			return "", errors.New("503 service unavailable")
		}
		return ok(ctx, prompt, tier)
	}}

	eng := New(store, classifier.New(mock, classifierConfig()), config.SnapshotConfig{}, nil)
	res, err := eng.RunAnalysis(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, int32(3), mock.calls.Load())
	assert.Equal(t, 3, res.Chunks)
	assert.Equal(t, 1, res.FailedChunks)
	assert.Len(t, res.Matches, 70)

	names := make(map[string]bool)
	for _, m := range res.Matches {
		names[m.CompanyName] = true
	}
	assert.True(t, names["Company 000"])
	assert.True(t, names["Company 119"])
	assert.False(t, names["Company 075"])
	assert.True(t, res.Persisted)
}

func TestRunAnalysis_AlumniWithoutClassifier(t *testing.T) {
	store := memstore.New()
	userID := uuid.New()
	store.AddConnection(userID, types.NetworkConnection{
		CompanyName: "Acme", RelationshipStrength: 3, Tags: []string{"ex-colleague"},
		KeyContacts: []types.KeyContact{{Name: "Ann Lee", Title: "Director"}},
	})
	store.AddWorkHistory(userID, types.WorkHistoryEntry{CompanyName: "Globex"})

	eng := New(store, nil, config.SnapshotConfig{}, nil)
	res, err := eng.RunAnalysis(context.Background(), userID)
	require.NoError(t, err)

	assert.Empty(t, res.Matches)
	require.Len(t, res.Inferences, 1)
	assert.Equal(t, types.InferenceAlumni, res.Inferences[0].InferenceType)
	assert.Equal(t, "Former colleague from Globex is now at Acme", res.Inferences[0].Reasoning)
}

func TestRunAnalysis_MissingICPSkipsClassifier(t *testing.T) {
	store := memstore.New()
	userID := uuid.New()
	store.AddConnection(userID, types.NetworkConnection{CompanyName: "Vip Co", RelationshipStrength: 5})
	stub := &stubClassifier{}

	res, err := New(store, stub, config.SnapshotConfig{}, nil).RunAnalysis(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 0, stub.calls)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, types.MatchPartial, res.Matches[0].MatchType)
	assert.Equal(t, 50, res.Matches[0].MatchScore)
	assert.Contains(t, res.Matches[0].MatchingCriteria, "VIP Connection")
}

func TestRunAnalysis_VIPWithUnnamedContactIsKept(t *testing.T) {
	store := memstore.New()
	userID := uuid.New()
	store.AddConnection(userID, types.NetworkConnection{
		CompanyName: "Acme", RelationshipStrength: 5, ContactCount: 3,
		KeyContacts: []types.KeyContact{{Title: "CTO"}},
	})

	res, err := New(store, nil, config.SnapshotConfig{}, nil).RunAnalysis(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 1, res.TotalAnalyzed)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, types.MatchPartial, res.Matches[0].MatchType)
	assert.Equal(t, 50, res.Matches[0].MatchScore)
	assert.Contains(t, res.Matches[0].MatchingCriteria, "VIP Connection")

	require.Len(t, res.Inferences, 1)
	require.NotNil(t, res.Inferences[0].SupportingData.BridgeContact)
	assert.Equal(t, "3 contacts at Acme", res.Inferences[0].SupportingData.BridgeContact.Name)
}

func TestRunAnalysis_PersistenceFailureStillReturnsResult(t *testing.T) {
	store := memstore.New()
	userID := uuid.New()
	seed(store, userID, 3)
	mock := &MockLLMClient{GenerateJSONFunc: scoreEveryCandidate(90)}

	eng := New(failingStore{store}, classifier.New(mock, classifierConfig()), config.SnapshotConfig{}, nil)
	res, err := eng.RunAnalysis(context.Background(), userID)
	require.NoError(t, err)

	assert.False(t, res.Persisted)
	assert.Len(t, res.Matches, 3)
	assert.Len(t, res.Inferences, 3)
}

func TestRunAnalysis_CancelledBeforePersistWritesNothing(t *testing.T) {
	store := memstore.New()
	userID := uuid.New()
	seed(store, userID, 3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stub := &stubClassifier{fn: func(context.Context, *types.ICPProfile, []classifier.Candidate) classifier.Report {
		cancel()
		return classifier.Report{Results: classifier.Results{"n0": {Score: 90}}}
	}}

	_, err := New(store, stub, config.SnapshotConfig{}, nil).RunAnalysis(ctx, userID)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), store.Generation(userID))

	conns, _ := store.ListConnections(context.Background(), userID)
	assert.Nil(t, conns[0].ICPMatchScore)
}

func TestRunAnalysis_ReplacesPreviousSnapshot(t *testing.T) {
	store := memstore.New()
	userID := uuid.New()
	seed(store, userID, 4)

	high := &stubClassifier{fn: func(_ context.Context, _ *types.ICPProfile, cands []classifier.Candidate) classifier.Report {
		res := classifier.Results{}
		for _, c := range cands {
			res[c.ID] = classifier.Classification{Score: 85}
		}
		return classifier.Report{Results: res}
	}}
	eng := New(store, high, config.SnapshotConfig{}, nil)
	_, err := eng.RunAnalysis(context.Background(), userID)
	require.NoError(t, err)

	eng = New(store, &stubClassifier{}, config.SnapshotConfig{}, nil)
	res, err := eng.RunAnalysis(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Generation)

	page, err := eng.GetSnapshotPage(context.Background(), userID, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalCount)

	conns, _ := store.ListConnections(context.Background(), userID)
	for _, c := range conns {
		assert.Nil(t, c.ICPMatchScore, c.CompanyName)
	}
}

func TestRunAnalysis_LoadError(t *testing.T) {
	_, err := New(brokenStore{memstore.New()}, nil, config.SnapshotConfig{}, nil).RunAnalysis(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list connections")
}

type brokenStore struct{ *memstore.Store }

func (brokenStore) ListConnections(context.Context, uuid.UUID) ([]types.NetworkConnection, error) {
	return nil, errors.New("timeout")
}

func TestGetSnapshotPage_NoPriorAnalysis(t *testing.T) {
	page, err := New(memstore.New(), nil, config.SnapshotConfig{}, nil).GetSnapshotPage(context.Background(), uuid.New(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalCount)
	assert.Empty(t, page.Matches)
}

func TestListOpportunities_MergedOrdering(t *testing.T) {
	store := memstore.New()
	userID := uuid.New()
	store.SetICPProfile(userID, types.ICPProfile{KeyRoles: []string{"CTO"}})
	store.AddConnection(userID, types.NetworkConnection{
		CompanyName: "Acme", RelationshipStrength: 2,
		KeyContacts: []types.KeyContact{{Name: "Ann Lee", Title: "Chief Technology Officer"}},
	})
	store.AddProspect(userID, types.Prospect{CompanyName: "Initech", AIScore: 71})

	stub := &stubClassifier{fn: func(context.Context, *types.ICPProfile, []classifier.Candidate) classifier.Report {
		return classifier.Report{Results: classifier.Results{"n0": {Score: 72, Reasons: []string{"Fintech"}}}}
	}}
	eng := New(store, stub, config.SnapshotConfig{}, nil)
	_, err := eng.RunAnalysis(context.Background(), userID)
	require.NoError(t, err)

	opps, err := eng.ListOpportunities(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, opps, 2)
	assert.Equal(t, types.KindIntro, opps[0].Kind)
	assert.Equal(t, 92, opps[0].AIScore)
	assert.Equal(t, "Ann Lee", opps[0].BridgeContact)
	assert.Equal(t, types.KindOutbound, opps[1].Kind)
	assert.Equal(t, 71, opps[1].AIScore)
}
