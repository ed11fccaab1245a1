package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/warm-intros/internal/engine"
	"github.com/jonathan/warm-intros/internal/snapshot"
	"github.com/jonathan/warm-intros/internal/types"
)

func do(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRunAnalysis_ThenReadSnapshot(t *testing.T) {
	s, store := newTestServer(t, noLimits())
	userID := seedUser(store)
	base := "/users/" + userID.String()

	rec := do(t, s, http.MethodPost, base+"/analysis")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result engine.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.TotalAnalyzed)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "Vip Co", result.Matches[0].CompanyName)
	assert.True(t, result.Persisted)

	rec = do(t, s, http.MethodGet, base+"/analysis?page=1&page_size=10")
	require.Equal(t, http.StatusOK, rec.Code)

	var page snapshot.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.TotalCount)
	assert.Equal(t, 10, page.PageSize)
	require.Len(t, page.Matches, 1)
	assert.Equal(t, "Vip Co", page.Matches[0].TargetCompany)
}

func TestGetAnalysis_NoPriorRun(t *testing.T) {
	s, _ := newTestServer(t, noLimits())

	rec := do(t, s, http.MethodGet, "/users/"+uuid.NewString()+"/analysis")
	require.Equal(t, http.StatusOK, rec.Code)

	var page snapshot.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Zero(t, page.TotalCount)
	assert.Empty(t, page.Matches)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.PageSize, "configured default page size")
}

func TestGetAnalysis_PageSizeClamped(t *testing.T) {
	s, _ := newTestServer(t, noLimits())

	rec := do(t, s, http.MethodGet, "/users/"+uuid.NewString()+"/analysis?page_size=500")
	require.Equal(t, http.StatusOK, rec.Code)

	var page snapshot.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 10, page.PageSize)
}

func TestGetAnalysis_BadQuery(t *testing.T) {
	s, _ := newTestServer(t, noLimits())

	rec := do(t, s, http.MethodGet, "/users/"+uuid.NewString()+"/analysis?page=two")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "page")
}

func TestInvalidUserID(t *testing.T) {
	s, _ := newTestServer(t, noLimits())

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/users/not-a-uuid/analysis"},
		{http.MethodGet, "/users/not-a-uuid/analysis"},
		{http.MethodGet, "/users/not-a-uuid/opportunities"},
	} {
		rec := do(t, s, tc.method, tc.path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.method+" "+tc.path)
	}
}

func TestListOpportunities(t *testing.T) {
	s, store := newTestServer(t, noLimits())
	userID := seedUser(store)
	base := "/users/" + userID.String()

	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, base+"/analysis").Code)

	rec := do(t, s, http.MethodGet, base+"/opportunities")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp OpportunitiesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, types.KindOutbound, resp.Opportunities[0].Kind, "71 outranks the VIP intro at 50")
	assert.Equal(t, "Umbrella", resp.Opportunities[0].TargetCompany)
	assert.Equal(t, types.KindIntro, resp.Opportunities[1].Kind)
	assert.Equal(t, "Dana Ortiz", resp.Opportunities[1].BridgeContact)
}

func TestListOpportunities_EmptyIsArray(t *testing.T) {
	s, _ := newTestServer(t, noLimits())

	rec := do(t, s, http.MethodGet, "/users/"+uuid.NewString()+"/opportunities")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"opportunities":[],"count":0}`, rec.Body.String())
}

type failingService struct{ err error }

func (f failingService) RunAnalysis(context.Context, uuid.UUID) (*engine.Result, error) {
	return nil, f.err
}

func (f failingService) GetSnapshotPage(context.Context, uuid.UUID, int, int) (*snapshot.Page, error) {
	return nil, f.err
}

func (f failingService) ListOpportunities(context.Context, uuid.UUID) ([]types.Opportunity, error) {
	return nil, f.err
}

func TestServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{name: "internal error hidden", err: errors.New("pq: password authentication failed"), wantStatus: http.StatusInternalServerError, wantBody: "internal error"},
		{name: "timeout", err: context.DeadlineExceeded, wantStatus: http.StatusGatewayTimeout, wantBody: "deadline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Config{RateLimit: noLimits()}, failingService{err: tt.err}, nil, nil)
			defer s.Close()

			rec := do(t, s, http.MethodPost, "/users/"+uuid.NewString()+"/analysis")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.NotContains(t, rec.Body.String(), "password")
		})
	}
}

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x?page=3&bad=x", nil)

	v, err := parseQueryInt(r, "page", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = parseQueryInt(r, "missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = parseQueryInt(r, "bad", 1)
	var verr *ErrValidation
	assert.ErrorAs(t, err, &verr)
}
