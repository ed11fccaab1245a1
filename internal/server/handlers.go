package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/warm-intros/internal/types"
)

// OpportunitiesResponse wraps the merged opportunity feed
type OpportunitiesResponse struct {
	Opportunities []types.Opportunity `json:"opportunities"`
	Count         int                 `json:"count"`
}

// handleRunAnalysis recomputes and persists the user's matches
func (s *Server) handleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ctx := r.Context()
	if s.analysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.analysisTimeout)
		defer cancel()
	}

	result, err := s.service.RunAnalysis(ctx, userID)
	if err != nil {
		s.log.Error("analysis failed", "user_id", userID, "error", err)
		s.writeError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

// handleGetAnalysis serves one page of the last persisted analysis
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	page, err := parseQueryInt(r, "page", 1)
	if err != nil {
		s.writeError(w, err)
		return
	}
	pageSize, err := parseQueryInt(r, "page_size", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.service.GetSnapshotPage(r.Context(), userID, page, pageSize)
	if err != nil {
		s.log.Error("snapshot read failed", "user_id", userID, "error", err)
		s.writeError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

// handleListOpportunities serves the merged INTRO and OUTBOUND feed
func (s *Server) handleListOpportunities(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	opps, err := s.service.ListOpportunities(r.Context(), userID)
	if err != nil {
		s.log.Error("opportunity listing failed", "user_id", userID, "error", err)
		s.writeError(w, err)
		return
	}
	if opps == nil {
		opps = []types.Opportunity{}
	}

	s.jsonResponse(w, http.StatusOK, OpportunitiesResponse{Opportunities: opps, Count: len(opps)})
}

// writeError maps err to a status; internal errors are not echoed to the client.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	s.errorResponse(w, status, message)
}

func parseUserID(r *http.Request) (uuid.UUID, error) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: "id", Message: "must be a UUID"}
	}
	return id, nil
}

// parseQueryInt reads an optional integer query parameter
func parseQueryInt(r *http.Request, key string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ErrValidation{Field: key, Message: "must be an integer"}
	}
	return v, nil
}
