// Package inference combines heuristic scores, classifier verdicts and alumni paths
// into one deduplicated set of matches and inferred relationships.
//
// Aggregate is a pure function: the connection score cache updates it implies are
// returned as write-backs instead of being applied.
package inference

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/warm-intros/internal/classifier"
	"github.com/jonathan/warm-intros/internal/scoring"
	"github.com/jonathan/warm-intros/internal/types"
)

// Input is everything one aggregation needs
type Input struct {
	UserID          uuid.UUID
	Connections     []types.NetworkConnection
	WorkHistory     []types.WorkHistoryEntry
	ICP             *types.ICPProfile
	Classifications classifier.Results
	Alumni          []types.InferredRelationship
	GeneratedAt     time.Time
}

// Output is the aggregation result
type Output struct {
	Matches    []types.MatchResult
	Inferences []types.InferredRelationship
	WriteBacks []types.ScoreWriteBack
	// Dropped counts candidate relationships discarded for missing required fields
	Dropped int
}

// Aggregate scores every eligible connection and past employer, applies thresholds
// and the VIP override, and keeps one relationship per target company.
func Aggregate(in Input) Output {
	out := Output{
		Matches:    []types.MatchResult{},
		Inferences: []types.InferredRelationship{},
		WriteBacks: []types.ScoreWriteBack{},
	}

	var candidates []types.InferredRelationship

	for i := range in.Connections {
		conn := &in.Connections[i]
		if !scoring.Eligible(conn) {
			continue
		}

		match := scoreConnection(conn, in.ICP, in.Classifications[NetworkCandidateID(i)])
		if match.MatchType == types.MatchNone {
			out.WriteBacks = append(out.WriteBacks, types.ScoreWriteBack{ConnectionID: conn.ID})
			continue
		}

		connID := conn.ID
		match.ConnectionID = &connID
		out.Matches = append(out.Matches, match)
		out.WriteBacks = append(out.WriteBacks, writeBack(conn.ID, match))
		candidates = append(candidates, directFromConnection(in, conn, match))
	}

	for i, job := range in.WorkHistory {
		if job.IsCurrent {
			continue
		}
		verdict, ok := in.Classifications[WorkHistoryCandidateID(i)]
		if !ok {
			continue
		}
		score := scoring.Clamp(verdict.Score)
		matchType := scoring.Classify(score)
		if matchType == types.MatchNone {
			continue
		}
		match := types.MatchResult{
			CompanyName:      job.CompanyName,
			MatchScore:       score,
			MatchType:        matchType,
			MatchingCriteria: append([]string{}, verdict.Reasons...),
			Source:           types.SourceWorkHistory,
		}
		out.Matches = append(out.Matches, match)
		candidates = append(candidates, directFromWorkHistory(in, job, match))
	}

	candidates = append(candidates, in.Alumni...)

	valid := candidates[:0]
	for _, rel := range candidates {
		if err := rel.Validate(); err != nil {
			out.Dropped++
			continue
		}
		valid = append(valid, rel)
	}

	out.Inferences = Dedup(valid)
	sortMatches(out.Matches)
	sort.Slice(out.WriteBacks, func(i, j int) bool {
		return out.WriteBacks[i].ConnectionID.String() < out.WriteBacks[j].ConnectionID.String()
	})
	return out
}

// scoreConnection combines classifier and heuristic scores and applies the VIP override.
func scoreConnection(conn *types.NetworkConnection, icp *types.ICPProfile, verdict classifier.Classification) types.MatchResult {
	heuristic := scoring.Score(conn, icp)
	score := scoring.Combine(verdict.Score, heuristic.Boost)

	criteria := make([]string, 0, len(verdict.Reasons)+len(heuristic.Criteria)+1)
	criteria = append(criteria, verdict.Reasons...)
	criteria = append(criteria, heuristic.Criteria...)

	matchType := scoring.Classify(score)
	if matchType == types.MatchNone && conn.RelationshipStrength == scoring.VIPStrength {
		matchType = types.MatchPartial
		score = scoring.VIPScore
		criteria = append(criteria, scoring.CriterionVIP)
	}

	return types.MatchResult{
		CompanyName:      conn.CompanyName,
		MatchScore:       score,
		MatchType:        matchType,
		MatchingCriteria: criteria,
		Source:           types.SourceNetwork,
	}
}

func writeBack(connID uuid.UUID, match types.MatchResult) types.ScoreWriteBack {
	score := match.MatchScore
	matchType := match.MatchType
	reason := strings.Join(match.MatchingCriteria, "; ")
	return types.ScoreWriteBack{
		ConnectionID: connID,
		Score:        &score,
		MatchType:    &matchType,
		Reason:       &reason,
	}
}

func directFromConnection(in Input, conn *types.NetworkConnection, match types.MatchResult) types.InferredRelationship {
	contact := conn.BridgeContact()
	connID := conn.ID
	reasoning := strings.Join(match.MatchingCriteria, "; ")
	if reasoning == "" {
		reasoning = "Matches your ICP"
	}

	return types.InferredRelationship{
		UserID:          in.UserID,
		TargetCompany:   conn.CompanyName,
		InferenceType:   types.InferenceDirect,
		ConfidenceScore: match.MatchScore,
		Reasoning:       reasoning,
		SupportingData: types.SupportingData{
			BridgeContact: &contact,
			ConnectionID:  &connID,
			MatchType:     match.MatchType,
			Criteria:      match.MatchingCriteria,
			Source:        types.SourceNetwork,
		},
		IsActive:    true,
		GeneratedAt: in.GeneratedAt,
	}
}

func directFromWorkHistory(in Input, job types.WorkHistoryEntry, match types.MatchResult) types.InferredRelationship {
	contact := types.KeyContact{Name: "Former colleagues at " + job.CompanyName, Relationship: "alumni"}

	return types.InferredRelationship{
		UserID:          in.UserID,
		TargetCompany:   job.CompanyName,
		InferenceType:   types.InferenceDirect,
		ConfidenceScore: match.MatchScore,
		Reasoning:       "You previously worked at " + job.CompanyName,
		SupportingData: types.SupportingData{
			BridgeContact: &contact,
			MatchType:     match.MatchType,
			Criteria:      match.MatchingCriteria,
			Source:        types.SourceWorkHistory,
		},
		IsActive:    true,
		GeneratedAt: in.GeneratedAt,
	}
}

func sortMatches(matches []types.MatchResult) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.MatchScore != b.MatchScore {
			return a.MatchScore > b.MatchScore
		}
		if na, nb := types.NormalizeCompanyName(a.CompanyName), types.NormalizeCompanyName(b.CompanyName); na != nb {
			return na < nb
		}
		if a.Source != b.Source {
			return a.Source == types.SourceNetwork
		}
		return connKey(a.ConnectionID) < connKey(b.ConnectionID)
	})
}

func connKey(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
