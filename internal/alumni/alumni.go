// Package alumni finds introduction paths through the user's former employers.
package alumni

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/warm-intros/internal/types"
)

// Confidence is the fixed confidence of every alumni path
const Confidence = 85

// Infer pairs each work history entry with former colleagues who now work elsewhere.
//
// A connection tagged or typed "ex-colleague" is paired with every job. Any other
// connection is paired with the jobs whose company one of its tags names.
// Connections still at the job's company are skipped.
func Infer(userID uuid.UUID, history []types.WorkHistoryEntry, connections []types.NetworkConnection, now time.Time) []types.InferredRelationship {
	var out []types.InferredRelationship

	for i := range connections {
		conn := &connections[i]
		jobs := jobsFor(conn, history)
		for _, job := range jobs {
			if types.SameCompany(conn.CompanyName, job.CompanyName) {
				continue
			}
			out = append(out, relationship(userID, job, conn, now))
		}
	}
	return out
}

// jobsFor returns the work history entries conn is a former colleague from.
func jobsFor(conn *types.NetworkConnection, history []types.WorkHistoryEntry) []types.WorkHistoryEntry {
	if conn.IsExColleague() {
		return history
	}
	var tagged []types.WorkHistoryEntry
	for _, job := range history {
		if hasCompanyTag(conn, job.CompanyName) {
			tagged = append(tagged, job)
		}
	}
	return tagged
}

func hasCompanyTag(conn *types.NetworkConnection, company string) bool {
	for _, tag := range conn.Tags {
		if types.SameCompany(tag, company) {
			return true
		}
	}
	return false
}

func relationship(userID uuid.UUID, job types.WorkHistoryEntry, conn *types.NetworkConnection, now time.Time) types.InferredRelationship {
	bridge := job.CompanyName
	contact := conn.BridgeContact()
	connID := conn.ID

	return types.InferredRelationship{
		UserID:          userID,
		TargetCompany:   conn.CompanyName,
		BridgeCompany:   &bridge,
		InferenceType:   types.InferenceAlumni,
		ConfidenceScore: Confidence,
		Reasoning:       fmt.Sprintf("Former colleague from %s is now at %s", job.CompanyName, conn.CompanyName),
		SupportingData: types.SupportingData{
			BridgeContact: &contact,
			ConnectionID:  &connID,
			Criteria:      []string{"Alumni of " + job.CompanyName},
			Source:        types.SourceNetwork,
		},
		IsActive:    true,
		GeneratedAt: now,
	}
}
