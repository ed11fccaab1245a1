package inference

import (
	"fmt"

	"github.com/jonathan/warm-intros/internal/classifier"
	"github.com/jonathan/warm-intros/internal/scoring"
	"github.com/jonathan/warm-intros/internal/types"
)

// NetworkCandidateID is the classifier id of the i-th connection.
func NetworkCandidateID(i int) string {
	return fmt.Sprintf("n%d", i)
}

// WorkHistoryCandidateID is the classifier id of the i-th work history entry.
func WorkHistoryCandidateID(i int) string {
	return fmt.Sprintf("w%d", i)
}

// Candidates builds the classifier input: every eligible connection, followed by
// every past (not current) employer.
func Candidates(connections []types.NetworkConnection, history []types.WorkHistoryEntry) []classifier.Candidate {
	out := make([]classifier.Candidate, 0, len(connections)+len(history))
	for i := range connections {
		if !scoring.Eligible(&connections[i]) {
			continue
		}
		out = append(out, classifier.Candidate{
			ID:     NetworkCandidateID(i),
			Name:   connections[i].CompanyName,
			Domain: connections[i].CompanyDomain,
		})
	}
	for i, job := range history {
		if job.IsCurrent {
			continue
		}
		out = append(out, classifier.Candidate{
			ID:   WorkHistoryCandidateID(i),
			Name: job.CompanyName,
		})
	}
	return out
}
