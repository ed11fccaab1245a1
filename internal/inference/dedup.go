package inference

import (
	"sort"

	"github.com/jonathan/warm-intros/internal/types"
)

// Dedup keeps the best relationship per normalized target company and returns them
// ordered by confidence (desc) then target. The result does not depend on input order.
func Dedup(rels []types.InferredRelationship) []types.InferredRelationship {
	best := make(map[string]types.InferredRelationship, len(rels))
	for _, rel := range rels {
		key := types.NormalizeCompanyName(rel.TargetCompany)
		if cur, ok := best[key]; !ok || Better(rel, cur) {
			best[key] = rel
		}
	}

	out := make([]types.InferredRelationship, 0, len(best))
	for _, rel := range best {
		out = append(out, rel)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ConfidenceScore != out[j].ConfidenceScore {
			return out[i].ConfidenceScore > out[j].ConfidenceScore
		}
		return types.NormalizeCompanyName(out[i].TargetCompany) < types.NormalizeCompanyName(out[j].TargetCompany)
	})
	return out
}

// Better reports whether a should replace b for the same target company:
// higher confidence, then inference type priority, then bridge company, then reasoning.
func Better(a, b types.InferredRelationship) bool {
	if a.ConfidenceScore != b.ConfidenceScore {
		return a.ConfidenceScore > b.ConfidenceScore
	}
	if pa, pb := a.InferenceType.Priority(), b.InferenceType.Priority(); pa != pb {
		return pa < pb
	}
	if ba, bb := deref(a.BridgeCompany), deref(b.BridgeCompany); ba != bb {
		return ba < bb
	}
	if a.Reasoning != b.Reasoning {
		return a.Reasoning < b.Reasoning
	}
	if a.TargetCompany != b.TargetCompany {
		return a.TargetCompany < b.TargetCompany
	}
	return connKey(a.SupportingData.ConnectionID) < connKey(b.SupportingData.ConnectionID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
