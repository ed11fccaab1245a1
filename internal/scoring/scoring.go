// Package scoring implements the deterministic heuristic part of ICP matching.
// Nothing here calls the classifier, so every function is safe to use offline.
package scoring

import (
	"strings"
	"unicode"

	"github.com/jonathan/warm-intros/internal/types"
)

// Score thresholds and boosts
const (
	MinScore = 0
	MaxScore = 100

	FullThreshold    = 75
	PartialThreshold = 40

	RoleBoost               = 20
	RelationshipBoost       = 10
	StrongRelationshipLevel = 4

	VIPStrength = 5
	VIPScore    = 50
)

// Criteria labels emitted by the scorer and the aggregator
const (
	CriterionStrongRelationship = "Strong Relationship"
	CriterionVIP                = "VIP Connection"
	criterionRolePrefix         = "Matches ICP Role: "
)

// Result is the heuristic contribution for one connection
type Result struct {
	Boost    int
	Criteria []string
}

// Eligible reports whether a connection takes part in matching at all.
func Eligible(conn *types.NetworkConnection) bool {
	return conn.RelationshipStrength >= 1
}

// Score computes the heuristic boost for conn.
// With a nil ICP only the relationship boost applies.
func Score(conn *types.NetworkConnection, icp *types.ICPProfile) Result {
	res := Result{Criteria: []string{}}

	if icp != nil {
		if title, ok := matchingRoleTitle(conn.KeyContacts, icp.KeyRoles); ok {
			res.Boost += RoleBoost
			res.Criteria = append(res.Criteria, criterionRolePrefix+title)
		}
	}

	if conn.RelationshipStrength >= StrongRelationshipLevel {
		res.Boost += RelationshipBoost
		res.Criteria = append(res.Criteria, CriterionStrongRelationship)
	}

	res.Boost = Clamp(res.Boost)
	return res
}

// Combine adds a heuristic boost to a classifier score and clamps the total.
func Combine(classifierScore, boost int) int {
	return Clamp(Clamp(classifierScore) + boost)
}

// Clamp bounds score to [0,100].
func Clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Classify maps a combined score to a match type.
func Classify(score int) types.MatchType {
	switch {
	case score >= FullThreshold:
		return types.MatchFull
	case score >= PartialThreshold:
		return types.MatchPartial
	default:
		return types.MatchNone
	}
}

// matchingRoleTitle returns the title of the first contact whose title matches any key role.
func matchingRoleTitle(contacts []types.KeyContact, roles []string) (string, bool) {
	for _, c := range contacts {
		title := strings.TrimSpace(c.Title)
		if title == "" {
			continue
		}
		for _, role := range roles {
			if RoleMatches(title, role) {
				return title, true
			}
		}
	}
	return "", false
}

// RoleMatches reports whether a contact title satisfies an ICP role.
// The role matches as a case-insensitive substring of the title, or as the
// title's acronym ("CTO" matches "Chief Technology Officer").
func RoleMatches(title, role string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	r := strings.ToLower(strings.TrimSpace(role))
	if t == "" || r == "" {
		return false
	}
	if strings.Contains(t, r) {
		return true
	}
	return acronym(t) == r || (acronym(r) != "" && acronym(r) == t)
}

var acronymStopWords = map[string]bool{"of": true, "and": true, "the": true, "for": true}

// acronym returns the initials of a multi-word phrase, or "" for a single word.
func acronym(phrase string) string {
	words := strings.FieldsFunc(phrase, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) < 2 {
		return ""
	}
	var sb strings.Builder
	for _, w := range words {
		if acronymStopWords[w] {
			continue
		}
		sb.WriteRune([]rune(w)[0])
	}
	return sb.String()
}
