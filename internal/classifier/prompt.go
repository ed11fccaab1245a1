package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/jonathan/warm-intros/internal/prompts"
	"github.com/jonathan/warm-intros/internal/schemas"
	"github.com/jonathan/warm-intros/internal/scoring"
	"github.com/jonathan/warm-intros/internal/types"
)

const (
	promptFile = "classification.json"
	promptKey  = "classify-companies"
	retryKey   = "classify-companies-retry"
)

// response is the classifier payload after schema validation
type response struct {
	Matches []struct {
		ID      string   `json:"id"`
		Score   float64  `json:"score"`
		Reasons []string `json:"reasons"`
	} `json:"matches"`
}

// buildPrompt renders the classification prompt for one chunk.
func buildPrompt(icp *types.ICPProfile, chunk []Candidate) (string, error) {
	return render(promptKey, icp, chunk)
}

// buildRetryPrompt renders the follow-up prompt sent after a malformed answer.
func buildRetryPrompt(icp *types.ICPProfile, chunk []Candidate) (string, error) {
	return render(retryKey, icp, chunk)
}

func render(key string, icp *types.ICPProfile, chunk []Candidate) (string, error) {
	candidates, err := json.Marshal(chunk)
	if err != nil {
		return "", fmt.Errorf("failed to marshal candidates: %w", err)
	}

	return prompts.Render(promptFile, key, map[string]string{
		"Industries":   listOrAny(icp.TargetIndustries),
		"Locations":    listOrAny(icp.TargetLocations),
		"SizeRange":    icp.SizeRange(),
		"Roles":        listOrAny(icp.KeyRoles),
		"Technologies": listOrAny(icp.TargetTechnologies),
		"PainPoints":   textOrNone(icp.PainPoints),
		"AntiICP":      textOrNone(icp.AntiICPCriteria),
		"Candidates":   string(candidates),
	})
}

// parseResponse validates raw against the response schema and keeps only ids present in chunk.
func parseResponse(raw string, chunk []Candidate) (Results, error) {
	if err := schemas.Validate(schemas.ClassificationResponse, []byte(raw)); err != nil {
		return nil, err
	}

	var resp response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode classification response: %w", err)
	}

	known := make(map[string]bool, len(chunk))
	for _, c := range chunk {
		known[c.ID] = true
	}

	out := make(Results, len(resp.Matches))
	for _, m := range resp.Matches {
		if !known[m.ID] {
			continue
		}
		reasons := make([]string, 0, len(m.Reasons))
		for _, r := range m.Reasons {
			if r = strings.TrimSpace(r); r != "" {
				reasons = append(reasons, r)
			}
		}
		out[m.ID] = Classification{
			Score:   scoring.Clamp(int(math.Round(m.Score))),
			Reasons: reasons,
		}
	}
	return out, nil
}

func listOrAny(values []string) string {
	var kept []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return "any"
	}
	return strings.Join(kept, ", ")
}

func textOrNone(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "none"
	}
	return s
}
