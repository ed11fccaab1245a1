// Package types provides type definitions for structured data used throughout the relationship engine.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"sort"
	"strings"
)

// ICPProfile is the user's Ideal Customer Profile. The engine only reads it.
type ICPProfile struct {
	TargetIndustries   []string `json:"target_industries" yaml:"target_industries"`
	TargetLocations    []string `json:"target_locations" yaml:"target_locations"`
	CompanySizeMin     *int     `json:"company_size_min,omitempty" yaml:"company_size_min" validate:"omitempty,min=0"`
	CompanySizeMax     *int     `json:"company_size_max,omitempty" yaml:"company_size_max" validate:"omitempty,min=0"`
	KeyRoles           []string `json:"key_roles" yaml:"key_roles"`
	TargetTechnologies []string `json:"target_technologies" yaml:"target_technologies"`
	PainPoints         string   `json:"pain_points,omitempty" yaml:"pain_points"`
	AntiICPCriteria    string   `json:"anti_icp_criteria,omitempty" yaml:"anti_icp_criteria"`
}

// Validate checks field ranges and the size bounds ordering.
func (p *ICPProfile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}
	if p.CompanySizeMin != nil && p.CompanySizeMax != nil && *p.CompanySizeMin > *p.CompanySizeMax {
		return fmt.Errorf("company_size_min (%d) exceeds company_size_max (%d)", *p.CompanySizeMin, *p.CompanySizeMax)
	}
	return nil
}

// SizeRange renders the company size bounds for prompts, e.g. "50-500", "at least 50", "any".
func (p *ICPProfile) SizeRange() string {
	switch {
	case p.CompanySizeMin != nil && p.CompanySizeMax != nil:
		return fmt.Sprintf("%d-%d", *p.CompanySizeMin, *p.CompanySizeMax)
	case p.CompanySizeMin != nil:
		return fmt.Sprintf("at least %d", *p.CompanySizeMin)
	case p.CompanySizeMax != nil:
		return fmt.Sprintf("at most %d", *p.CompanySizeMax)
	default:
		return "any"
	}
}

// Fingerprint returns a stable string form of the profile, independent of set ordering.
// Two profiles with the same criteria produce the same fingerprint.
func (p *ICPProfile) Fingerprint() string {
	if p == nil {
		return ""
	}
	var sb strings.Builder
	writeSet := func(name string, values []string) {
		normalized := make([]string, 0, len(values))
		for _, v := range values {
			if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
				normalized = append(normalized, v)
			}
		}
		sort.Strings(normalized)
		sb.WriteString(name)
		sb.WriteString("=")
		sb.WriteString(strings.Join(normalized, ","))
		sb.WriteString(";")
	}
	writeSet("industries", p.TargetIndustries)
	writeSet("locations", p.TargetLocations)
	writeSet("roles", p.KeyRoles)
	writeSet("technologies", p.TargetTechnologies)
	sb.WriteString("size=" + p.SizeRange() + ";")
	sb.WriteString("pain=" + strings.TrimSpace(p.PainPoints) + ";")
	sb.WriteString("anti=" + strings.TrimSpace(p.AntiICPCriteria))
	return sb.String()
}
