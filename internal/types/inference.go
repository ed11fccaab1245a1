package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InferenceType describes how a path to a target company was found
type InferenceType string

// InferenceType constants
const (
	InferenceDirect           InferenceType = "DIRECT"
	InferenceAlumni           InferenceType = "ALUMNI"
	InferenceIndustry         InferenceType = "INDUSTRY"
	InferenceGeography        InferenceType = "GEOGRAPHY"
	InferenceMutualConnection InferenceType = "MUTUAL_CONNECTION"
)

// Priority orders inference types for tie-breaks; lower wins.
func (t InferenceType) Priority() int {
	switch t {
	case InferenceDirect:
		return 0
	case InferenceAlumni:
		return 1
	case InferenceIndustry:
		return 2
	case InferenceGeography:
		return 3
	case InferenceMutualConnection:
		return 4
	default:
		return 5
	}
}

// MatchType is the ICP classification bucket of a match
type MatchType string

// MatchType constants
const (
	MatchFull    MatchType = "FULL"
	MatchPartial MatchType = "PARTIAL"
	MatchNone    MatchType = "NONE"
)

// MatchSource identifies which user data produced a match
type MatchSource string

// MatchSource constants
const (
	SourceNetwork     MatchSource = "NETWORK"
	SourceWorkHistory MatchSource = "WORK_HISTORY"
)

// SupportingData is the structured evidence attached to an InferredRelationship.
// BridgeContact is required; everything else is optional.
type SupportingData struct {
	BridgeContact *KeyContact `json:"bridge_contact" validate:"required"`
	ConnectionID  *uuid.UUID  `json:"connection_id,omitempty"`
	MatchType     MatchType   `json:"match_type,omitempty" validate:"omitempty,oneof=FULL PARTIAL"`
	Criteria      []string    `json:"criteria,omitempty"`
	Source        MatchSource `json:"source,omitempty" validate:"omitempty,oneof=NETWORK WORK_HISTORY"`
}

// Validate checks the required sub-fields.
func (d *SupportingData) Validate() error {
	if err := validate.Struct(d); err != nil {
		return err
	}
	if d.BridgeContact.Name == "" {
		return fmt.Errorf("bridge_contact.name is required")
	}
	return nil
}

// DecodeSupportingData parses a stored supporting_data blob.
// Malformed or incomplete blobs return ok=false and an empty value; callers fall back.
func DecodeSupportingData(raw []byte) (SupportingData, bool) {
	if len(raw) == 0 {
		return SupportingData{}, false
	}
	var d SupportingData
	if err := json.Unmarshal(raw, &d); err != nil {
		return SupportingData{}, false
	}
	if err := d.Validate(); err != nil {
		return SupportingData{}, false
	}
	return d, true
}

// InferredRelationship is a candidate introduction path to a target company.
type InferredRelationship struct {
	ID              uuid.UUID      `json:"id"`
	UserID          uuid.UUID      `json:"user_id"`
	TargetCompany   string         `json:"target_company" validate:"required"`
	BridgeCompany   *string        `json:"bridge_company,omitempty"`
	InferenceType   InferenceType  `json:"inference_type" validate:"required,oneof=DIRECT ALUMNI INDUSTRY GEOGRAPHY MUTUAL_CONNECTION"`
	ConfidenceScore int            `json:"confidence_score" validate:"min=0,max=100"`
	Reasoning       string         `json:"reasoning" validate:"required"`
	SupportingData  SupportingData `json:"supporting_data"`
	IsActive        bool           `json:"is_active"`
	Generation      int64          `json:"generation,omitempty"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

// Validate checks that the relationship is fully formed.
func (r *InferredRelationship) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	return r.SupportingData.Validate()
}

// Clone returns a copy of r that shares no pointers or slices with it.
func (r InferredRelationship) Clone() InferredRelationship {
	if r.BridgeCompany != nil {
		bc := *r.BridgeCompany
		r.BridgeCompany = &bc
	}
	d := &r.SupportingData
	if d.BridgeContact != nil {
		kc := *d.BridgeContact
		d.BridgeContact = &kc
	}
	if d.ConnectionID != nil {
		id := *d.ConnectionID
		d.ConnectionID = &id
	}
	if d.Criteria != nil {
		d.Criteria = append([]string{}, d.Criteria...)
	}
	return r
}

// MatchResult is the ICP match outcome for one candidate company in one analysis run.
type MatchResult struct {
	ConnectionID     *uuid.UUID  `json:"connection_id,omitempty"`
	CompanyName      string      `json:"company_name"`
	MatchScore       int         `json:"match_score"`
	MatchType        MatchType   `json:"match_type"`
	MatchingCriteria []string    `json:"matching_criteria"`
	Source           MatchSource `json:"source"`
}

// ScoreWriteBack updates the icp_match_* cache on one NetworkConnection.
// Nil fields clear the cached value.
type ScoreWriteBack struct {
	ConnectionID uuid.UUID  `json:"connection_id"`
	Score        *int       `json:"score,omitempty"`
	MatchType    *MatchType `json:"match_type,omitempty"`
	Reason       *string    `json:"reason,omitempty"`
}
