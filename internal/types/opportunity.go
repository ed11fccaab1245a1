package types

import (
	"time"

	"github.com/google/uuid"
)

// OpportunityKind distinguishes warm introductions from outbound prospects
type OpportunityKind string

// OpportunityKind constants
const (
	KindIntro    OpportunityKind = "INTRO"
	KindOutbound OpportunityKind = "OUTBOUND"
)

// OpportunityStatus is the pipeline stage of an opportunity
type OpportunityStatus string

// OpportunityStatus constants
const (
	StatusSuggested  OpportunityStatus = "Suggested"
	StatusRequested  OpportunityStatus = "Requested"
	StatusInProgress OpportunityStatus = "InProgress"
	StatusWon        OpportunityStatus = "Won"
	StatusLost       OpportunityStatus = "Lost"
)

// ParseOpportunityStatus maps a stored status to a known value, defaulting to Suggested.
func ParseOpportunityStatus(s string) OpportunityStatus {
	switch OpportunityStatus(s) {
	case StatusSuggested, StatusRequested, StatusInProgress, StatusWon, StatusLost:
		return OpportunityStatus(s)
	case "In Progress", "in_progress":
		return StatusInProgress
	default:
		return StatusSuggested
	}
}

// Prospect is an independently sourced outbound target
type Prospect struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	CompanyName string    `json:"company_name" validate:"required"`
	ContactName string    `json:"contact_name,omitempty"`
	AIScore     int       `json:"ai_score" validate:"min=0,max=100"`
	Reasoning   string    `json:"reasoning,omitempty"`
	Status      string    `json:"status,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks the prospect invariants.
func (p *Prospect) Validate() error {
	return validate.Struct(p)
}

// Opportunity is the merged read-time view over inferences and prospects. Never persisted.
type Opportunity struct {
	ID            uuid.UUID         `json:"id"`
	Kind          OpportunityKind   `json:"kind"`
	TargetCompany string            `json:"target_company"`
	BridgeContact string            `json:"bridge_contact,omitempty"`
	AIScore       int               `json:"ai_score"`
	Reasoning     string            `json:"reasoning"`
	Status        OpportunityStatus `json:"status"`
	CreatedDate   time.Time         `json:"created_date"`
}
