package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConnectionType classifies how the user knows a company
type ConnectionType string

// ConnectionType constants
const (
	ConnectionExColleague ConnectionType = "ex-colleague"
	ConnectionClient      ConnectionType = "client"
	ConnectionVendor      ConnectionType = "vendor"
	ConnectionInvestor    ConnectionType = "investor"
	ConnectionOther       ConnectionType = "other"
)

// TagExColleague marks a connection as a former colleague of the user
const TagExColleague = "ex-colleague"

// KeyContact is a person at a connected company. Name may be blank when only the title is known.
type KeyContact struct {
	Name         string `json:"name"`
	Title        string `json:"title,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

// NetworkConnection is a company in the user's network.
// The ICPMatch* fields are a read cache written back after each analysis run.
type NetworkConnection struct {
	ID                   uuid.UUID      `json:"id"`
	UserID               uuid.UUID      `json:"user_id"`
	CompanyName          string         `json:"company_name" validate:"required"`
	CompanyDomain        string         `json:"company_domain,omitempty"`
	RelationshipStrength int            `json:"relationship_strength" validate:"min=1,max=5"`
	ContactCount         int            `json:"contact_count" validate:"min=0"`
	KeyContacts          []KeyContact   `json:"key_contacts,omitempty"`
	ConnectionType       ConnectionType `json:"connection_type" validate:"omitempty,oneof=ex-colleague client vendor investor other"`
	Tags                 []string       `json:"tags,omitempty"`
	ICPMatchScore        *int           `json:"icp_match_score,omitempty" validate:"omitempty,min=0,max=100"`
	ICPMatchType         *MatchType     `json:"icp_match_type,omitempty"`
	ICPMatchReason       *string        `json:"icp_match_reason,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// Validate checks the connection invariants.
func (c *NetworkConnection) Validate() error {
	return validate.Struct(c)
}

// HasTag reports whether the connection carries tag (case-insensitive).
func (c *NetworkConnection) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if strings.EqualFold(strings.TrimSpace(t), tag) {
			return true
		}
	}
	return false
}

// IsExColleague reports whether the connection is tagged or typed as a former colleague.
func (c *NetworkConnection) IsExColleague() bool {
	return c.ConnectionType == ConnectionExColleague || c.HasTag(TagExColleague)
}

// WorkHistoryEntry is one of the user's past or current employers
type WorkHistoryEntry struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	CompanyName string     `json:"company_name" validate:"required"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	IsCurrent   bool       `json:"is_current"`
}

// Validate checks the work history entry invariants.
func (w *WorkHistoryEntry) Validate() error {
	return validate.Struct(w)
}

// GenericBridgeContact is the last-resort bridge when nothing better is known
const GenericBridgeContact = "Network Connection"

// BridgeContact picks the contact to ask for an introduction:
// the first key contact, else a contact-count placeholder, else a generic label.
func (c *NetworkConnection) BridgeContact() KeyContact {
	for _, kc := range c.KeyContacts {
		if strings.TrimSpace(kc.Name) != "" {
			return kc
		}
	}
	if c.ContactCount > 0 {
		return KeyContact{Name: fmt.Sprintf("%d contacts at %s", c.ContactCount, c.CompanyName)}
	}
	return KeyContact{Name: GenericBridgeContact}
}
