package types

import (
	"encoding/json"
	"fmt"
)

// NetworkFile is the on-disk form of a user's network, used by the CLI for offline runs and imports.
// Dates are RFC 3339 timestamps.
type NetworkFile struct {
	ICP         *ICPProfile         `json:"icp,omitempty"`
	Connections []NetworkConnection `json:"connections"`
	WorkHistory []WorkHistoryEntry  `json:"work_history"`
	Prospects   []Prospect          `json:"prospects"`
}

// ParseNetworkFile decodes a NetworkFile and checks every record.
func ParseNetworkFile(data []byte) (*NetworkFile, error) {
	var nf NetworkFile
	if err := json.Unmarshal(data, &nf); err != nil {
		return nil, fmt.Errorf("failed to parse network file JSON: %w", err)
	}

	if nf.ICP != nil {
		if err := nf.ICP.Validate(); err != nil {
			return nil, fmt.Errorf("invalid icp: %w", err)
		}
	}
	for i := range nf.Connections {
		if err := nf.Connections[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid connection %d (%s): %w", i, nf.Connections[i].CompanyName, err)
		}
	}
	for i := range nf.WorkHistory {
		if err := nf.WorkHistory[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid work history entry %d: %w", i, err)
		}
	}
	for i := range nf.Prospects {
		if err := nf.Prospects[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid prospect %d: %w", i, err)
		}
	}
	return &nf, nil
}
