package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOpportunityStatus(t *testing.T) {
	tests := []struct {
		in   string
		want OpportunityStatus
	}{
		{"Suggested", StatusSuggested},
		{"Requested", StatusRequested},
		{"InProgress", StatusInProgress},
		{"In Progress", StatusInProgress},
		{"in_progress", StatusInProgress},
		{"Won", StatusWon},
		{"Lost", StatusLost},
		{"", StatusSuggested},
		{"archived", StatusSuggested},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseOpportunityStatus(tt.in), tt.in)
	}
}

func TestProspectValidate(t *testing.T) {
	ok := Prospect{CompanyName: "Umbrella", AIScore: 71}
	assert.NoError(t, ok.Validate())

	missing := Prospect{AIScore: 10}
	assert.Error(t, missing.Validate())

	outOfRange := Prospect{CompanyName: "Umbrella", AIScore: 130}
	assert.Error(t, outOfRange.Validate())
}
