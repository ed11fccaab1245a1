package db

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/warm-intros/internal/types"
)

// encodeKeyContacts renders contacts for the key_contacts JSONB column; nil becomes an empty array.
func encodeKeyContacts(contacts []types.KeyContact) ([]byte, error) {
	if contacts == nil {
		contacts = []types.KeyContact{}
	}
	data, err := json.Marshal(contacts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key contacts: %w", err)
	}
	return data, nil
}

// decodeKeyContacts parses a key_contacts blob. Malformed blobs yield no contacts.
func decodeKeyContacts(raw []byte) []types.KeyContact {
	if len(raw) == 0 {
		return nil
	}
	var contacts []types.KeyContact
	if err := json.Unmarshal(raw, &contacts); err != nil {
		return nil
	}
	return contacts
}

func encodeSupportingData(d types.SupportingData) ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal supporting data: %w", err)
	}
	return data, nil
}

func matchTypeToText(mt *types.MatchType) *string {
	if mt == nil {
		return nil
	}
	s := string(*mt)
	return &s
}

func textToMatchType(s *string) *types.MatchType {
	if s == nil {
		return nil
	}
	mt := types.MatchType(*s)
	return &mt
}

// limitArg maps a non-positive limit to SQL NULL, which Postgres reads as LIMIT ALL.
func limitArg(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}

func offsetArg(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
