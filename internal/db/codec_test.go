package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/warm-intros/internal/types"
)

func TestKeyContactsRoundTrip(t *testing.T) {
	data, err := encodeKeyContacts([]types.KeyContact{{Name: "Dana Ortiz", Title: "CTO"}})
	require.NoError(t, err)

	got := decodeKeyContacts(data)
	require.Len(t, got, 1)
	assert.Equal(t, "Dana Ortiz", got[0].Name)
	assert.Equal(t, "CTO", got[0].Title)
}

func TestEncodeKeyContacts_NilIsEmptyArray(t *testing.T) {
	data, err := encodeKeyContacts(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestDecodeKeyContacts_Malformed(t *testing.T) {
	assert.Nil(t, decodeKeyContacts([]byte(`{"name":`)))
	assert.Nil(t, decodeKeyContacts(nil))
}

func TestMatchTypeText(t *testing.T) {
	assert.Nil(t, matchTypeToText(nil))
	assert.Nil(t, textToMatchType(nil))

	full := types.MatchFull
	text := matchTypeToText(&full)
	require.NotNil(t, text)
	assert.Equal(t, "FULL", *text)

	back := textToMatchType(text)
	require.NotNil(t, back)
	assert.Equal(t, types.MatchFull, *back)
}

func TestLimitAndOffsetArgs(t *testing.T) {
	assert.Nil(t, limitArg(0))
	assert.Nil(t, limitArg(-3))
	require.NotNil(t, limitArg(20))
	assert.Equal(t, 20, *limitArg(20))

	assert.Equal(t, 0, offsetArg(-1))
	assert.Equal(t, 40, offsetArg(40))
}

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	require.NotNil(t, nullIfEmpty("acme.io"))
	assert.Equal(t, "acme.io", *nullIfEmpty("acme.io"))
}

func TestMigrationNames_Sorted(t *testing.T) {
	names, err := migrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_init.sql", names[0])
	assert.IsNonDecreasing(t, names)
}

func TestConnect_RequiresURL(t *testing.T) {
	_, err := Connect(t.Context(), "")
	assert.Error(t, err)
}
