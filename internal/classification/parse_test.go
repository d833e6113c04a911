package classification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDraftPlainObject(t *testing.T) {
	draft, err := parseDraft(`{"customer":"John","email":"john@x.com","category":"bug","urgency":"high","summary":"crash","rationale":"crash report"}`)
	require.NoError(t, err)
	assert.Equal(t, "John", draft.Customer)
	assert.Equal(t, "bug", draft.Category)
	assert.Equal(t, "high", draft.Urgency)
	assert.Equal(t, "crash report", draft.Rationale)
}

func TestParseDraftWrappedInProse(t *testing.T) {
	raw := "Here is the triage result:\n```json\n{\"category\": \"billing\", \"urgency\": \"low\"}\n```\nLet me know if you need anything else."
	draft, err := parseDraft(raw)
	require.NoError(t, err)
	assert.Equal(t, "billing", draft.Category)
	assert.Equal(t, "low", draft.Urgency)
}

func TestParseDraftMissingKeysTolerated(t *testing.T) {
	draft, err := parseDraft(`{"category":"other"}`)
	require.NoError(t, err)
	assert.Equal(t, "other", draft.Category)
	assert.Empty(t, draft.Customer)
	assert.Empty(t, draft.Email)
	assert.Empty(t, draft.Urgency)
}

func TestParseDraftNoObject(t *testing.T) {
	_, err := parseDraft("I could not classify this message.")
	assert.Error(t, err)
}

func TestParseDraftMalformedObject(t *testing.T) {
	_, err := parseDraft(`{"category": "bug",`)
	assert.Error(t, err)
}
