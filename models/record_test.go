package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Set / Get ────────────────────────────────────────────────────────────────

func TestRecord_SetKeepsDeclarationOrder(t *testing.T) {
	r := NewRecord("Account")
	r.Set("Name", Scalar("Acme"))
	r.Set("Phone", Scalar("555"))
	r.Set("Name", Scalar("Acme Corp"))
	r.Set(FieldID, Scalar("001000000000001"))

	assert.Equal(t, []string{"Name", "Phone"}, r.Names())
	assert.Equal(t, "001000000000001", r.ID)

	v, ok := r.Get("Name")
	require.True(t, ok)
	s, _ := v.String()
	assert.Equal(t, "Acme Corp", s)

	assert.False(t, r.Has("Missing"))
}

func TestRecord_CopyThenSetAddsField(t *testing.T) {
	orig := NewRecord("Account")
	orig.Set("Name", Scalar("Acme"))

	cp := orig
	cp.Set("Phone", Scalar("555"))

	_, ok := orig.Get("Phone")
	assert.False(t, ok)
	assert.Equal(t, 1, orig.Len())
	assert.Equal(t, []string{"Name", "Phone"}, cp.Names())

	orig.Set("Website", Scalar("acme.test"))
	assert.Equal(t, []string{"Name", "Website"}, orig.Names())
	assert.Equal(t, []string{"Name", "Phone"}, cp.Names())
}

func TestRecord_CopyThenSetOverwritesField(t *testing.T) {
	orig := NewRecord("Account")
	orig.Set("Name", Scalar("Acme"))

	cp := orig
	cp.Set("Name", Scalar("Other"))

	v, _ := orig.Get("Name")
	s, _ := v.String()
	assert.Equal(t, "Acme", s)

	v, _ = cp.Get("Name")
	s, _ = v.String()
	assert.Equal(t, "Other", s)
}

// ── MarshalJSON ──────────────────────────────────────────────────────────────

func TestRecord_MarshalJSON(t *testing.T) {
	r := NewRecord("Contact")
	r.ID = "003000000000001"
	r.FieldsToNull = []string{"Phone"}
	r.Set("LastName", Scalar("Doe"))
	r.Set("Amount", Scalar(json.Number("12345678901234567890")))

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t,
		`{"type":"Contact","Id":"003000000000001","fieldsToNull":["Phone"],"LastName":"Doe","Amount":12345678901234567890}`,
		string(b))
}
