package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRawDocument_Fields tests RawDocument structure fields
func TestRawDocument_Fields(t *testing.T) {
	raw := RawDocument{
		URI:      "/papers/phy201-2023.pdf",
		MIMEType: "application/pdf",
		Content:  []byte("%PDF-1.7"),
	}

	assert.Equal(t, "/papers/phy201-2023.pdf", raw.URI)
	assert.Equal(t, "application/pdf", raw.MIMEType)
	assert.Equal(t, []byte("%PDF-1.7"), raw.Content)
}

// TestChangeType_String tests change type names
func TestChangeType_String(t *testing.T) {
	tests := []struct {
		change   ChangeType
		expected string
	}{
		{ChangeCreated, "created"},
		{ChangeUpdated, "updated"},
		{ChangeDeleted, "deleted"},
		{ChangeType(42), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.change.String())
	}
}

// TestChangeType_Ordering tests the iota values are stable
func TestChangeType_Ordering(t *testing.T) {
	assert.Equal(t, ChangeType(0), ChangeCreated)
	assert.Equal(t, ChangeType(1), ChangeUpdated)
	assert.Equal(t, ChangeType(2), ChangeDeleted)
}
