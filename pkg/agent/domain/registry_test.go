package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinProfiles(t *testing.T) {
	reg, err := Builtin()
	require.NoError(t, err)

	tests := []struct {
		stream     string
		firstCol   string
		firstExpr  string
		generalHas string
	}{
		{"scm", "Item Number", "esi.item_number", "supply chain"},
		{"hcm", "Person ID", "papf.person_id", "employee-related"},
	}

	for _, tt := range tests {
		t.Run(tt.stream, func(t *testing.T) {
			p, ok := reg.Lookup(strings.ToUpper(tt.stream))
			require.True(t, ok)
			require.NotEmpty(t, p.Columns)
			assert.Equal(t, tt.firstCol, p.Columns[0].Concept)
			assert.Equal(t, tt.firstExpr, p.Columns[0].Expression)
			assert.Contains(t, p.GeneralResponse, tt.generalHas)
		})
	}

	streams := reg.Profiles()
	require.Len(t, streams, 2)
	assert.Equal(t, "hcm", streams[0].Stream)
	assert.Equal(t, "scm", streams[1].Stream)
}

func TestRenderPrompts(t *testing.T) {
	reg, err := Builtin()
	require.NoError(t, err)
	p, _ := reg.Lookup("scm")

	prompt, err := p.RenderClassification("How many laptops are in warehouse A?")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Question: How many laptops are in warehouse A?")

	prompt, err = p.RenderAdapter("user: hi", "SELECT esi.item_number FROM egp_system_items_b esi")
	require.NoError(t, err)
	assert.Contains(t, prompt, "user: hi")
	assert.Contains(t, prompt, "FROM egp_system_items_b esi")
	assert.Contains(t, prompt, "- Item Number: esi.item_number\n- Organization Code: iop.organization_code")
}

func TestParseRejectsBadProfiles(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "profiles: []"},
		{"missing stream", "profiles:\n  - general_response: hi\n"},
		{"missing general response", "profiles:\n  - stream: x\n"},
		{"bad template", "profiles:\n  - stream: x\n    general_response: hi\n    classification_prompt: \"{{ .Question \"\n"},
		{"duplicate", "profiles:\n  - stream: x\n    general_response: hi\n  - stream: X\n    general_response: hi\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}
