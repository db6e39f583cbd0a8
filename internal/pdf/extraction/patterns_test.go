package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchLabel(t *testing.T) {
	tests := []struct {
		label   string
		fieldID string
		kind    FieldKind
	}{
		{label: "Owner(s):", fieldID: "owner_name", kind: FieldKindText},
		{label: "Owner Name", fieldID: "owner_name", kind: FieldKindText},
		{label: "  OWNERS  :", fieldID: "owner_name", kind: FieldKindText},
		{label: "Owner Full Name:", fieldID: "owner_name", kind: FieldKindText},
		{label: "Tenant Name:", fieldID: "tenant_name", kind: FieldKindText},
		{label: "Lessee(s):", fieldID: "tenant_name", kind: FieldKindText},
		{label: "Property Address:", fieldID: "property_address", kind: FieldKindText},
		{label: "Premises:", fieldID: "property_address", kind: FieldKindText},
		{label: "Mailing Address:", fieldID: "owner_address", kind: FieldKindText},
		{label: "Address", fieldID: "owner_address", kind: FieldKindText},
		{label: "E-mail:", fieldID: "owner_email", kind: FieldKindText},
		{label: "Owner Email Address", fieldID: "owner_email", kind: FieldKindText},
		{label: "Phone:", fieldID: "owner_phone", kind: FieldKindText},
		{label: "Telephone Number:", fieldID: "owner_phone", kind: FieldKindText},
		{label: "Effective Date:", fieldID: "effective_date", kind: FieldKindDate},
		{label: "Commencement Date", fieldID: "lease_start_date", kind: FieldKindDate},
		{label: "Lease Start Date:", fieldID: "lease_start_date", kind: FieldKindDate},
		{label: "Date:", fieldID: "signature_date", kind: FieldKindDate},
		{label: "Date Signed", fieldID: "signature_date", kind: FieldKindDate},
		{label: "Manager's Signature:", fieldID: "manager_signature", kind: FieldKindSignature},
		{label: "Agent Signature", fieldID: "manager_signature", kind: FieldKindSignature},
		{label: "Owner Signature:", fieldID: "owner_signature", kind: FieldKindSignature},
		{label: "Signature:", fieldID: "owner_signature", kind: FieldKindSignature},
		{label: "Printed Name:", fieldID: "printed_name", kind: FieldKindText},
		{label: "Print Name", fieldID: "printed_name", kind: FieldKindText},
		{label: "Initials:", fieldID: "owner_initials", kind: FieldKindText},
		{label: "SSN/EIN:", fieldID: "owner_tax_id", kind: FieldKindText},
		{label: "Tax ID Number", fieldID: "owner_tax_id", kind: FieldKindText},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			p, ok := MatchLabel(tt.label)
			assert.True(t, ok)
			assert.Equal(t, tt.fieldID, p.FieldID)
			assert.Equal(t, tt.kind, p.Kind)
		})
	}
}

func TestMatchLabel_NoMatch(t *testing.T) {
	labels := []string{
		"",
		":",
		"Terms and Conditions",
		"The owner agrees to the following:",
		"Datebook",
		"Signature of the witness and notary",
	}

	for _, label := range labels {
		_, ok := MatchLabel(label)
		assert.False(t, ok, label)
	}
}

func TestLabelPatterns_ReturnsCopy(t *testing.T) {
	patterns := LabelPatterns()
	assert.Len(t, patterns, len(labelTable))
	patterns[0].FieldID = "changed"
	assert.Equal(t, "owner_name", labelTable[0].FieldID)
}

func TestMatchPackage(t *testing.T) {
	tests := []struct {
		label string
		pct   string
		ok    bool
	}{
		{label: "15% Management", pct: "15", ok: true},
		{label: "Full service 18 %", pct: "18", ok: true},
		{label: "20%", pct: "20", ok: true},
		{label: "Premium (25%)", pct: "25", ok: true},
		{label: "115%", ok: false},
		{label: "10%", ok: false},
		{label: "2.5%", ok: false},
		{label: "Pets allowed", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			pct, ok := MatchPackage(tt.label)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.pct, pct)
		})
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "pets_allowed", slugify("Pets allowed?"))
	assert.Equal(t, "option", slugify(""))
	assert.Equal(t, "option", slugify("!!!"))
	assert.LessOrEqual(t, len(slugify("a very long label that keeps going well past any reasonable length")), maxSlugLength)
}

func TestFindGlyphs(t *testing.T) {
	marks := findGlyphs("Fee: ☐ 15% ○ 18%")
	require.Len(t, marks, 2)
	assert.Equal(t, 5, marks[0].runeIndex)
	assert.Equal(t, "☐", "Fee: ☐ 15% ○ 18%"[marks[0].start:marks[0].end])
	assert.Equal(t, 11, marks[1].runeIndex)

	assert.Empty(t, findGlyphs("Pets allowed"))

	head, cut := cutAtGlyph("Yes ○ No")
	assert.True(t, cut)
	assert.Equal(t, "Yes ", head)
}
