package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// LabelPattern maps printed label text onto a semantic field
type LabelPattern struct {
	Pattern  *regexp.Regexp
	Kind     FieldKind
	FieldID  string
	Required bool
}

// labelTable is matched in order; specific labels come before generic ones.
// Patterns run against the cleaned label (see cleanLabel), so they never see
// the trailing colon.
var labelTable = []LabelPattern{
	{regexp.MustCompile(`(?i)^owner(\(s\)|s)?(\s+(full\s+)?name(\(s\))?)?$`), FieldKindText, "owner_name", true},
	{regexp.MustCompile(`(?i)^(tenant|lessee|resident)(\(s\)|s)?(\s+name(\(s\))?)?$`), FieldKindText, "tenant_name", false},
	{regexp.MustCompile(`(?i)^(property|premises|rental)(\s+address)?$`), FieldKindText, "property_address", true},
	{regexp.MustCompile(`(?i)^((owner|mailing)\s+)?address$`), FieldKindText, "owner_address", false},
	{regexp.MustCompile(`(?i)^(owner\s+)?e-?mail(\s+address)?$`), FieldKindText, "owner_email", false},
	{regexp.MustCompile(`(?i)^(owner\s+)?(phone|telephone|tel\.?|cell)(\s+(number|no\.?|#))?$`), FieldKindText, "owner_phone", false},
	{regexp.MustCompile(`(?i)^effective\s+date$`), FieldKindDate, "effective_date", true},
	{regexp.MustCompile(`(?i)^(lease\s+)?(start|commencement)\s+date$`), FieldKindDate, "lease_start_date", false},
	{regexp.MustCompile(`(?i)^date(\s+signed)?$`), FieldKindDate, "signature_date", false},
	{regexp.MustCompile(`(?i)^(manager|agent|broker)('s)?\s+signature$`), FieldKindSignature, "manager_signature", false},
	{regexp.MustCompile(`(?i)^((owner|lessor)('s)?\s+)?signature$`), FieldKindSignature, "owner_signature", true},
	{regexp.MustCompile(`(?i)^print(ed)?\s+name$`), FieldKindText, "printed_name", false},
	{regexp.MustCompile(`(?i)^(owner\s+)?initials$`), FieldKindText, "owner_initials", false},
	{regexp.MustCompile(`(?i)^(tax\s+id|ssn|ein|ssn\s*/\s*ein)(\s+(number|no\.?|#))?$`), FieldKindText, "owner_tax_id", false},
}

var (
	underlineRe = regexp.MustCompile(`_{4,}`)
	packageRe   = regexp.MustCompile(`(?:^|[^0-9.])(15|18|20|25)\s*%`)
	spaceRe     = regexp.MustCompile(`\s+`)
	slugRe      = regexp.MustCompile(`[^a-z0-9]+`)
)

// checkboxGlyphs are the printed empty-box and circle markers
var checkboxGlyphs = map[rune]bool{
	'☐': true,
	'□': true,
	'◯': true,
	'○': true,
	'◻': true,
	'▢': true,
}

const maxSlugLength = 40

// LabelPatterns returns a copy of the label table in match order
func LabelPatterns() []LabelPattern {
	out := make([]LabelPattern, len(labelTable))
	copy(out, labelTable)
	return out
}

// MatchLabel finds the first table entry matching the label text
func MatchLabel(text string) (LabelPattern, bool) {
	label := cleanLabel(text)
	if label == "" {
		return LabelPattern{}, false
	}
	for _, p := range labelTable {
		if p.Pattern.MatchString(label) {
			return p, true
		}
	}
	return LabelPattern{}, false
}

// MatchPackage returns the package percentage named in a label, if any
func MatchPackage(label string) (string, bool) {
	m := packageRe.FindStringSubmatch(label)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// cleanLabel trims whitespace and trailing colons and collapses inner spaces
func cleanLabel(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimRight(s, ": \t")
	return spaceRe.ReplaceAllString(s, " ")
}

// slugify reduces a label to a lowercase identifier fragment
func slugify(label string) string {
	s := slugRe.ReplaceAllString(strings.ToLower(label), "_")
	s = strings.Trim(s, "_")
	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "_")
	}
	if s == "" {
		return "option"
	}
	return s
}

// glyphMark locates one checkbox glyph inside a run's text
type glyphMark struct {
	start, end int // byte span
	runeIndex  int
}

// findGlyphs returns every checkbox glyph in text, left to right
func findGlyphs(text string) []glyphMark {
	var marks []glyphMark
	n := 0
	for i, r := range text {
		if checkboxGlyphs[r] {
			marks = append(marks, glyphMark{start: i, end: i + utf8.RuneLen(r), runeIndex: n})
		}
		n++
	}
	return marks
}

// cutAtGlyph returns text up to the first checkbox glyph
func cutAtGlyph(text string) (string, bool) {
	for i, r := range text {
		if checkboxGlyphs[r] {
			return text[:i], true
		}
	}
	return text, false
}
