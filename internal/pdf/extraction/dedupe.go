package extraction

// Dedupe drops fields whose FieldID was already seen. The first occurrence
// wins and relative order is preserved.
func Dedupe(fields []ExtractedField) []ExtractedField {
	if len(fields) == 0 {
		return fields
	}

	seen := make(map[string]struct{}, len(fields))
	out := make([]ExtractedField, 0, len(fields))
	for _, f := range fields {
		if _, dup := seen[f.FieldID]; dup {
			continue
		}
		seen[f.FieldID] = struct{}{}
		out = append(out, f)
	}
	return out
}
