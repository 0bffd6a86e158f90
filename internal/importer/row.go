package importer

import (
	"strconv"
	"strings"
)

// splitRow splits a line on bare commas. This is deliberately not RFC 4180:
// quoted fields containing commas are split apart. Each field is trimmed,
// then loses at most one leading and one trailing double quote.
func splitRow(line string) []string {
	parts := strings.Split(line, ",")
	for i, p := range parts {
		parts[i] = stripQuotes(strings.TrimSpace(p))
	}
	return parts
}

func stripQuotes(s string) string {
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}

// fieldAt reads a mapped column out of a row, tolerating short rows.
func fieldAt(values []string, idx int) string {
	if idx < 0 || idx >= len(values) {
		return ""
	}
	return values[idx]
}

// parseLeadValue strips everything but digits, dots and minus signs before
// parsing. Anything unparseable becomes 0.
func parseLeadValue(raw string) float64 {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return v
}

// normalizePriority title-cases a recognized priority and falls back to
// Medium for anything else.
func normalizePriority(raw string) string {
	switch strings.ToLower(raw) {
	case "low":
		return "Low"
	case "medium":
		return "Medium"
	case "high":
		return "High"
	default:
		return "Medium"
	}
}
