package utils

import "strings"

// nullPlate is what some gate firmware writes when recognition fails.
const nullPlate = "NULL"

// NormalizePlate brings a plate to its canonical form: whitespace and dashes
// removed, upper case. Empty input and the NULL sentinel normalize to "".
func NormalizePlate(raw string) string {
	normalized := strings.Join(strings.Fields(raw), "")
	normalized = strings.ReplaceAll(normalized, "-", "")
	normalized = strings.ToUpper(normalized)
	if normalized == nullPlate {
		return ""
	}
	return normalized
}
