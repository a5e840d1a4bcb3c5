package rules

import "strings"

// maskVisibleEdge is how many leading and trailing characters stay
// readable when an identifier is long enough to be partially masked.
const maskVisibleEdge = 4

// MaskIDNumber redacts the middle of a passenger identifier for display.
// Identifiers of eight characters or fewer are fully masked; longer ones
// keep the first and last four characters. The result always has the same
// number of characters as the input; empty input stays empty.
func MaskIDNumber(id string) string {
	runes := []rune(id)
	n := len(runes)
	if n == 0 {
		return ""
	}
	if n <= 2*maskVisibleEdge {
		return strings.Repeat("*", n)
	}
	return string(runes[:maskVisibleEdge]) +
		strings.Repeat("*", n-2*maskVisibleEdge) +
		string(runes[n-maskVisibleEdge:])
}
