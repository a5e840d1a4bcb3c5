package rules

// AisleIndex returns the column index where the walking aisle sits for a
// row with columnCount seat columns. The common narrow-body layouts are
// fixed (6 columns: A B C | D E F, aisle at 3; 4 columns: A B | D E,
// aisle at 2); any other positive count places the aisle at the midpoint.
// ok is false when columnCount is not positive.
func AisleIndex(columnCount int) (int, bool) {
	if columnCount <= 0 {
		return 0, false
	}
	switch columnCount {
	case 6:
		return 3, true
	case 4:
		return 2, true
	}
	return columnCount / 2, true
}

// IsAislePosition reports whether index is the aisle gap for the given
// column count. Negative indexes and non-positive column counts are never
// aisle positions.
func IsAislePosition(index, columnCount int) bool {
	if index < 0 {
		return false
	}
	aisle, ok := AisleIndex(columnCount)
	return ok && index == aisle
}
