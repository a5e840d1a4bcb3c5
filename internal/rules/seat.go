// Package rules holds the pure booking and check-in display rules: seat
// classification, cabin aisle layout, countdown and boarding-time
// formatting, identifier masking and reschedule fee math. Everything here
// is side-effect free; invalid input is reported through sentinel values,
// never through errors or panics.
package rules

import "slices"

// SeatStatus is the display category of one seat on the check-in seat map.
type SeatStatus string

const (
	SeatOccupied  SeatStatus = "occupied"
	SeatSelected  SeatStatus = "selected"
	SeatCurrent   SeatStatus = "current"
	SeatAvailable SeatStatus = "available"
)

// IsSeatOccupied reports whether the seat is taken by another passenger.
// The passenger's own current seat never counts as occupied, even when it
// appears in the occupied list.
func IsSeatOccupied(seat string, occupied []string, current *string) bool {
	if current != nil && seat == *current {
		return false
	}
	return slices.Contains(occupied, seat)
}

// IsSeatSelected reports whether the seat is the one the passenger has
// picked. A nil selected means no selection has been made yet.
func IsSeatSelected(seat string, selected *string) bool {
	return selected != nil && *selected == seat
}

// IsCurrentSeat reports whether the seat is the passenger's original seat
// and is not the one currently selected.
func IsCurrentSeat(seat string, current, selected *string) bool {
	if current == nil || *current != seat {
		return false
	}
	return selected == nil || *selected != seat
}

// ClassifySeat resolves the display status of a seat. Precedence, first
// match wins: occupied, selected, current, available.
func ClassifySeat(seat string, occupied []string, current, selected *string) SeatStatus {
	if IsSeatOccupied(seat, occupied, current) {
		return SeatOccupied
	}
	if IsSeatSelected(seat, selected) {
		return SeatSelected
	}
	if IsCurrentSeat(seat, current, selected) {
		return SeatCurrent
	}
	return SeatAvailable
}
