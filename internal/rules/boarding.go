package rules

import "time"

// BoardingOffset is how long before departure boarding starts.
const BoardingOffset = 30 * time.Minute

// Accepted textual departure layouts, tried in order.
var departureLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// BoardingTime derives the boarding time as departure minus
// BoardingOffset. time.Time arithmetic keeps the result calendar-correct
// across day, month and year boundaries. ok is false for the zero instant.
func BoardingTime(departure time.Time) (time.Time, bool) {
	if departure.IsZero() {
		return time.Time{}, false
	}
	return departure.Add(-BoardingOffset), true
}

// ParseBoardingTime computes the boarding time from a textual departure
// instant. Unparseable input yields ok false.
func ParseBoardingTime(value string) (time.Time, bool) {
	for _, layout := range departureLayouts {
		if departure, err := time.Parse(layout, value); err == nil {
			return BoardingTime(departure)
		}
	}
	return time.Time{}, false
}

// FormatBoardingTime renders the boarding time for a departure as a
// zero-padded 24-hour "HH:MM" string in the given location, or "" when no
// boarding time can be derived. A nil location keeps the departure's own
// location.
func FormatBoardingTime(departure time.Time, loc *time.Location) string {
	boarding, ok := BoardingTime(departure)
	if !ok {
		return ""
	}
	if loc != nil {
		boarding = boarding.In(loc)
	}
	return boarding.Format("15:04")
}
