package domain

import "time"

type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "SCHEDULED"
	FlightStatusFull      FlightStatus = "FULL"
	FlightStatusDeparted  FlightStatus = "DEPARTED"
	FlightStatusCancelled FlightStatus = "CANCELLED"
)

type Flight struct {
	ID             int64
	Number         string
	Airline        string
	FromCity       string
	ToCity         string
	DepartureTime  time.Time
	ArrivalTime    time.Time
	PriceCents     int64
	SeatRows       int
	SeatsPerRow    int
	TotalSeats     int
	AvailableSeats int
	Status         FlightStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
