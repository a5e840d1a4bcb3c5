package domain

import "time"

type TicketStatus string

const (
	TicketStatusValid       TicketStatus = "valid"
	TicketStatusUsed        TicketStatus = "used"
	TicketStatusRefunded    TicketStatus = "refunded"
	TicketStatusRescheduled TicketStatus = "rescheduled"
	TicketStatusCancelled   TicketStatus = "cancelled"
)

type CabinClass string

const (
	CabinEconomy  CabinClass = "economy"
	CabinBusiness CabinClass = "business"
	CabinFirst    CabinClass = "first"
)

type Ticket struct {
	ID                int64
	Number            string
	OrderID           int64
	FlightID          int64
	PassengerName     string
	PassengerIDNumber string
	// SeatNumber stays empty until online check-in assigns one.
	SeatNumber    string
	CabinClass    CabinClass
	PriceCents    int64
	Status        TicketStatus
	CheckedIn     bool
	CheckedInAt   *time.Time
	BoardingPass  string
	Gate          string
	DepartureTime time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RescheduleLog records one executed flight change for a ticket.
type RescheduleLog struct {
	ID               int64
	OriginalTicketID int64
	NewTicketID      int64
	OriginalFlightID int64
	NewFlightID      int64
	PriceDiffCents   int64
	FeeCents         int64
	CreatedAt        time.Time
}
