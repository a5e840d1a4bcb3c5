package rules

import (
	"time"

	"github.com/kmalyshev/flybooking/internal/domain"
)

// MinHoursBeforeDeparture is the reschedule cutoff: a ticket may only be
// rescheduled while departure is strictly more than this many hours away.
const MinHoursBeforeDeparture = 2

// CanRescheduleAt decides whether a ticket/order pair qualifies for a
// flight change at the given instant. All conditions must hold: the
// ticket is valid, the order is paid or ticketed, and departure is
// strictly more than MinHoursBeforeDeparture hours after now. A missing
// ticket or order is never eligible.
func CanRescheduleAt(ticket *domain.Ticket, order *domain.Order, now time.Time) bool {
	if ticket == nil || order == nil {
		return false
	}
	if ticket.Status != domain.TicketStatusValid {
		return false
	}
	if order.Status != domain.OrderStatusPaid && order.Status != domain.OrderStatusTicketed {
		return false
	}
	return ticket.DepartureTime.Sub(now) > MinHoursBeforeDeparture*time.Hour
}

// CanReschedule is CanRescheduleAt against the wall clock.
func CanReschedule(ticket *domain.Ticket, order *domain.Order) bool {
	return CanRescheduleAt(ticket, order, time.Now())
}
