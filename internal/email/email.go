package email

import (
	"context"
	"fmt"

	"github.com/kmalyshev/flybooking/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.TicketEvent) error {
	fmt.Printf("send email to %s about %s for order %s ticket %s seat %s\n",
		event.Email, event.Type, event.OrderNumber, event.TicketNumber, event.SeatNumber)
	return nil
}
