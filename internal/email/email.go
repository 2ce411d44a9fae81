package email

import (
	"context"
	"fmt"

	"github.com/dkochetov/ticketbooking/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	fmt.Printf("send email to %s about %s for event %s booking %s\n", event.Email, event.Type, event.EventID, event.BookingID)
	return nil
}
