package outbox

import (
	"fmt"

	"studio-service/internal/logger"
	"studio-service/internal/mailer"
	"studio-service/internal/models"
)

// Sender is the part of the mailer the consumer needs.
type Sender interface {
	Send(email *mailer.Email) (*mailer.SendResult, error)
}

// EmailConsumer turns booking events from Kafka into client and operator
// emails. Send failures are logged, never propagated: the event is already
// committed and a retry storm over a dead provider helps nobody.
type EmailConsumer struct {
	Mailer        Sender
	OperatorEmail string
	Logger        *logger.Logger
}

func NewEmailConsumer(m Sender, operatorEmail string, log *logger.Logger) *EmailConsumer {
	return &EmailConsumer{Mailer: m, OperatorEmail: operatorEmail, Logger: log}
}

// HandleCreated processes booking.created events.
func (c *EmailConsumer) HandleCreated(event models.BookingEvent) {
	c.send(mailer.BookingConfirmation(event))
	if c.OperatorEmail != "" {
		c.send(mailer.OperatorNotification(c.OperatorEmail, event))
	}
}

// HandleStatus processes booking.status events.
func (c *EmailConsumer) HandleStatus(event models.BookingEvent) {
	if event.ClientEmail == "" {
		c.Logger.Warn("EMAIL", fmt.Sprintf("status event for %s has no client email, skipping", event.Reference))
		return
	}
	c.send(mailer.StatusUpdate(event))
}

func (c *EmailConsumer) send(email *mailer.Email) {
	if _, err := c.Mailer.Send(email); err != nil {
		c.Logger.Error("EMAIL", fmt.Sprintf("failed to send %q: %v", email.Subject, err))
	}
}
