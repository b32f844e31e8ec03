package mailer

import (
	"fmt"

	"studio-service/internal/models"
)

// FormatPence renders an integer pence amount as a pound string.
func FormatPence(pence int64) string {
	return fmt.Sprintf("£%.2f", float64(pence)/100)
}

const baseStyle = `font-family: Arial, sans-serif; color: #1a1a1a; max-width: 600px; margin: 0 auto;`

func wrap(body string) string {
	return fmt.Sprintf(`<div style="%s">%s<p style="color:#888;font-size:12px;">JT Studios · This is an automated message, replies are monitored.</p></div>`, baseStyle, body)
}

func bookingSummaryRows(ev models.BookingEvent) string {
	return fmt.Sprintf(`
		<table style="width:100%%;border-collapse:collapse;">
			<tr><td style="padding:4px 0;"><b>Reference</b></td><td>%s</td></tr>
			<tr><td style="padding:4px 0;"><b>Service</b></td><td>%s</td></tr>
			<tr><td style="padding:4px 0;"><b>Date</b></td><td>%s, %s – %s</td></tr>
			<tr><td style="padding:4px 0;"><b>Estimated total</b></td><td>%s</td></tr>
			<tr><td style="padding:4px 0;"><b>Deposit (due now)</b></td><td>%s</td></tr>
			<tr><td style="padding:4px 0;"><b>Balance</b></td><td>%s</td></tr>
		</table>`,
		ev.Reference, ev.ServiceName, ev.EventDate, ev.StartTime, ev.EndTime,
		FormatPence(ev.EstimatedPence), FormatPence(ev.DepositPence), FormatPence(ev.BalancePence))
}

// BookingConfirmation is sent to the client when their booking is submitted.
func BookingConfirmation(ev models.BookingEvent) *Email {
	body := fmt.Sprintf(`
		<h2>Booking received</h2>
		<p>Hi %s,</p>
		<p>Thanks for booking with us. Your booking is held as <b>pending</b> until
		the deposit is paid — the payment link is on your confirmation page.</p>
		%s`,
		ev.ClientName, bookingSummaryRows(ev))

	return &Email{
		To:      []string{ev.ClientEmail},
		Subject: fmt.Sprintf("Booking received — %s", ev.Reference),
		HTML:    wrap(body),
		Text: fmt.Sprintf("Booking %s received for %s on %s. Estimated total %s, deposit %s.",
			ev.Reference, ev.ServiceName, ev.EventDate, FormatPence(ev.EstimatedPence), FormatPence(ev.DepositPence)),
	}
}

// OperatorNotification alerts the studio inbox about a new booking.
func OperatorNotification(operatorEmail string, ev models.BookingEvent) *Email {
	body := fmt.Sprintf(`
		<h2>New booking</h2>
		<p>%s (%s) booked %s.</p>
		%s`,
		ev.ClientName, ev.ClientEmail, ev.ServiceName, bookingSummaryRows(ev))

	return &Email{
		To:      []string{operatorEmail},
		Subject: fmt.Sprintf("New booking %s — %s on %s", ev.Reference, ev.ServiceName, ev.EventDate),
		HTML:    wrap(body),
	}
}

// StatusUpdate tells the client their booking moved to a new status.
func StatusUpdate(ev models.BookingEvent) *Email {
	var line string
	switch ev.Status {
	case models.StatusDepositPaid:
		line = fmt.Sprintf("Your deposit of %s has been received and your date is confirmed. The remaining balance of %s is due before delivery.",
			FormatPence(ev.DepositPence), FormatPence(ev.BalancePence))
	case models.StatusFullyPaid:
		line = "Your booking is fully paid. Any deliverables in your portal are now unlocked."
	case models.StatusCompleted:
		line = "Your booking is complete. Thank you for choosing us!"
	case models.StatusCancelled:
		line = "Your booking has been cancelled. If this is unexpected, please get in touch."
	default:
		line = fmt.Sprintf("Your booking status is now %s.", ev.Status)
	}

	body := fmt.Sprintf(`
		<h2>Booking update — %s</h2>
		<p>Hi %s,</p>
		<p>%s</p>
		%s`,
		ev.Reference, ev.ClientName, line, bookingSummaryRows(ev))

	return &Email{
		To:      []string{ev.ClientEmail},
		Subject: fmt.Sprintf("Booking %s — %s", ev.Reference, ev.Status),
		HTML:    wrap(body),
		Text:    fmt.Sprintf("Booking %s: %s", ev.Reference, line),
	}
}
