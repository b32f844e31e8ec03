package docs

import (
	"bytes"
	"fmt"

	"studio-service/internal/models"

	"github.com/signintech/gopdf"
)

// Agreement renders the service agreement PDF for a booking. The terms are
// filled from the same booking fields as the confirmation, so the two
// documents can never disagree on amounts.
func (g *Generator) Agreement(booking models.Booking) ([]byte, error) {
	pdf, err := g.newDocument()
	if err != nil {
		return nil, err
	}

	addTitle(pdf, "SERVICE AGREEMENT — "+booking.Reference)

	pdf.SetY(70)
	addBookingInfo(pdf, booking)

	pdf.SetY(pdf.GetY() + 20)
	addAgreementTerms(pdf, booking)

	pdf.SetY(720)
	addFooter(pdf, "This agreement is confirmed on receipt of the deposit.")

	var buf bytes.Buffer
	if err := pdf.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func addAgreementTerms(pdf *gopdf.GoPdf, booking models.Booking) {
	terms := []string{
		fmt.Sprintf("1. The studio will provide %s coverage on %s from %s to %s.",
			booking.ServiceName, booking.EventDate, booking.StartTime, booking.EndTime),
		fmt.Sprintf("2. A deposit of %s secures the date; it is non-refundable within 14 days of the event.",
			formatPence(booking.DepositPence)),
		fmt.Sprintf("3. The remaining balance of %s is due before deliverables are released.",
			formatPence(booking.BalancePence)),
		"4. Edited deliverables are made available through the client portal once the balance clears.",
		"5. Rescheduling to an available date is free up to 30 days before the event.",
	}

	for _, term := range terms {
		pdf.SetX(40)
		pdf.Cell(nil, term)
		pdf.Br(20)
	}
}
