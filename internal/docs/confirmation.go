package docs

import (
	"bytes"
	"fmt"
	"image/png"

	"studio-service/internal/models"

	"github.com/signintech/gopdf"
	"github.com/skip2/go-qrcode"
)

// Generator renders downloadable booking documents: the confirmation PDF
// (with a QR code of the booking lookup URL) and the service agreement.
type Generator struct {
	FontPath string
	BaseURL  string
}

func NewGenerator(fontPath, baseURL string) *Generator {
	if fontPath == "" {
		fontPath = "./fonts/DejaVuSans.ttf"
	}
	return &Generator{FontPath: fontPath, BaseURL: baseURL}
}

func (g *Generator) Confirmation(booking models.Booking) ([]byte, error) {
	qrPNG, err := qrcode.Encode(fmt.Sprintf("%s/booking/lookup?ref=%s", g.BaseURL, booking.Reference), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}

	pdf, err := g.newDocument()
	if err != nil {
		return nil, err
	}

	addTitle(pdf, "BOOKING CONFIRMATION — "+booking.Reference)

	pdf.SetY(70)
	addBookingInfo(pdf, booking)

	pdf.SetY(pdf.GetY() + 20)
	addQRCode(pdf, qrPNG)

	pdf.SetY(720)
	addFooter(pdf, "Your date is held once the deposit is paid. The balance is due before delivery.")

	var buf bytes.Buffer
	if err := pdf.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) newDocument() (*gopdf.GoPdf, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	if err := pdf.AddTTFFont("dejavu", g.FontPath); err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	if err := pdf.SetFont("dejavu", "", 14); err != nil {
		return nil, fmt.Errorf("failed to set font: %w", err)
	}
	return pdf, nil
}

func addTitle(pdf *gopdf.GoPdf, title string) {
	pdf.SetX(40)
	pdf.SetY(30)
	pdf.Cell(nil, title)
}

func addBookingInfo(pdf *gopdf.GoPdf, booking models.Booking) {
	info := []struct {
		Label string
		Value string
	}{
		{"Client", booking.ClientName},
		{"Email", booking.ClientEmail},
		{"Service", booking.ServiceName},
		{"Date", booking.EventDate},
		{"Time", fmt.Sprintf("%s – %s (%.1f hours)", booking.StartTime, booking.EndTime, booking.TotalHours)},
		{"Estimated total", formatPence(booking.EstimatedTotalPence)},
		{"Deposit", formatPence(booking.DepositPence)},
		{"Balance due", formatPence(booking.BalancePence)},
		{"Status", string(booking.Status)},
	}

	for _, item := range info {
		pdf.SetX(40)
		pdf.Cell(nil, item.Label+": "+item.Value)
		pdf.Br(20)
	}
}

func addQRCode(pdf *gopdf.GoPdf, qrPNG []byte) {
	img, err := png.Decode(bytes.NewReader(qrPNG))
	if err != nil {
		pdf.Cell(nil, "Failed to load QR code")
		return
	}

	rect := &gopdf.Rect{W: 100, H: 100}
	if err := pdf.ImageFrom(img, 40, pdf.GetY(), rect); err != nil {
		pdf.Cell(nil, "Failed to draw QR code")
	}
}

func addFooter(pdf *gopdf.GoPdf, text string) {
	pdf.SetX(40)
	pdf.Cell(nil, text)
}

func formatPence(pence int64) string {
	return fmt.Sprintf("£%.2f", float64(pence)/100)
}
