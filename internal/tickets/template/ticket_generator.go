package template

import (
	"bytes"
	"fmt"
	"image/png"

	"ms-booking/internal/models"

	"github.com/signintech/gopdf"
	"golang.org/x/image/font/gofont/goregular"
)

const fontFamily = "goregular"

type TicketPDFGenerator struct{}

func NewTicketPDFGenerator() *TicketPDFGenerator {
	return &TicketPDFGenerator{}
}

// Generate lays out a one-page A4 ticket for a paid order.
func (g *TicketPDFGenerator) Generate(order *models.Order, campaign *models.Campaign, qrCode []byte) ([]byte, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	if err := pdf.AddTTFFontData(fontFamily, goregular.TTF); err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	if err := pdf.SetFont(fontFamily, "", 14); err != nil {
		return nil, fmt.Errorf("failed to set font: %w", err)
	}

	addHeader(pdf, campaign)

	pdf.SetY(90)
	addTicketInfo(pdf, order, campaign)

	if len(qrCode) > 0 {
		pdf.SetY(pdf.GetY() + 20)
		addQRCode(pdf, qrCode)
	}

	pdf.SetY(780)
	addFooter(pdf)

	var buf bytes.Buffer
	if err := pdf.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func addHeader(pdf *gopdf.GoPdf, campaign *models.Campaign) {
	pdf.SetX(40)
	pdf.SetY(40)
	_ = pdf.SetFontSize(22)
	_ = pdf.Cell(nil, campaign.Name)
	_ = pdf.SetFontSize(14)
}

func addTicketInfo(pdf *gopdf.GoPdf, order *models.Order, campaign *models.Campaign) {
	info := []struct {
		Label string
		Value string
	}{
		{"Order", order.ID},
		{"Date", campaign.Date},
		{"Time", campaign.Time},
		{"Amount", order.Amount.StringFixed(0)},
		{"Payment", order.PaymentMethod},
		{"Paid at", order.UpdatedAt.UTC().Format("2006-01-02 15:04 MST")},
	}

	for _, item := range info {
		pdf.SetX(40)
		_ = pdf.Cell(nil, item.Label+": "+item.Value)
		pdf.Br(22)
	}
}

func addQRCode(pdf *gopdf.GoPdf, qrCode []byte) {
	img, err := png.Decode(bytes.NewReader(qrCode))
	if err != nil {
		pdf.SetX(40)
		_ = pdf.Cell(nil, "Failed to load QR code")
		return
	}

	rect := &gopdf.Rect{W: 180, H: 180}
	if err := pdf.ImageFrom(img, 40, pdf.GetY(), rect); err != nil {
		pdf.SetX(40)
		_ = pdf.Cell(nil, "Failed to draw QR code")
	}
}

func addFooter(pdf *gopdf.GoPdf) {
	pdf.SetX(40)
	_ = pdf.Cell(nil, "Show this code at the entrance.")
}
