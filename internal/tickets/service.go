package tickets

import (
	"context"
	"fmt"

	"ms-booking/internal/models"
	qr "ms-booking/internal/tickets/qr_generator"
	"ms-booking/internal/tickets/template"
)

// OrderReader is the slice of the order service tickets need.
type OrderReader interface {
	GetOrder(ctx context.Context, buyerID, orderID string) (*models.Order, error)
}

type CampaignReader interface {
	GetCampaignByID(ctx context.Context, id string) (*models.Campaign, error)
}

type TicketService struct {
	Orders    OrderReader
	Campaigns CampaignReader
	QR        *qr.QRGenerator
	PDF       *template.TicketPDFGenerator
}

func NewTicketService(orders OrderReader, campaigns CampaignReader) *TicketService {
	return &TicketService{
		Orders:    orders,
		Campaigns: campaigns,
		QR:        qr.NewQRGenerator(qr.DefaultSize),
		PDF:       template.NewTicketPDFGenerator(),
	}
}

// paidOrder loads the buyer's order and refuses anything not yet paid.
func (s *TicketService) paidOrder(ctx context.Context, buyerID, orderID string) (*models.Order, error) {
	order, err := s.Orders.GetOrder(ctx, buyerID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusSuccess {
		return nil, fmt.Errorf("%w: order %s is %s, tickets are issued for paid orders only", models.ErrConflict, order.ID, order.Status)
	}
	return order, nil
}

// TicketQR returns the PNG QR code for a paid order.
func (s *TicketService) TicketQR(ctx context.Context, buyerID, orderID string) ([]byte, error) {
	order, err := s.paidOrder(ctx, buyerID, orderID)
	if err != nil {
		return nil, err
	}
	return s.QR.GenerateOrderQR(order.ID)
}

// TicketPDF returns a printable ticket for a paid order.
func (s *TicketService) TicketPDF(ctx context.Context, buyerID, orderID string) ([]byte, error) {
	order, err := s.paidOrder(ctx, buyerID, orderID)
	if err != nil {
		return nil, err
	}
	campaign, err := s.Campaigns.GetCampaignByID(ctx, order.CampaignID)
	if err != nil {
		return nil, err
	}
	code, err := s.QR.GenerateOrderQR(order.ID)
	if err != nil {
		return nil, fmt.Errorf("generate QR: %w", err)
	}
	return s.PDF.Generate(order, campaign, code)
}
