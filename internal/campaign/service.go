package campaign

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/storage"

	"github.com/google/uuid"
)

const (
	dateLayout    = "2006-01-02"
	timeLayout    = "15:04"
	maxNameLength = 200
)

type CampaignService struct {
	Store  storage.Store
	logger *logger.Logger
	now    func() time.Time
}

func NewCampaignService(store storage.Store, log *logger.Logger) *CampaignService {
	return &CampaignService{
		Store:  store,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Validate checks a create or edit request.
func Validate(req models.CampaignRequest) error {
	var problems []string
	if strings.TrimSpace(req.Name) == "" {
		problems = append(problems, "campaign_name is required")
	} else if len(req.Name) > maxNameLength {
		problems = append(problems, fmt.Sprintf("campaign_name longer than %d characters", maxNameLength))
	}
	if _, err := time.Parse(dateLayout, req.Date); err != nil {
		problems = append(problems, "date must be YYYY-MM-DD")
	}
	if _, err := time.Parse(timeLayout, req.Time); err != nil {
		problems = append(problems, "time must be HH:MM")
	}
	if req.Seats < 0 {
		problems = append(problems, "seats must not be negative")
	}
	if req.Price.IsNegative() {
		problems = append(problems, "price must not be negative")
	} else if !req.Price.Equal(req.Price.Truncate(0)) {
		problems = append(problems, "price must be a whole amount")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", models.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

func (s *CampaignService) Create(ctx context.Context, ownerID string, req models.CampaignRequest) (*models.Campaign, error) {
	if ownerID == "" {
		return nil, models.ErrUnauthenticated
	}
	if err := Validate(req); err != nil {
		return nil, err
	}

	now := s.now()
	c := &models.Campaign{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Seats:       req.Seats,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		OwnerID:     ownerID,
		CategoryID:  req.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.CreateCampaign(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("CAMPAIGN", fmt.Sprintf("Created campaign %s owner=%s seats=%d price=%s", c.ID, ownerID, c.Seats, c.Price.String()))
	return c, nil
}

// Owned loads a campaign and checks that ownerID owns it.
func (s *CampaignService) Owned(ctx context.Context, ownerID, id string) (*models.Campaign, error) {
	if ownerID == "" {
		return nil, models.ErrUnauthenticated
	}
	c, err := s.Store.GetCampaignByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: campaign %s belongs to another partner", models.ErrForbidden, id)
	}
	return c, nil
}

// Update edits every attribute except the seat counter.
func (s *CampaignService) Update(ctx context.Context, ownerID, id string, req models.CampaignRequest) (*models.Campaign, error) {
	c, err := s.Owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := Validate(req); err != nil {
		return nil, err
	}
	if req.Seats != 0 && req.Seats != c.Seats {
		s.logger.Warn("CAMPAIGN", fmt.Sprintf("Ignoring seat change %d -> %d on campaign %s", c.Seats, req.Seats, id))
	}

	c.Name = strings.TrimSpace(req.Name)
	c.Description = req.Description
	c.Date = req.Date
	c.Time = req.Time
	c.Price = req.Price
	c.ImageURL = req.ImageURL
	c.CategoryID = req.CategoryID
	if err := s.Store.UpdateCampaign(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("CAMPAIGN", fmt.Sprintf("Updated campaign %s", id))
	return c, nil
}

// Delete removes a campaign with no pending or paid orders.
func (s *CampaignService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.Owned(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.Store.DeleteCampaign(ctx, id); err != nil {
		return err
	}
	s.logger.Info("CAMPAIGN", fmt.Sprintf("Deleted campaign %s", id))
	return nil
}

func (s *CampaignService) Get(ctx context.Context, id string) (*models.Campaign, error) {
	return s.Store.GetCampaignByID(ctx, id)
}

func (s *CampaignService) ListPublic(ctx context.Context, categoryID string) ([]models.Campaign, error) {
	return s.Store.ListCampaigns(ctx, storage.CampaignFilter{CategoryID: categoryID})
}

func (s *CampaignService) ListOwned(ctx context.Context, ownerID string) ([]models.Campaign, error) {
	if ownerID == "" {
		return nil, models.ErrUnauthenticated
	}
	return s.Store.ListCampaigns(ctx, storage.CampaignFilter{OwnerID: ownerID})
}
