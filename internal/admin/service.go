package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"studio-service/internal/logger"
	"studio-service/internal/models"

	"github.com/google/uuid"
)

var (
	ErrBadQuoteStatus = errors.New("invalid quote status")
	ErrBadRole        = errors.New("role must be admin or client")
	ErrSelfDemotion   = errors.New("admins cannot demote or delete themselves")
)

type DBLayer interface {
	CreateService(ctx context.Context, service models.Service) error
	GetService(ctx context.Context, id string) (*models.Service, error)
	ListServices(ctx context.Context) ([]models.Service, error)
	UpdateService(ctx context.Context, service models.Service) error
	DeleteService(ctx context.Context, id string) error

	CreateStaff(ctx context.Context, member models.Staff) error
	ListStaff(ctx context.Context) ([]models.Staff, error)
	UpdateStaff(ctx context.Context, member models.Staff) error
	DeleteStaff(ctx context.Context, id string) error

	CreatePortfolioItem(ctx context.Context, item models.PortfolioItem) error
	ListPortfolio(ctx context.Context, publishedOnly bool) ([]models.PortfolioItem, error)
	UpdatePortfolioItem(ctx context.Context, item models.PortfolioItem) error
	DeletePortfolioItem(ctx context.Context, id string) error

	CreateQuoteRequest(ctx context.Context, quote models.QuoteRequest) error
	GetQuoteRequest(ctx context.Context, id string) (*models.QuoteRequest, error)
	ListQuoteRequests(ctx context.Context) ([]models.QuoteRequest, error)
	UpdateQuoteRequest(ctx context.Context, quote models.QuoteRequest) error
	DeleteQuoteRequest(ctx context.Context, id string) error

	CreateBlockedDate(ctx context.Context, blocked models.BlockedDate) error
	ListBlockedDates(ctx context.Context) ([]models.BlockedDate, error)
	DeleteBlockedDate(ctx context.Context, date string) error

	ListProfiles(ctx context.Context) ([]models.Profile, error)
	GetRole(ctx context.Context, userID string) (models.Role, error)
	SetRole(ctx context.Context, userID string, role models.Role) error
	DeleteUser(ctx context.Context, userID string) error

	CountBookingsByStatus(ctx context.Context) (map[models.BookingStatus]int, error)
	SumRevenuePence(ctx context.Context) (int64, error)
	CountNewQuotes(ctx context.Context) (int, error)
	CountLockedProjects(ctx context.Context) (int, error)
}

type AdminService struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewAdminService(dbLayer DBLayer, log *logger.Logger) *AdminService {
	return &AdminService{DB: dbLayer, Logger: log}
}

// --- services ---

func (s *AdminService) CreateService(ctx context.Context, service models.Service) (*models.Service, error) {
	if service.Name == "" || service.HourlyRatePence <= 0 {
		return nil, errors.New("service needs a name and a positive hourly rate")
	}
	if service.ID == "" {
		service.ID = uuid.NewString()
	}
	if service.Slug == "" {
		service.Slug = slugify(service.Name)
	}
	service.CreatedAt = time.Now()

	if err := s.DB.CreateService(ctx, service); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	s.Logger.Info("ADMIN", fmt.Sprintf("created service %s (%s)", service.Name, service.ID))
	return &service, nil
}

func (s *AdminService) UpdateService(ctx context.Context, service models.Service) error {
	existing, err := s.DB.GetService(ctx, service.ID)
	if err != nil {
		return fmt.Errorf("service %s not found: %w", service.ID, err)
	}
	if service.Slug == "" {
		service.Slug = existing.Slug
	}
	service.CreatedAt = existing.CreatedAt
	return s.DB.UpdateService(ctx, service)
}

func (s *AdminService) DeleteService(ctx context.Context, id string) error {
	// Rate snapshots on bookings keep historical totals stable after this.
	if err := s.DB.DeleteService(ctx, id); err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	s.Logger.Info("ADMIN", fmt.Sprintf("deleted service %s", id))
	return nil
}

func (s *AdminService) ListServices(ctx context.Context) ([]models.Service, error) {
	return s.DB.ListServices(ctx)
}

// --- staff ---

func (s *AdminService) CreateStaff(ctx context.Context, member models.Staff) (*models.Staff, error) {
	if member.Name == "" {
		return nil, errors.New("staff member needs a name")
	}
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	if err := s.DB.CreateStaff(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to create staff member: %w", err)
	}
	return &member, nil
}

func (s *AdminService) UpdateStaff(ctx context.Context, member models.Staff) error {
	return s.DB.UpdateStaff(ctx, member)
}

func (s *AdminService) DeleteStaff(ctx context.Context, id string) error {
	return s.DB.DeleteStaff(ctx, id)
}

func (s *AdminService) ListStaff(ctx context.Context) ([]models.Staff, error) {
	return s.DB.ListStaff(ctx)
}

// --- portfolio ---

func (s *AdminService) CreatePortfolioItem(ctx context.Context, item models.PortfolioItem) (*models.PortfolioItem, error) {
	if item.Title == "" || item.ImageURL == "" {
		return nil, errors.New("portfolio item needs a title and an image URL")
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if err := s.DB.CreatePortfolioItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create portfolio item: %w", err)
	}
	return &item, nil
}

func (s *AdminService) UpdatePortfolioItem(ctx context.Context, item models.PortfolioItem) error {
	return s.DB.UpdatePortfolioItem(ctx, item)
}

func (s *AdminService) DeletePortfolioItem(ctx context.Context, id string) error {
	return s.DB.DeletePortfolioItem(ctx, id)
}

// ListPortfolio returns everything for admins, published items for the public
// site.
func (s *AdminService) ListPortfolio(ctx context.Context, publishedOnly bool) ([]models.PortfolioItem, error) {
	return s.DB.ListPortfolio(ctx, publishedOnly)
}

// --- quote requests ---

// SubmitQuote records a public enquiry. Every new enquiry starts in "new".
func (s *AdminService) SubmitQuote(ctx context.Context, quote models.QuoteRequest) (*models.QuoteRequest, error) {
	if quote.Name == "" || quote.Email == "" {
		return nil, errors.New("name and email are required")
	}
	quote.ID = uuid.NewString()
	quote.Status = models.QuoteNew
	quote.AdminNotes = ""
	quote.CreatedAt = time.Now()

	if err := s.DB.CreateQuoteRequest(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to save quote request: %w", err)
	}
	s.Logger.Info("ADMIN", fmt.Sprintf("new quote request %s from %s", quote.ID, quote.Email))
	return &quote, nil
}

func (s *AdminService) ListQuotes(ctx context.Context) ([]models.QuoteRequest, error) {
	return s.DB.ListQuoteRequests(ctx)
}

// UpdateQuote changes the pipeline status and/or admin notes.
func (s *AdminService) UpdateQuote(ctx context.Context, id string, status models.QuoteStatus, notes *string) (*models.QuoteRequest, error) {
	quote, err := s.DB.GetQuoteRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("quote request %s not found: %w", id, err)
	}

	if status != "" {
		if !status.Valid() {
			return nil, ErrBadQuoteStatus
		}
		quote.Status = status
	}
	if notes != nil {
		quote.AdminNotes = *notes
	}

	if err := s.DB.UpdateQuoteRequest(ctx, *quote); err != nil {
		return nil, fmt.Errorf("failed to update quote request: %w", err)
	}
	return quote, nil
}

func (s *AdminService) DeleteQuote(ctx context.Context, id string) error {
	return s.DB.DeleteQuoteRequest(ctx, id)
}

// --- blocked dates ---

func (s *AdminService) BlockDate(ctx context.Context, date, reason string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	if err := s.DB.CreateBlockedDate(ctx, models.BlockedDate{Date: date, Reason: reason}); err != nil {
		return fmt.Errorf("failed to block date: %w", err)
	}
	s.Logger.Info("ADMIN", fmt.Sprintf("blocked date %s (%s)", date, reason))
	return nil
}

func (s *AdminService) UnblockDate(ctx context.Context, date string) error {
	return s.DB.DeleteBlockedDate(ctx, date)
}

func (s *AdminService) ListBlockedDates(ctx context.Context) ([]models.BlockedDate, error) {
	return s.DB.ListBlockedDates(ctx)
}

// --- users ---

// UserSummary joins a profile with its role for the admin user list.
type UserSummary struct {
	models.Profile
	Role models.Role `json:"role"`
}

func (s *AdminService) ListUsers(ctx context.Context) ([]UserSummary, error) {
	profiles, err := s.DB.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]UserSummary, 0, len(profiles))
	for _, profile := range profiles {
		role, err := s.DB.GetRole(ctx, profile.ID)
		if err != nil {
			role = models.RoleClient
		}
		summaries = append(summaries, UserSummary{Profile: profile, Role: role})
	}
	return summaries, nil
}

// SetUserRole promotes or demotes a user. The acting admin cannot change
// their own role, which keeps at least one admin in place.
func (s *AdminService) SetUserRole(ctx context.Context, actorID, userID string, role models.Role) error {
	if !role.Valid() {
		return ErrBadRole
	}
	if actorID == userID {
		return ErrSelfDemotion
	}
	if err := s.DB.SetRole(ctx, userID, role); err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	s.Logger.LogSecurity("ROLE_CHANGE", fmt.Sprintf("%s set role of %s to %s", actorID, userID, role))
	return nil
}

func (s *AdminService) DeleteUser(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return ErrSelfDemotion
	}
	if err := s.DB.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.Logger.LogSecurity("USER_DELETE", fmt.Sprintf("%s deleted user %s", actorID, userID))
	return nil
}

// --- dashboard ---

type DashboardStats struct {
	BookingsByStatus map[models.BookingStatus]int `json:"bookings_by_status"`
	RevenuePence     int64                        `json:"revenue_pence"`
	NewQuotes        int                          `json:"new_quotes"`
	LockedProjects   int                          `json:"locked_projects"`
}

func (s *AdminService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	byStatus, err := s.DB.CountBookingsByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}
	revenue, err := s.DB.SumRevenuePence(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	newQuotes, err := s.DB.CountNewQuotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count quotes: %w", err)
	}
	locked, err := s.DB.CountLockedProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count locked projects: %w", err)
	}

	return &DashboardStats{
		BookingsByStatus: byStatus,
		RevenuePence:     revenue,
		NewQuotes:        newQuotes,
		LockedProjects:   locked,
	}, nil
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	var b strings.Builder
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
