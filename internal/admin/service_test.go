package admin

import (
	"context"
	"errors"
	"testing"

	"studio-service/internal/logger"
	"studio-service/internal/models"
)

type MockAdminDB struct {
	services  map[string]*models.Service
	staff     map[string]*models.Staff
	portfolio map[string]*models.PortfolioItem
	quotes    map[string]*models.QuoteRequest
	blocked   map[string]string
	profiles  map[string]*models.Profile
	roles     map[string]models.Role

	bookingCounts  map[models.BookingStatus]int
	revenue        int64
	newQuotes      int
	lockedProjects int
}

func NewMockAdminDB() *MockAdminDB {
	return &MockAdminDB{
		services:      make(map[string]*models.Service),
		staff:         make(map[string]*models.Staff),
		portfolio:     make(map[string]*models.PortfolioItem),
		quotes:        make(map[string]*models.QuoteRequest),
		blocked:       make(map[string]string),
		profiles:      make(map[string]*models.Profile),
		roles:         make(map[string]models.Role),
		bookingCounts: make(map[models.BookingStatus]int),
	}
}

func (m *MockAdminDB) CreateService(ctx context.Context, service models.Service) error {
	m.services[service.ID] = &service
	return nil
}

func (m *MockAdminDB) GetService(ctx context.Context, id string) (*models.Service, error) {
	service, exists := m.services[id]
	if !exists {
		return nil, errors.New("service not found")
	}
	return service, nil
}

func (m *MockAdminDB) ListServices(ctx context.Context) ([]models.Service, error) {
	var all []models.Service
	for _, service := range m.services {
		all = append(all, *service)
	}
	return all, nil
}

func (m *MockAdminDB) UpdateService(ctx context.Context, service models.Service) error {
	m.services[service.ID] = &service
	return nil
}

func (m *MockAdminDB) DeleteService(ctx context.Context, id string) error {
	delete(m.services, id)
	return nil
}

func (m *MockAdminDB) CreateStaff(ctx context.Context, member models.Staff) error {
	m.staff[member.ID] = &member
	return nil
}

func (m *MockAdminDB) ListStaff(ctx context.Context) ([]models.Staff, error) { return nil, nil }

func (m *MockAdminDB) UpdateStaff(ctx context.Context, member models.Staff) error {
	m.staff[member.ID] = &member
	return nil
}

func (m *MockAdminDB) DeleteStaff(ctx context.Context, id string) error {
	delete(m.staff, id)
	return nil
}

func (m *MockAdminDB) CreatePortfolioItem(ctx context.Context, item models.PortfolioItem) error {
	m.portfolio[item.ID] = &item
	return nil
}

func (m *MockAdminDB) ListPortfolio(ctx context.Context, publishedOnly bool) ([]models.PortfolioItem, error) {
	var items []models.PortfolioItem
	for _, item := range m.portfolio {
		if publishedOnly && !item.Published {
			continue
		}
		items = append(items, *item)
	}
	return items, nil
}

func (m *MockAdminDB) UpdatePortfolioItem(ctx context.Context, item models.PortfolioItem) error {
	m.portfolio[item.ID] = &item
	return nil
}

func (m *MockAdminDB) DeletePortfolioItem(ctx context.Context, id string) error {
	delete(m.portfolio, id)
	return nil
}

func (m *MockAdminDB) CreateQuoteRequest(ctx context.Context, quote models.QuoteRequest) error {
	m.quotes[quote.ID] = &quote
	return nil
}

func (m *MockAdminDB) GetQuoteRequest(ctx context.Context, id string) (*models.QuoteRequest, error) {
	quote, exists := m.quotes[id]
	if !exists {
		return nil, errors.New("quote not found")
	}
	return quote, nil
}

func (m *MockAdminDB) ListQuoteRequests(ctx context.Context) ([]models.QuoteRequest, error) {
	return nil, nil
}

func (m *MockAdminDB) UpdateQuoteRequest(ctx context.Context, quote models.QuoteRequest) error {
	m.quotes[quote.ID] = &quote
	return nil
}

func (m *MockAdminDB) DeleteQuoteRequest(ctx context.Context, id string) error {
	delete(m.quotes, id)
	return nil
}

func (m *MockAdminDB) CreateBlockedDate(ctx context.Context, blocked models.BlockedDate) error {
	m.blocked[blocked.Date] = blocked.Reason
	return nil
}

func (m *MockAdminDB) ListBlockedDates(ctx context.Context) ([]models.BlockedDate, error) {
	return nil, nil
}

func (m *MockAdminDB) DeleteBlockedDate(ctx context.Context, date string) error {
	delete(m.blocked, date)
	return nil
}

func (m *MockAdminDB) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	var all []models.Profile
	for _, profile := range m.profiles {
		all = append(all, *profile)
	}
	return all, nil
}

func (m *MockAdminDB) GetRole(ctx context.Context, userID string) (models.Role, error) {
	role, exists := m.roles[userID]
	if !exists {
		return "", errors.New("no role row")
	}
	return role, nil
}

func (m *MockAdminDB) SetRole(ctx context.Context, userID string, role models.Role) error {
	m.roles[userID] = role
	return nil
}

func (m *MockAdminDB) DeleteUser(ctx context.Context, userID string) error {
	delete(m.roles, userID)
	delete(m.profiles, userID)
	return nil
}

func (m *MockAdminDB) CountBookingsByStatus(ctx context.Context) (map[models.BookingStatus]int, error) {
	return m.bookingCounts, nil
}

func (m *MockAdminDB) SumRevenuePence(ctx context.Context) (int64, error) { return m.revenue, nil }
func (m *MockAdminDB) CountNewQuotes(ctx context.Context) (int, error)    { return m.newQuotes, nil }
func (m *MockAdminDB) CountLockedProjects(ctx context.Context) (int, error) {
	return m.lockedProjects, nil
}

func setupAdminService() (*AdminService, *MockAdminDB) {
	mockDB := NewMockAdminDB()
	return NewAdminService(mockDB, logger.NewLogger()), mockDB
}

func TestCreateServiceGeneratesSlug(t *testing.T) {
	service, _ := setupAdminService()

	created, err := service.CreateService(context.Background(), models.Service{
		Name:            "Event Photography & Film!",
		HourlyRatePence: 15000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Slug != "event-photography--film" {
		t.Errorf("slug = %q", created.Slug)
	}
	if created.ID == "" {
		t.Error("id not generated")
	}
}

func TestCreateServiceRejectsBadRate(t *testing.T) {
	service, _ := setupAdminService()

	if _, err := service.CreateService(context.Background(), models.Service{Name: "X", HourlyRatePence: 0}); err == nil {
		t.Fatal("expected error for zero rate")
	}
	if _, err := service.CreateService(context.Background(), models.Service{Name: "X", HourlyRatePence: -100}); err == nil {
		t.Fatal("expected error for negative rate")
	}
}

func TestSubmitQuoteForcesNewStatus(t *testing.T) {
	service, mockDB := setupAdminService()

	created, err := service.SubmitQuote(context.Background(), models.QuoteRequest{
		Name:       "Alice",
		Email:      "alice@example.com",
		Status:     models.QuoteBooked, // a client cannot pick their status
		AdminNotes: "sneaky note",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Status != models.QuoteNew {
		t.Errorf("status = %s, want new", created.Status)
	}
	if created.AdminNotes != "" {
		t.Error("client-supplied admin notes should be discarded")
	}
	if _, exists := mockDB.quotes[created.ID]; !exists {
		t.Error("quote not persisted")
	}
}

func TestUpdateQuoteValidatesStatus(t *testing.T) {
	service, mockDB := setupAdminService()
	mockDB.quotes["q1"] = &models.QuoteRequest{ID: "q1", Status: models.QuoteNew}

	if _, err := service.UpdateQuote(context.Background(), "q1", models.QuoteStatus("archived"), nil); !errors.Is(err, ErrBadQuoteStatus) {
		t.Fatalf("expected ErrBadQuoteStatus, got %v", err)
	}

	notes := "called on Friday"
	quote, err := service.UpdateQuote(context.Background(), "q1", models.QuoteContacted, &notes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Status != models.QuoteContacted || quote.AdminNotes != notes {
		t.Errorf("quote = %+v", quote)
	}
}

func TestBlockDateValidatesFormat(t *testing.T) {
	service, _ := setupAdminService()

	if err := service.BlockDate(context.Background(), "25/12/2026", "xmas"); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
	if err := service.BlockDate(context.Background(), "2026-12-25", "xmas"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetUserRoleBlocksSelfChange(t *testing.T) {
	service, mockDB := setupAdminService()
	mockDB.roles["admin1"] = models.RoleAdmin

	err := service.SetUserRole(context.Background(), "admin1", "admin1", models.RoleClient)
	if !errors.Is(err, ErrSelfDemotion) {
		t.Fatalf("expected ErrSelfDemotion, got %v", err)
	}

	if err := service.SetUserRole(context.Background(), "admin1", "user2", models.RoleAdmin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mockDB.roles["user2"] != models.RoleAdmin {
		t.Error("role not set")
	}
}

func TestSetUserRoleRejectsUnknownRole(t *testing.T) {
	service, _ := setupAdminService()

	if err := service.SetUserRole(context.Background(), "admin1", "user2", models.Role("superuser")); !errors.Is(err, ErrBadRole) {
		t.Fatalf("expected ErrBadRole, got %v", err)
	}
}

func TestDeleteUserBlocksSelf(t *testing.T) {
	service, _ := setupAdminService()

	if err := service.DeleteUser(context.Background(), "admin1", "admin1"); !errors.Is(err, ErrSelfDemotion) {
		t.Fatalf("expected ErrSelfDemotion, got %v", err)
	}
}

func TestListUsersDefaultsRoleToClient(t *testing.T) {
	service, mockDB := setupAdminService()
	mockDB.profiles["u1"] = &models.Profile{ID: "u1", Email: "u1@example.com"}
	mockDB.roles["u2"] = models.RoleAdmin
	mockDB.profiles["u2"] = &models.Profile{ID: "u2", Email: "u2@example.com"}

	users, err := service.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byID := make(map[string]UserSummary)
	for _, user := range users {
		byID[user.ID] = user
	}
	if byID["u1"].Role != models.RoleClient {
		t.Errorf("u1 role = %s, want client fallback", byID["u1"].Role)
	}
	if byID["u2"].Role != models.RoleAdmin {
		t.Errorf("u2 role = %s, want admin", byID["u2"].Role)
	}
}

func TestDashboardAggregates(t *testing.T) {
	service, mockDB := setupAdminService()
	mockDB.bookingCounts[models.StatusDepositPaid] = 3
	mockDB.revenue = 180000
	mockDB.newQuotes = 2
	mockDB.lockedProjects = 4

	stats, err := service.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.BookingsByStatus[models.StatusDepositPaid] != 3 ||
		stats.RevenuePence != 180000 || stats.NewQuotes != 2 || stats.LockedProjects != 4 {
		t.Errorf("stats = %+v", stats)
	}
}
