package booking

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"studio-service/internal/booking/db"
	"studio-service/internal/logger"
	"studio-service/internal/models"
)

// MockBookingDB is an in-memory implementation of the booking DBLayer.
type MockBookingDB struct {
	bookings      map[string]*models.Booking
	services      map[string]*models.Service
	blockedDates  map[string]bool
	outbox        []models.OutboxEvent
	shouldFailOn  string
	errorToReturn error
}

func NewMockBookingDB() *MockBookingDB {
	return &MockBookingDB{
		bookings:     make(map[string]*models.Booking),
		services:     make(map[string]*models.Service),
		blockedDates: make(map[string]bool),
	}
}

func (m *MockBookingDB) CreateBookingWithEvent(ctx context.Context, booking models.Booking, event models.OutboxEvent) error {
	if m.shouldFailOn == "CreateBookingWithEvent" {
		return m.errorToReturn
	}
	for _, existing := range m.bookings {
		if existing.EventDate == booking.EventDate && existing.ServiceID == booking.ServiceID && existing.Status != models.StatusCancelled {
			return db.ErrConflict
		}
	}
	m.bookings[booking.ID] = &booking
	m.outbox = append(m.outbox, event)
	return nil
}

func (m *MockBookingDB) InsertOutboxEvent(ctx context.Context, event models.OutboxEvent) error {
	if m.shouldFailOn == "InsertOutboxEvent" {
		return m.errorToReturn
	}
	m.outbox = append(m.outbox, event)
	return nil
}

func (m *MockBookingDB) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	booking, exists := m.bookings[id]
	if !exists {
		return nil, sql.ErrNoRows
	}
	return booking, nil
}

func (m *MockBookingDB) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	for _, booking := range m.bookings {
		if booking.Reference == reference {
			return booking, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *MockBookingDB) UpdateBooking(ctx context.Context, booking models.Booking) error {
	m.bookings[booking.ID] = &booking
	return nil
}

func (m *MockBookingDB) UpdateBookingStatus(ctx context.Context, id string, status models.BookingStatus) error {
	if m.shouldFailOn == "UpdateBookingStatus" {
		return m.errorToReturn
	}
	booking, exists := m.bookings[id]
	if !exists {
		return sql.ErrNoRows
	}
	booking.Status = status
	return nil
}

func (m *MockBookingDB) SetSessionID(ctx context.Context, bookingID, sessionID string, balance bool) error {
	return nil
}

func (m *MockBookingDB) ListBookings(ctx context.Context) ([]models.Booking, error) {
	var all []models.Booking
	for _, booking := range m.bookings {
		all = append(all, *booking)
	}
	return all, nil
}

func (m *MockBookingDB) ListBookingsByClient(ctx context.Context, clientID string) ([]models.Booking, error) {
	var mine []models.Booking
	for _, booking := range m.bookings {
		if booking.ClientID == clientID {
			mine = append(mine, *booking)
		}
	}
	return mine, nil
}

func (m *MockBookingDB) HasActiveBooking(ctx context.Context, eventDate, serviceID string) (bool, error) {
	if m.shouldFailOn == "HasActiveBooking" {
		return false, m.errorToReturn
	}
	for _, booking := range m.bookings {
		if booking.EventDate == eventDate && booking.ServiceID == serviceID && booking.Status != models.StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockBookingDB) GetServiceByID(ctx context.Context, id string) (*models.Service, error) {
	service, exists := m.services[id]
	if !exists {
		return nil, sql.ErrNoRows
	}
	return service, nil
}

func (m *MockBookingDB) GetServicesByIDs(ctx context.Context, ids []string) ([]models.Service, error) {
	var found []models.Service
	for _, id := range ids {
		if service, exists := m.services[id]; exists {
			found = append(found, *service)
		}
	}
	return found, nil
}

func (m *MockBookingDB) IsDateBlocked(ctx context.Context, date string) (bool, error) {
	return m.blockedDates[date], nil
}

// MockUnlocker records project unlock calls.
type MockUnlocker struct {
	unlocked []string
}

func (m *MockUnlocker) UnlockByBooking(ctx context.Context, bookingID string) error {
	m.unlocked = append(m.unlocked, bookingID)
	return nil
}

func setupBookingService() (*BookingService, *MockBookingDB) {
	mockDB := NewMockBookingDB()
	mockDB.services["svc1"] = &models.Service{
		ID:              "svc1",
		Name:            "Event Photography",
		Slug:            "event-photography",
		HourlyRatePence: 15000,
	}
	service := NewBookingService(mockDB, nil, logger.NewLogger(), 0.30)
	return service, mockDB
}

func validRequest() models.BookingRequest {
	return models.BookingRequest{
		ClientName:  "Alice Mensah",
		ClientEmail: "alice@example.com",
		ServiceID:   "svc1",
		EventDate:   "2026-09-12",
		StartTime:   "10:00",
		EndTime:     "14:00",
	}
}

func TestSubmitCreatesBooking(t *testing.T) {
	service, mockDB := setupBookingService()

	resp, err := service.Submit(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.EstimatedTotalPence != 60000 {
		t.Errorf("total = %d, want 60000", resp.EstimatedTotalPence)
	}
	if resp.DepositPence != 18000 {
		t.Errorf("deposit = %d, want 18000", resp.DepositPence)
	}
	if resp.Status != models.StatusPendingDeposit {
		t.Errorf("status = %s, want pending_deposit", resp.Status)
	}
	if !strings.HasPrefix(resp.Reference, "JTS-") {
		t.Errorf("reference %q missing JTS- prefix", resp.Reference)
	}

	saved, exists := mockDB.bookings[resp.BookingID]
	if !exists {
		t.Fatal("booking not persisted")
	}
	if saved.HourlyRatePence != 15000 || saved.ServiceName != "Event Photography" {
		t.Errorf("service snapshot not taken: %+v", saved)
	}
	if len(mockDB.outbox) != 1 {
		t.Fatalf("outbox events = %d, want 1", len(mockDB.outbox))
	}

	// Stripe is unconfigured in tests, so the submission degrades to a saved
	// booking with a follow-up note instead of a payment URL.
	if resp.PaymentURL != "" {
		t.Errorf("unexpected payment URL %q", resp.PaymentURL)
	}
	if resp.Note == "" {
		t.Error("expected a note about manual payment follow-up")
	}
}

func TestSubmitRejectsUnknownService(t *testing.T) {
	service, _ := setupBookingService()

	req := validRequest()
	req.ServiceID = "nope"

	if _, err := service.Submit(context.Background(), req); !errors.Is(err, ErrServiceNotFound) {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}
}

func TestSubmitRejectsBlockedDate(t *testing.T) {
	service, mockDB := setupBookingService()
	mockDB.blockedDates["2026-09-12"] = true

	if _, err := service.Submit(context.Background(), validRequest()); !errors.Is(err, ErrDateUnavailable) {
		t.Fatalf("expected ErrDateUnavailable, got %v", err)
	}
}

func TestSubmitRejectsDoubleBooking(t *testing.T) {
	service, _ := setupBookingService()

	if _, err := service.Submit(context.Background(), validRequest()); err != nil {
		t.Fatalf("first submission failed: %v", err)
	}
	if _, err := service.Submit(context.Background(), validRequest()); !errors.Is(err, ErrDateConflict) {
		t.Fatalf("expected ErrDateConflict, got %v", err)
	}
}

func TestSubmitAllowsRebookingAfterCancellation(t *testing.T) {
	service, mockDB := setupBookingService()

	resp, err := service.Submit(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("first submission failed: %v", err)
	}
	mockDB.bookings[resp.BookingID].Status = models.StatusCancelled

	if _, err := service.Submit(context.Background(), validRequest()); err != nil {
		t.Fatalf("expected cancelled booking to release the slot, got %v", err)
	}
}

func TestSubmitRejectsInvertedTimes(t *testing.T) {
	service, _ := setupBookingService()

	req := validRequest()
	req.StartTime = "14:00"
	req.EndTime = "10:00"

	if _, err := service.Submit(context.Background(), req); !errors.Is(err, ErrEndBeforeStart) {
		t.Fatalf("expected ErrEndBeforeStart, got %v", err)
	}
}

func TestSubmitMapsInsertConflict(t *testing.T) {
	service, mockDB := setupBookingService()
	mockDB.shouldFailOn = "CreateBookingWithEvent"
	mockDB.errorToReturn = db.ErrConflict

	if _, err := service.Submit(context.Background(), validRequest()); !errors.Is(err, ErrDateConflict) {
		t.Fatalf("expected ErrDateConflict from unique violation, got %v", err)
	}
}

func TestSubmitLinksAuthenticatedClient(t *testing.T) {
	service, mockDB := setupBookingService()

	req := validRequest()
	req.ClientID = "user-7"

	resp, err := service.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mockDB.bookings[resp.BookingID].ClientID != "user-7" {
		t.Errorf("client id = %q, want user-7", mockDB.bookings[resp.BookingID].ClientID)
	}
}

func TestLinkClientUpdatesBooking(t *testing.T) {
	service, mockDB := setupBookingService()
	mockDB.bookings["b1"] = &models.Booking{ID: "b1", Reference: "JTS-1", Status: models.StatusDepositPaid}

	updated, err := service.LinkClient(context.Background(), "b1", "user-7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.ClientID != "user-7" {
		t.Errorf("client id = %q, want user-7", updated.ClientID)
	}
	if mockDB.bookings["b1"].ClientID != "user-7" {
		t.Error("link not persisted")
	}
}

func TestLinkClientRequiresClientID(t *testing.T) {
	service, mockDB := setupBookingService()
	mockDB.bookings["b1"] = &models.Booking{ID: "b1", Reference: "JTS-1", Status: models.StatusDepositPaid}

	if _, err := service.LinkClient(context.Background(), "b1", ""); err == nil {
		t.Fatal("expected error for empty client id")
	}
}

func TestEstimateMultiService(t *testing.T) {
	service, mockDB := setupBookingService()
	mockDB.services["svc2"] = &models.Service{ID: "svc2", Name: "Videography", HourlyRatePence: 20000}

	estimate, err := service.Estimate(context.Background(), []EstimateLine{
		{ServiceID: "svc1", Hours: 4},
		{ServiceID: "svc2", Hours: 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(estimate.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(estimate.Items))
	}
	// 4h * £150 + 2h * £200 = £1000
	if estimate.EstimatedTotalPence != 100000 {
		t.Errorf("total = %d, want 100000", estimate.EstimatedTotalPence)
	}
	if estimate.DepositPence != 30000 {
		t.Errorf("deposit = %d, want 30000", estimate.DepositPence)
	}
	if estimate.DepositPence+estimate.BalancePence != estimate.EstimatedTotalPence {
		t.Error("deposit and balance do not sum to total")
	}
}

func TestApplyPaymentDeposit(t *testing.T) {
	service, mockDB := setupBookingService()
	mockDB.bookings["b1"] = &models.Booking{ID: "b1", Reference: "JTS-1", Status: models.StatusPendingDeposit}

	if err := service.ApplyPayment(context.Background(), "b1", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mockDB.bookings["b1"].Status != models.StatusDepositPaid {
		t.Errorf("status = %s, want deposit_paid", mockDB.bookings["b1"].Status)
	}
	if len(mockDB.outbox) != 1 {
		t.Errorf("outbox events = %d, want 1 status event", len(mockDB.outbox))
	}
}

func TestApplyPaymentBalanceUnlocksProject(t *testing.T) {
	service, mockDB := setupBookingService()
	unlocker := &MockUnlocker{}
	service.Projects = unlocker
	mockDB.bookings["b1"] = &models.Booking{ID: "b1", Reference: "JTS-1", Status: models.StatusDepositPaid}

	if err := service.ApplyPayment(context.Background(), "b1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mockDB.bookings["b1"].Status != models.StatusFullyPaid {
		t.Errorf("status = %s, want fully_paid", mockDB.bookings["b1"].Status)
	}
	if len(unlocker.unlocked) != 1 || unlocker.unlocked[0] != "b1" {
		t.Errorf("project not unlocked: %v", unlocker.unlocked)
	}
}

func TestApplyPaymentIsIdempotent(t *testing.T) {
	service, mockDB := setupBookingService()
	mockDB.bookings["b1"] = &models.Booking{ID: "b1", Reference: "JTS-1", Status: models.StatusDepositPaid}

	// A webhook retry for an already-applied deposit is a no-op, not an error.
	if err := service.ApplyPayment(context.Background(), "b1", false); err != nil {
		t.Fatalf("duplicate webhook should be ignored, got %v", err)
	}
	if len(mockDB.outbox) != 0 {
		t.Errorf("duplicate delivery generated %d events", len(mockDB.outbox))
	}
}

func TestApplyPaymentIgnoresStaleDepositWebhook(t *testing.T) {
	service, mockDB := setupBookingService()
	mockDB.bookings["b1"] = &models.Booking{ID: "b1", Reference: "JTS-1", Status: models.StatusFullyPaid}

	// A deposit event redelivered after the balance cleared must not error or
	// move the booking backwards.
	if err := service.ApplyPayment(context.Background(), "b1", false); err != nil {
		t.Fatalf("stale webhook should be ignored, got %v", err)
	}
	if mockDB.bookings["b1"].Status != models.StatusFullyPaid {
		t.Errorf("status regressed to %s", mockDB.bookings["b1"].Status)
	}
	if len(mockDB.outbox) != 0 {
		t.Errorf("stale delivery generated %d events", len(mockDB.outbox))
	}
}

func TestApplyPaymentOnCancelledBooking(t *testing.T) {
	service, mockDB := setupBookingService()
	mockDB.bookings["b1"] = &models.Booking{ID: "b1", Reference: "JTS-1", Status: models.StatusCancelled}

	if err := service.ApplyPayment(context.Background(), "b1", false); err != nil {
		t.Fatalf("payment on cancelled booking should be a logged no-op, got %v", err)
	}
	if mockDB.bookings["b1"].Status != models.StatusCancelled {
		t.Errorf("status = %s, want cancelled", mockDB.bookings["b1"].Status)
	}
}

func TestPaidLinkedBookingIsProjectEligible(t *testing.T) {
	service, mockDB := setupBookingService()

	req := validRequest()
	req.ClientID = "user-7"

	resp, err := service.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("submission failed: %v", err)
	}
	if err := service.ApplyPayment(context.Background(), resp.BookingID, false); err != nil {
		t.Fatalf("deposit payment failed: %v", err)
	}
	if err := service.ApplyPayment(context.Background(), resp.BookingID, true); err != nil {
		t.Fatalf("balance payment failed: %v", err)
	}

	// These two fields are exactly what project creation checks.
	saved := mockDB.bookings[resp.BookingID]
	if saved.ClientID == "" {
		t.Error("paid booking has no linked client")
	}
	if saved.Status != models.StatusFullyPaid {
		t.Errorf("status = %s, want fully_paid", saved.Status)
	}
}

func TestSetStatusRejectsSkip(t *testing.T) {
	service, mockDB := setupBookingService()
	mockDB.bookings["b1"] = &models.Booking{ID: "b1", Reference: "JTS-1", Status: models.StatusPendingDeposit}

	_, err := service.SetStatus(context.Background(), "b1", models.StatusCompleted)
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
}
