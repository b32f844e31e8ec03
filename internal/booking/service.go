package booking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"studio-service/internal/booking/db"
	"studio-service/internal/kafka"
	"studio-service/internal/logger"
	"studio-service/internal/models"
	"studio-service/internal/utils"

	"github.com/google/uuid"
)

var (
	ErrNoService       = errors.New("no service selected")
	ErrServiceNotFound = errors.New("selected service does not exist")
	ErrDateUnavailable = errors.New("date unavailable")
	ErrDateConflict    = errors.New("this date is already booked for the selected service")
)

type DBLayer interface {
	CreateBookingWithEvent(ctx context.Context, booking models.Booking, event models.OutboxEvent) error
	InsertOutboxEvent(ctx context.Context, event models.OutboxEvent) error
	GetBookingByID(ctx context.Context, id string) (*models.Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error)
	UpdateBooking(ctx context.Context, booking models.Booking) error
	UpdateBookingStatus(ctx context.Context, id string, status models.BookingStatus) error
	SetSessionID(ctx context.Context, bookingID, sessionID string, balance bool) error
	ListBookings(ctx context.Context) ([]models.Booking, error)
	ListBookingsByClient(ctx context.Context, clientID string) ([]models.Booking, error)
	HasActiveBooking(ctx context.Context, eventDate, serviceID string) (bool, error)
	GetServiceByID(ctx context.Context, id string) (*models.Service, error)
	GetServicesByIDs(ctx context.Context, ids []string) ([]models.Service, error)
	IsDateBlocked(ctx context.Context, date string) (bool, error)
}

type SubmissionHold interface {
	Acquire(ctx context.Context, eventDate, serviceID, bookingID string) (bool, error)
	Release(ctx context.Context, eventDate, serviceID, bookingID string) error
}

// ProjectUnlocker lets a balance payment unlock the delivered project without
// the booking package depending on the project package.
type ProjectUnlocker interface {
	UnlockByBooking(ctx context.Context, bookingID string) error
}

type BookingService struct {
	DB          DBLayer
	Hold        SubmissionHold
	Projects    ProjectUnlocker
	Logger      *logger.Logger
	DepositRate float64

	// checkout bridge configuration, see stripe.go
	stripeKey     string
	webhookSecret string
	baseURL       string
}

func NewBookingService(dbLayer DBLayer, hold SubmissionHold, log *logger.Logger, depositRate float64) *BookingService {
	if depositRate <= 0 || depositRate >= 1 {
		depositRate = DefaultDepositRate
	}
	return &BookingService{
		DB:          dbLayer,
		Hold:        hold,
		Logger:      log,
		DepositRate: depositRate,
	}
}

// Submit runs the full booking submission: validation, availability, persist
// with outbox event, then checkout-session creation. Checkout failure is not
// fatal — the booking is already saved and the response carries a note instead
// of a payment URL.
func (s *BookingService) Submit(ctx context.Context, req models.BookingRequest) (*models.BookingResponse, error) {
	if req.ServiceID == "" {
		return nil, ErrNoService
	}

	service, err := s.DB.GetServiceByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to load service: %w", err)
	}

	hours, err := ComputeHours(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	blocked, err := s.DB.IsDateBlocked(ctx, req.EventDate)
	if err != nil {
		return nil, fmt.Errorf("failed to check blocked dates: %w", err)
	}
	if blocked {
		return nil, ErrDateUnavailable
	}

	taken, err := s.DB.HasActiveBooking(ctx, req.EventDate, req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}
	if taken {
		return nil, ErrDateConflict
	}

	bookingID := uuid.NewString()

	if s.Hold != nil {
		ok, err := s.Hold.Acquire(ctx, req.EventDate, req.ServiceID, bookingID)
		if err != nil {
			s.Logger.Warn("BOOKING", fmt.Sprintf("submission hold unavailable: %v", err))
		} else if !ok {
			return nil, ErrDateConflict
		} else {
			defer func() {
				_ = s.Hold.Release(context.Background(), req.EventDate, req.ServiceID, bookingID)
			}()
		}
	}

	quote := ComputeQuote(service.HourlyRatePence, hours, s.DepositRate)
	reference := utils.GenerateBookingReference()

	booking := models.Booking{
		ID:                  bookingID,
		Reference:           reference,
		ClientName:          req.ClientName,
		ClientEmail:         req.ClientEmail,
		ClientPhone:         req.ClientPhone,
		EventType:           req.EventType,
		ServiceID:           service.ID,
		ServiceName:         service.Name,
		EventDate:           req.EventDate,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		TotalHours:          hours,
		Location:            req.Location,
		Notes:               req.Notes,
		HourlyRatePence:     service.HourlyRatePence,
		EstimatedTotalPence: quote.EstimatedTotalPence,
		DepositPence:        quote.DepositPence,
		BalancePence:        quote.BalancePence,
		Status:              models.StatusPendingDeposit,
		ClientID:            req.ClientID,
		CreatedAt:           time.Now(),
	}

	event, err := newBookingEvent("booking.created", booking, kafka.TopicBookingCreated)
	if err != nil {
		return nil, fmt.Errorf("failed to build booking event: %w", err)
	}

	if err := s.DB.CreateBookingWithEvent(ctx, booking, event); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, ErrDateConflict
		}
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	s.Logger.LogBooking("CREATE", reference, fmt.Sprintf("%s on %s, %.2f hours, total %dp", service.Name, req.EventDate, hours, quote.EstimatedTotalPence))

	resp := &models.BookingResponse{
		BookingID:           bookingID,
		Reference:           reference,
		Status:              booking.Status,
		TotalHours:          hours,
		EstimatedTotalPence: quote.EstimatedTotalPence,
		DepositPence:        quote.DepositPence,
		BalancePence:        quote.BalancePence,
	}

	checkoutURL, err := s.CreateCheckoutSession(ctx, bookingID, quote.DepositPence, false)
	if err != nil {
		// The booking is saved; payment is arranged manually if checkout is down.
		s.Logger.Error("PAYMENT", fmt.Sprintf("checkout session failed for %s: %v", reference, err))
		resp.Note = "Your booking is confirmed as pending. We could not start the payment flow; the studio will contact you to arrange the deposit."
		return resp, nil
	}
	resp.PaymentURL = checkoutURL

	return resp, nil
}

// Estimate is the advisory multi-service calculator. Nothing is persisted.
func (s *BookingService) Estimate(ctx context.Context, lines []EstimateLine) (*Estimate, error) {
	if len(lines) == 0 {
		return &Estimate{Items: []EstimateItem{}}, nil
	}

	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.ServiceID == "" {
			return nil, ErrNoService
		}
		if line.Hours <= 0 {
			return nil, fmt.Errorf("hours must be positive for service %s", line.ServiceID)
		}
		ids = append(ids, line.ServiceID)
	}

	services, err := s.DB.GetServicesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load services: %w", err)
	}
	byID := make(map[string]models.Service, len(services))
	for _, svc := range services {
		byID[svc.ID] = svc
	}

	estimate := &Estimate{}
	var total int64
	for _, line := range lines {
		svc, ok := byID[line.ServiceID]
		if !ok {
			return nil, ErrServiceNotFound
		}
		sub := ComputeQuote(svc.HourlyRatePence, line.Hours, s.DepositRate).EstimatedTotalPence
		estimate.Items = append(estimate.Items, EstimateItem{
			ServiceID:     svc.ID,
			ServiceName:   svc.Name,
			Hours:         line.Hours,
			RatePence:     svc.HourlyRatePence,
			SubtotalPence: sub,
		})
		total += sub
	}

	split := ComputeQuote(total, 1, s.DepositRate)
	estimate.Quote = split
	return estimate, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.DB.GetBookingByID(ctx, id)
}

func (s *BookingService) ListBookings(ctx context.Context) ([]models.Booking, error) {
	return s.DB.ListBookings(ctx)
}

func (s *BookingService) ListClientBookings(ctx context.Context, clientID string) ([]models.Booking, error) {
	return s.DB.ListBookingsByClient(ctx, clientID)
}

// LinkClient attaches a portal identity to a booking made before the client
// signed up, so their projects and booking history resolve to them. Guest
// bookings stay unlinked until an admin matches them here.
func (s *BookingService) LinkClient(ctx context.Context, bookingID, clientID string) (*models.Booking, error) {
	if clientID == "" {
		return nil, errors.New("client id is required")
	}

	booking, err := s.DB.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("booking %s not found: %w", bookingID, err)
	}

	booking.ClientID = clientID
	booking.UpdatedAt = time.Now()
	if err := s.DB.UpdateBooking(ctx, *booking); err != nil {
		return nil, fmt.Errorf("failed to link client: %w", err)
	}

	s.Logger.LogBooking("LINK", booking.Reference, fmt.Sprintf("linked to client %s", clientID))
	return booking, nil
}

// SetStatus applies an admin status override through the transition rules.
func (s *BookingService) SetStatus(ctx context.Context, id string, to models.BookingStatus) (*models.Booking, error) {
	booking, err := s.DB.GetBookingByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("booking %s not found: %w", id, err)
	}

	if err := Transition(booking, to); err != nil {
		return nil, err
	}

	if err := s.DB.UpdateBookingStatus(ctx, id, to); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	s.Logger.LogBooking("STATUS", booking.Reference, string(to))
	s.notifyStatusChange(ctx, *booking)

	if to == models.StatusFullyPaid {
		s.unlockProject(ctx, booking.ID)
	}
	return booking, nil
}

// ApplyPayment advances the booking after a verified checkout completion.
// A deposit payment moves pending_deposit to deposit_paid; a balance payment
// moves deposit_paid to fully_paid and unlocks the delivered project.
func (s *BookingService) ApplyPayment(ctx context.Context, bookingID string, balance bool) error {
	booking, err := s.DB.GetBookingByID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("booking %s not found: %w", bookingID, err)
	}

	to := models.StatusDepositPaid
	if balance {
		to = models.StatusFullyPaid
	}

	if booking.Status == models.StatusCancelled {
		// The money needs manual follow-up; retrying the webhook won't help.
		s.Logger.Warn("PAYMENT", fmt.Sprintf("payment received for cancelled booking %s", booking.Reference))
		return nil
	}

	if paymentRank(booking.Status) >= paymentRank(to) {
		// Stripe retries webhooks; a repeat or stale delivery (e.g. a deposit
		// event redelivered after the balance cleared) is not an error.
		s.Logger.LogPayment("DUPLICATE", bookingID, fmt.Sprintf("already at or past %s", to))
		return nil
	}

	if err := Transition(booking, to); err != nil {
		return err
	}
	if err := s.DB.UpdateBookingStatus(ctx, bookingID, to); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	s.Logger.LogPayment("CONFIRMED", booking.Reference, string(to))
	s.notifyStatusChange(ctx, *booking)

	if to == models.StatusFullyPaid {
		s.unlockProject(ctx, bookingID)
	}
	return nil
}

func (s *BookingService) unlockProject(ctx context.Context, bookingID string) {
	if s.Projects == nil {
		return
	}
	if err := s.Projects.UnlockByBooking(ctx, bookingID); err != nil {
		s.Logger.Warn("PROJECT", fmt.Sprintf("could not unlock project for booking %s: %v", bookingID, err))
	}
}

// notifyStatusChange records a status event for the outbox stream. Failures
// are logged only — status writes must not fail on notification plumbing.
func (s *BookingService) notifyStatusChange(ctx context.Context, booking models.Booking) {
	event, err := newBookingEvent("booking.status", booking, kafka.TopicBookingStatus)
	if err != nil {
		s.Logger.Error("OUTBOX", fmt.Sprintf("failed to build status event: %v", err))
		return
	}
	if err := s.DB.InsertOutboxEvent(ctx, event); err != nil {
		s.Logger.Error("OUTBOX", fmt.Sprintf("failed to record status event: %v", err))
	}
}

func newBookingEvent(eventType string, booking models.Booking, topic string) (models.OutboxEvent, error) {
	payload, err := json.Marshal(models.BookingEvent{
		Type:           eventType,
		BookingID:      booking.ID,
		Reference:      booking.Reference,
		ClientName:     booking.ClientName,
		ClientEmail:    booking.ClientEmail,
		ServiceName:    booking.ServiceName,
		EventDate:      booking.EventDate,
		StartTime:      booking.StartTime,
		EndTime:        booking.EndTime,
		TotalHours:     booking.TotalHours,
		EstimatedPence: booking.EstimatedTotalPence,
		DepositPence:   booking.DepositPence,
		BalancePence:   booking.BalancePence,
		Status:         booking.Status,
		Timestamp:      time.Now(),
	})
	if err != nil {
		return models.OutboxEvent{}, err
	}
	return models.OutboxEvent{
		Topic:     topic,
		Key:       booking.ID,
		Payload:   payload,
		CreatedAt: time.Now(),
	}, nil
}
