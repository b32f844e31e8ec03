package booking_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"studio-service/internal/auth"
	"studio-service/internal/booking"
	"studio-service/internal/docs"
	"studio-service/internal/logger"
	"studio-service/internal/models"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	BookingService *booking.BookingService
	Documents      *docs.Generator
	Logger         *logger.Logger
}

func NewHandler(bookingService *booking.BookingService, documents *docs.Generator, log *logger.Logger) *Handler {
	return &Handler{
		BookingService: bookingService,
		Documents:      documents,
		Logger:         log,
	}
}

// SubmitBooking handles the public booking form.
func (h *Handler) SubmitBooking(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "SubmitBooking: received request")

	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("SubmitBooking: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.ClientName == "" || req.ClientEmail == "" {
		http.Error(w, "Name and email are required", http.StatusBadRequest)
		return
	}

	// Signed-in clients get the booking linked to their account; the portal
	// and project eligibility both key off this.
	if identity, ok := auth.From(r.Context()); ok {
		req.ClientID = identity.UserID
	}

	resp, err := h.BookingService.Submit(r.Context(), req)
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, booking.ErrDateConflict), errors.Is(err, booking.ErrDateUnavailable):
			status = http.StatusConflict
		case errors.Is(err, booking.ErrServiceNotFound):
			status = http.StatusNotFound
		}
		h.Logger.Error("API", fmt.Sprintf("SubmitBooking: %v", err))
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.Logger.Error("API", fmt.Sprintf("SubmitBooking: failed to encode response: %v", err))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("SubmitBooking: booking %s created", resp.Reference))
}

// Estimate returns an advisory multi-service quote without persisting anything.
func (h *Handler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Lines []booking.EstimateLine `json:"lines"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	estimate, err := h.BookingService.Estimate(r.Context(), req.Lines)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Estimate: %v", err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(estimate)
}

// LookupBooking resolves a booking by its public reference.
func (h *Handler) LookupBooking(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("ref")
	if reference == "" {
		http.Error(w, "ref query parameter is required", http.StatusBadRequest)
		return
	}

	bookingData, err := h.BookingService.DB.GetBookingByReference(r.Context(), reference)
	if err != nil {
		http.Error(w, "Booking not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bookingData)
}

// GetBooking returns one booking to its owner or an admin.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	bookingData, err := h.BookingService.GetBooking(r.Context(), bookingID)
	if err != nil {
		http.Error(w, "Booking not found", http.StatusNotFound)
		return
	}

	identity, ok := auth.From(r.Context())
	if !ok || (!identity.IsAdmin() && bookingData.ClientID != identity.UserID) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bookingData)
}

// ListMyBookings returns the authenticated client's bookings.
func (h *Handler) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.From(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	bookings, err := h.BookingService.ListClientBookings(r.Context(), identity.UserID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListMyBookings: %v", err))
		http.Error(w, "Failed to load bookings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bookings)
}

// ListBookings returns all bookings (admin only, enforced by routing).
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.BookingService.ListBookings(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListBookings: %v", err))
		http.Error(w, "Failed to load bookings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bookings)
}

// SetStatus applies an admin status override through the transition rules.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	var req struct {
		Status models.BookingStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !req.Status.Valid() {
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}

	bookingData, err := h.BookingService.SetStatus(r.Context(), bookingID, req.Status)
	if err != nil {
		var invalid *booking.InvalidTransitionError
		if errors.As(err, &invalid) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("SetStatus: %v", err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bookingData)
}

// LinkClient attaches a portal user to a booking made as a guest.
func (h *Handler) LinkClient(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	var req struct {
		ClientID string `json:"client_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ClientID == "" {
		http.Error(w, "client_id is required", http.StatusBadRequest)
		return
	}

	bookingData, err := h.BookingService.LinkClient(r.Context(), bookingID, req.ClientID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("LinkClient: %v", err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bookingData)
}

// PayBalance starts a hosted checkout for the outstanding balance.
func (h *Handler) PayBalance(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	bookingData, err := h.BookingService.GetBooking(r.Context(), bookingID)
	if err != nil {
		http.Error(w, "Booking not found", http.StatusNotFound)
		return
	}

	identity, ok := auth.From(r.Context())
	if !ok || (!identity.IsAdmin() && bookingData.ClientID != identity.UserID) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if bookingData.Status != models.StatusDepositPaid {
		http.Error(w, "Balance payment is only available after the deposit is paid", http.StatusConflict)
		return
	}

	url, err := h.BookingService.CreateCheckoutSession(r.Context(), bookingID, bookingData.BalancePence, true)
	if err != nil {
		h.writeBridgeError(w, "PayBalance", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"payment_url": url})
}

// DownloadConfirmation streams the booking confirmation PDF.
func (h *Handler) DownloadConfirmation(w http.ResponseWriter, r *http.Request) {
	h.streamDocument(w, r, "confirmation", h.Documents.Confirmation)
}

// DownloadAgreement streams the service agreement PDF.
func (h *Handler) DownloadAgreement(w http.ResponseWriter, r *http.Request) {
	h.streamDocument(w, r, "agreement", h.Documents.Agreement)
}

func (h *Handler) streamDocument(w http.ResponseWriter, r *http.Request, name string, render func(models.Booking) ([]byte, error)) {
	bookingID := chi.URLParam(r, "bookingId")

	bookingData, err := h.BookingService.GetBooking(r.Context(), bookingID)
	if err != nil {
		http.Error(w, "Booking not found", http.StatusNotFound)
		return
	}

	identity, ok := auth.From(r.Context())
	if !ok || (!identity.IsAdmin() && bookingData.ClientID != identity.UserID) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	pdf, err := render(*bookingData)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Download %s: %v", name, err))
		http.Error(w, "Failed to generate document", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%s.pdf"`, name, bookingData.Reference))
	w.Write(pdf)
}

// StripeWebhook receives checkout completion events from Stripe.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if err := h.BookingService.HandleStripeWebhook(r); err != nil {
		h.writeBridgeError(w, "StripeWebhook", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) writeBridgeError(w http.ResponseWriter, op string, err error) {
	var bridgeErr *booking.BridgeError
	if errors.As(err, &bridgeErr) {
		h.Logger.Error("PAYMENT", fmt.Sprintf("%s [%s]: %s", op, bridgeErr.Category, bridgeErr.InternalError))
		http.Error(w, bridgeErr.PublicError, bridgeErr.StatusCode)
		return
	}
	h.Logger.Error("PAYMENT", fmt.Sprintf("%s: %v", op, err))
	http.Error(w, "Payment processing error", http.StatusInternalServerError)
}
