package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	stripeclient "github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// BridgeError is a typed payment-bridge failure: category for logs, status and
// public message for the HTTP response. Checkout problems must never surface
// as a silent success.
type BridgeError struct {
	Category      string // "configuration", "validation", "processing"
	StatusCode    int
	PublicError   string
	InternalError string
	OriginalErr   error
}

func (e *BridgeError) Error() string {
	return e.InternalError
}

var stripeClient *stripeclient.API

// ConfigureStripe wires the hosted-checkout bridge. baseURL is the public site
// origin used for the success/cancel redirects.
func (s *BookingService) ConfigureStripe(secretKey, webhookSecret, baseURL string) {
	s.stripeKey = secretKey
	s.webhookSecret = webhookSecret
	s.baseURL = baseURL
	if secretKey != "" {
		stripeClient = stripeclient.New(secretKey, nil)
	}
}

// CreateCheckoutSession creates a hosted checkout session for the exact
// amount, persists the session id on the booking (separate fields for deposit
// and balance) and returns the checkout URL for a full-page redirect.
func (s *BookingService) CreateCheckoutSession(ctx context.Context, bookingID string, amountPence int64, balance bool) (string, error) {
	if stripeClient == nil {
		return "", &BridgeError{
			Category:      "configuration",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Payments are not available right now",
			InternalError: "stripe secret key is not configured",
		}
	}

	booking, err := s.DB.GetBookingByID(ctx, bookingID)
	if err != nil {
		return "", &BridgeError{
			Category:      "validation",
			StatusCode:    http.StatusNotFound,
			PublicError:   "Booking not found",
			InternalError: fmt.Sprintf("booking %s not found: %v", bookingID, err),
			OriginalErr:   err,
		}
	}

	paymentType := "deposit"
	if balance {
		paymentType = "balance"
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String("gbp"),
					UnitAmount: stripe.Int64(amountPence),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(fmt.Sprintf("%s — %s", booking.ServiceName, paymentType)),
						Description: stripe.String(fmt.Sprintf("Booking %s, %s %s–%s", booking.Reference, booking.EventDate, booking.StartTime, booking.EndTime)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(fmt.Sprintf("%s/booking/success?ref=%s", s.baseURL, booking.Reference)),
		CancelURL:  stripe.String(fmt.Sprintf("%s/booking/cancelled?ref=%s", s.baseURL, booking.Reference)),
	}

	// Reuse an existing Stripe customer for the booking email before falling
	// back to guest checkout.
	if customerID := s.findCustomerByEmail(booking.ClientEmail); customerID != "" {
		params.Customer = stripe.String(customerID)
	} else if booking.ClientEmail != "" {
		params.CustomerEmail = stripe.String(booking.ClientEmail)
	}

	params.AddMetadata("booking_id", booking.ID)
	params.AddMetadata("reference", booking.Reference)
	params.AddMetadata("payment_type", paymentType)

	sess, err := stripeClient.CheckoutSessions.New(params)
	if err != nil {
		return "", &BridgeError{
			Category:      "processing",
			StatusCode:    http.StatusBadGateway,
			PublicError:   "Could not start the payment flow",
			InternalError: fmt.Sprintf("failed to create checkout session for booking %s: %v", bookingID, err),
			OriginalErr:   err,
		}
	}

	if err := s.DB.SetSessionID(ctx, bookingID, sess.ID, balance); err != nil {
		// The session exists either way; losing the id only hurts later
		// reconciliation, so log and carry on.
		s.Logger.Error("PAYMENT", fmt.Sprintf("failed to persist session id for booking %s: %v", bookingID, err))
	}

	s.Logger.LogPayment("SESSION", booking.Reference, fmt.Sprintf("%s checkout for %dp", paymentType, amountPence))
	return sess.URL, nil
}

func (s *BookingService) findCustomerByEmail(email string) string {
	if email == "" {
		return ""
	}
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Limit = stripe.Int64(1)
	iter := stripeClient.Customers.List(params)
	for iter.Next() {
		return iter.Customer().ID
	}
	if err := iter.Err(); err != nil {
		s.Logger.Warn("PAYMENT", fmt.Sprintf("customer lookup failed for %s: %v", email, err))
	}
	return ""
}

// HandleStripeWebhook verifies and processes checkout completion events,
// advancing booking status through the machine.
func (s *BookingService) HandleStripeWebhook(r *http.Request) error {
	if s.webhookSecret == "" {
		return &BridgeError{
			Category:      "configuration",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Webhook processing error",
			InternalError: "stripe webhook secret is not configured",
		}
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return &BridgeError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid webhook payload",
			InternalError: fmt.Sprintf("failed to read webhook payload: %v", err),
			OriginalErr:   err,
		}
	}

	opts := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}
	event, err := webhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), s.webhookSecret, opts)
	if err != nil {
		return &BridgeError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid webhook signature",
			InternalError: fmt.Sprintf("webhook signature verification failed: %v", err),
			OriginalErr:   err,
		}
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return &BridgeError{
				Category:      "processing",
				StatusCode:    http.StatusBadRequest,
				PublicError:   "Invalid event data",
				InternalError: fmt.Sprintf("failed to unmarshal checkout session: %v", err),
				OriginalErr:   err,
			}
		}

		bookingID, exists := sess.Metadata["booking_id"]
		if !exists {
			return &BridgeError{
				Category:      "processing",
				StatusCode:    http.StatusBadRequest,
				PublicError:   "Invalid checkout session data",
				InternalError: "checkout session has no booking_id in metadata",
			}
		}
		balance := sess.Metadata["payment_type"] == "balance"

		if err := s.ApplyPayment(r.Context(), bookingID, balance); err != nil {
			return &BridgeError{
				Category:      "processing",
				StatusCode:    http.StatusInternalServerError,
				PublicError:   "Failed to process payment",
				InternalError: fmt.Sprintf("failed to apply payment for booking %s: %v", bookingID, err),
				OriginalErr:   err,
			}
		}

		s.Logger.LogPayment("WEBHOOK", bookingID, fmt.Sprintf("checkout completed (balance=%t)", balance))

	default:
		s.Logger.Info("WEBHOOK", fmt.Sprintf("Unhandled event type: %s", event.Type))
	}

	return nil
}
