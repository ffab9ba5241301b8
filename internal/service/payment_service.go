package service

import (
	"context"

	"github.com/420btc/svcmoto-sub000/internal/payment"
	"github.com/420btc/svcmoto-sub000/pkg/apperr"
)

// --- DTOs ---

type StartCheckoutRequest struct {
	UserID      string  `json:"user_id" binding:"required"`
	VehicleType string  `json:"vehicle_type" binding:"required"`
	VehicleID   string  `json:"vehicle_id" binding:"required"`
	StartTime   string  `json:"start_time" binding:"required"`
	EndTime     string  `json:"end_time" binding:"required"`
	TotalPrice  string  `json:"total_price" binding:"required"`
	Duration    float64 `json:"duration_hours" binding:"required"`
	EstimatedKm float64 `json:"estimated_km"`
	SuccessURL  string  `json:"success_url" binding:"required"`
	CancelURL   string  `json:"cancel_url" binding:"required"`
}

type CheckoutResponse struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

// WebhookEvent is the payment outcome notification. Signature verification
// happens at the handler on the raw body before this is parsed.
type WebhookEvent struct {
	Type      string               `json:"type"` // payment.succeeded, payment.failed
	SessionID string               `json:"session_id"`
	BookingID string               `json:"booking_id,omitempty"` // set on failure events for an existing booking
	Booking   CreateBookingRequest `json:"booking"`
}

// --- Interface ---

type PaymentService interface {
	StartCheckout(ctx context.Context, req StartCheckoutRequest) (CheckoutResponse, error)
	// HandleWebhook reacts to the provider's outcome: success creates the
	// PENDING booking from the session payload, failure cancels it.
	HandleWebhook(ctx context.Context, event WebhookEvent) error
}

type paymentService struct {
	provider       payment.Provider
	bookingService BookingService
}

func NewPaymentService(provider payment.Provider, bookingService BookingService) PaymentService {
	return &paymentService{provider: provider, bookingService: bookingService}
}

// --- Implementation ---

func (s *paymentService) StartCheckout(ctx context.Context, req StartCheckoutRequest) (CheckoutResponse, error) {
	session, err := s.provider.CreateCheckout(ctx, payment.CheckoutRequest{
		UserID:      req.UserID,
		VehicleType: req.VehicleType,
		VehicleID:   req.VehicleID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		TotalPrice:  req.TotalPrice,
		Duration:    req.Duration,
		EstimatedKm: req.EstimatedKm,
		SuccessURL:  req.SuccessURL,
		CancelURL:   req.CancelURL,
	})
	if err != nil {
		return CheckoutResponse{}, apperr.Wrap(apperr.KindInternal, "checkout provider unavailable", err)
	}

	return CheckoutResponse{SessionID: session.SessionID, RedirectURL: session.RedirectURL}, nil
}

func (s *paymentService) HandleWebhook(ctx context.Context, event WebhookEvent) error {
	switch event.Type {
	case "payment.succeeded":
		if _, err := s.bookingService.CreateBooking(ctx, event.Booking); err != nil {
			return err
		}
		return nil
	case "payment.failed":
		if event.BookingID == "" {
			// Nothing was booked yet, nothing to cancel.
			return nil
		}
		_, err := s.bookingService.CancelBooking(ctx, event.BookingID, "Payment failed")
		return err
	default:
		return apperr.Newf(apperr.KindValidation, "unknown webhook event type %q", event.Type)
	}
}
