package service

import (
	"context"
	"errors"
	"time"

	"github.com/420btc/svcmoto-sub000/internal/config"
	"github.com/420btc/svcmoto-sub000/internal/model"
	"github.com/420btc/svcmoto-sub000/internal/repository"
	"github.com/420btc/svcmoto-sub000/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateBookingRequest struct {
	UserID      string  `json:"user_id" binding:"required"`
	VehicleType string  `json:"vehicle_type" binding:"required"`
	VehicleID   string  `json:"vehicle_id" binding:"required"`
	StartTime   string  `json:"start_time" binding:"required"` // RFC3339
	EndTime     string  `json:"end_time" binding:"required"`   // RFC3339
	TotalPrice  string  `json:"total_price" binding:"required"`
	Duration    float64 `json:"duration_hours" binding:"required"`
	EstimatedKm float64 `json:"estimated_km"`
}

type BookingResponse struct {
	ID               string  `json:"id"`
	UserID           string  `json:"user_id"`
	UserName         string  `json:"user_name,omitempty"`
	UserEmail        string  `json:"user_email,omitempty"`
	UserPhone        string  `json:"user_phone,omitempty"`
	VehicleType      string  `json:"vehicle_type"`
	VehicleID        string  `json:"vehicle_id"`
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
	TotalPrice       string  `json:"total_price"`
	DurationHours    float64 `json:"duration_hours"`
	EstimatedKm      float64 `json:"estimated_km"`
	VerificationCode string  `json:"verification_code,omitempty"` // "XXX XXX", owner-facing only
	IsVerified       bool    `json:"is_verified"`
	PointsAwarded    int64   `json:"points_awarded"`
	Status           string  `json:"status"`
	ResolutionNote   string  `json:"resolution_note,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// --- Interface ---

type BookingService interface {
	CreateBooking(ctx context.Context, req CreateBookingRequest) (BookingResponse, error)
	GetBooking(ctx context.Context, id string) (BookingResponse, error)
	ListBookings(ctx context.Context, userID string, page, limit int) ([]BookingResponse, int64, error)
	CancelBooking(ctx context.Context, id string, note string) (BookingResponse, error)
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	userRepo    repository.UserRepository
	cfg         config.Rewards
}

func NewBookingService(bookingRepo repository.BookingRepository, userRepo repository.UserRepository, cfg config.Rewards) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		cfg:         cfg,
	}
}

// --- Implementation ---

func (s *bookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (BookingResponse, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return BookingResponse{}, apperr.New(apperr.KindValidation, "invalid user id")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BookingResponse{}, apperr.New(apperr.KindNotFound, "user not found")
		}
		return BookingResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load user", err)
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return BookingResponse{}, apperr.New(apperr.KindValidation, "invalid start_time: expected RFC3339")
	}
	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return BookingResponse{}, apperr.New(apperr.KindValidation, "invalid end_time: expected RFC3339")
	}
	if !endTime.After(startTime) {
		return BookingResponse{}, apperr.New(apperr.KindValidation, "end_time must be after start_time")
	}

	price, err := decimal.NewFromString(req.TotalPrice)
	if err != nil {
		return BookingResponse{}, apperr.New(apperr.KindValidation, "invalid total_price")
	}
	if price.IsNegative() {
		return BookingResponse{}, apperr.New(apperr.KindValidation, "total_price must not be negative")
	}
	if req.Duration <= 0 {
		return BookingResponse{}, apperr.New(apperr.KindValidation, "duration_hours must be positive")
	}
	if req.EstimatedKm < 0 {
		return BookingResponse{}, apperr.New(apperr.KindValidation, "estimated_km must not be negative")
	}

	code, err := s.generateUniqueCode(ctx)
	if err != nil {
		return BookingResponse{}, err
	}

	booking := model.Booking{
		UserID:           user.ID,
		VehicleType:      req.VehicleType,
		VehicleID:        req.VehicleID,
		StartTime:        startTime,
		EndTime:          endTime,
		TotalPrice:       price,
		DurationHours:    req.Duration,
		EstimatedKm:      req.EstimatedKm,
		VerificationCode: code,
		IsVerified:       false,
		Status:           model.BookingPending,
	}

	if err := s.bookingRepo.Create(ctx, &booking); err != nil {
		return BookingResponse{}, apperr.Wrap(apperr.KindInternal, "failed to create booking", err)
	}

	booking.User = *user
	return toBookingResponse(booking, true), nil
}

func (s *bookingService) GetBooking(ctx context.Context, id string) (BookingResponse, error) {
	bookingID, err := uuid.Parse(id)
	if err != nil {
		return BookingResponse{}, apperr.New(apperr.KindValidation, "invalid booking id")
	}

	booking, err := s.bookingRepo.FindByIDWithUser(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BookingResponse{}, apperr.New(apperr.KindNotFound, "booking not found")
		}
		return BookingResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load booking", err)
	}

	return toBookingResponse(*booking, true), nil
}

func (s *bookingService) ListBookings(ctx context.Context, userID string, page, limit int) ([]BookingResponse, int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, apperr.New(apperr.KindValidation, "invalid user id")
	}

	bookings, total, err := s.bookingRepo.ListByUser(ctx, uid, page, limit)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to fetch bookings", err)
	}

	result := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		result = append(result, toBookingResponse(b, true))
	}
	return result, total, nil
}

// CancelBooking cancels a still-pending booking, e.g. on a failed payment
// notification. Terminal bookings are left untouched.
func (s *bookingService) CancelBooking(ctx context.Context, id string, note string) (BookingResponse, error) {
	bookingID, err := uuid.Parse(id)
	if err != nil {
		return BookingResponse{}, apperr.New(apperr.KindValidation, "invalid booking id")
	}

	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BookingResponse{}, apperr.New(apperr.KindNotFound, "booking not found")
		}
		return BookingResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load booking", err)
	}

	if booking.IsTerminal() {
		return BookingResponse{}, apperr.Newf(apperr.KindConflict, "booking is already %s", booking.Status)
	}

	now := time.Now()
	booking.Status = model.BookingCancelled
	booking.ResolutionNote = note
	booking.ResolvedAt = &now

	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return BookingResponse{}, apperr.Wrap(apperr.KindInternal, "failed to cancel booking", err)
	}

	return toBookingResponse(*booking, false), nil
}

// generateUniqueCode draws random 6-digit codes until one is globally unused.
// Exact-match uniqueness across all bookings, not just pending ones.
func (s *bookingService) generateUniqueCode(ctx context.Context) (string, error) {
	attempts := s.cfg.CodeAttempts
	if attempts <= 0 {
		attempts = 10
	}
	for i := 0; i < attempts; i++ {
		code, err := randomCode()
		if err != nil {
			return "", apperr.Wrap(apperr.KindInternal, "failed to generate verification code", err)
		}
		exists, err := s.bookingRepo.CodeExists(ctx, code)
		if err != nil {
			return "", apperr.Wrap(apperr.KindInternal, "failed to check verification code", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", apperr.New(apperr.KindInternal, "could not generate a unique verification code")
}

// --- Mapping ---

func toBookingResponse(b model.Booking, includeCode bool) BookingResponse {
	resp := BookingResponse{
		ID:             b.ID.String(),
		UserID:         b.UserID.String(),
		VehicleType:    b.VehicleType,
		VehicleID:      b.VehicleID,
		StartTime:      b.StartTime.Format(time.RFC3339),
		EndTime:        b.EndTime.Format(time.RFC3339),
		TotalPrice:     b.TotalPrice.StringFixed(2),
		DurationHours:  b.DurationHours,
		EstimatedKm:    b.EstimatedKm,
		IsVerified:     b.IsVerified,
		PointsAwarded:  b.PointsAwarded,
		Status:         b.Status,
		ResolutionNote: b.ResolutionNote,
		CreatedAt:      b.CreatedAt.Format(time.RFC3339),
	}

	if includeCode {
		resp.VerificationCode = formatCode(b.VerificationCode)
	}
	if b.User.ID != uuid.Nil {
		resp.UserName = b.User.Name
		resp.UserEmail = b.User.Email
		resp.UserPhone = b.User.Phone
	}

	return resp
}
