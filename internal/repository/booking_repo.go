package repository

import (
	"context"
	"time"

	"github.com/420btc/svcmoto-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	FindByIDWithUser(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// FindPendingByCode matches a verification code by exact equality among
	// bookings that are still PENDING and unverified.
	FindPendingByCode(ctx context.Context, code string) (*model.Booking, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*model.Booking, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Booking, int64, error)
	// ListExpiredPending returns PENDING+unverified bookings of the user whose
	// end time passed before the cutoff and which have not been offered the
	// expiry confirmation yet.
	ListExpiredPending(ctx context.Context, userID uuid.UUID, cutoff time.Time) ([]model.Booking, error)
	// ListRecentVerified returns the latest verified bookings for the staff
	// console, newest verification first.
	ListRecentVerified(ctx context.Context, limit int) ([]model.Booking, error)
	Update(ctx context.Context, booking *model.Booking) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
	CountByStatus(ctx context.Context, since, until time.Time) (map[string]int64, error)
	SumCompletedRevenue(ctx context.Context, since, until time.Time) (string, error)
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return GetDB(ctx, r.db).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var booking model.Booking
	if err := GetDB(ctx, r.db).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByIDWithUser(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var booking model.Booking
	if err := GetDB(ctx, r.db).Preload("User").First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindPendingByCode(ctx context.Context, code string) (*model.Booking, error) {
	var booking model.Booking
	err := GetDB(ctx, r.db).Preload("User").
		Where("verification_code = ? AND status = ? AND is_verified = ?", code, model.BookingPending, false).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByIdempotencyKey(ctx context.Context, key string) (*model.Booking, error) {
	var booking model.Booking
	if err := GetDB(ctx, r.db).Preload("User").First(&booking, "verify_idempotency = ?", key).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Booking{}).
		Where("verification_code = ?", code).
		Count(&count).Error
	return count > 0, err
}

func (r *bookingRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Booking, int64, error) {
	var bookings []model.Booking
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Booking{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := db.Where("user_id = ?", userID).
		Order("created_at desc").Offset(offset).Limit(limit).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

func (r *bookingRepository) ListExpiredPending(ctx context.Context, userID uuid.UUID, cutoff time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := GetDB(ctx, r.db).
		Where("user_id = ? AND status = ? AND is_verified = ? AND end_time < ? AND expiry_prompted_at IS NULL",
			userID, model.BookingPending, false, cutoff).
		Order("end_time asc").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) ListRecentVerified(ctx context.Context, limit int) ([]model.Booking, error) {
	var bookings []model.Booking
	err := GetDB(ctx, r.db).Preload("User").
		Where("is_verified = ?", true).
		Order("updated_at desc").Limit(limit).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	return GetDB(ctx, r.db).Save(booking).Error
}

func (r *bookingRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("user_id = ?", userID).Delete(&model.Booking{}).Error
}

func (r *bookingRepository) CountByStatus(ctx context.Context, since, until time.Time) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := GetDB(ctx, r.db).Model(&model.Booking{}).
		Select("status, COUNT(*) as count").
		Where("created_at >= ? AND created_at <= ?", since, until).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(rows))
	for _, r := range rows {
		result[r.Status] = r.Count
	}
	return result, nil
}

func (r *bookingRepository) SumCompletedRevenue(ctx context.Context, since, until time.Time) (string, error) {
	var sum struct {
		Value string
	}
	err := GetDB(ctx, r.db).Model(&model.Booking{}).
		Select("COALESCE(SUM(total_price), 0) as value").
		Where("status IN ? AND created_at >= ? AND created_at <= ?",
			[]string{model.BookingCompleted, model.BookingCompletedNoVerify}, since, until).
		Scan(&sum).Error
	return sum.Value, err
}
