package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/420btc/svcmoto-sub000/internal/config"
	"github.com/420btc/svcmoto-sub000/internal/database"
	"github.com/420btc/svcmoto-sub000/internal/model"
	"github.com/420btc/svcmoto-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testRewards() config.Rewards {
	return config.Rewards{
		PointsPerEuro:    12,
		CompletionBonus:  40,
		DiscountValidity: 30 * 24 * time.Hour,
		ReconcileGrace:   time.Hour,
		CodeAttempts:     10,
	}
}

// fixture wires the full service stack onto a private in-memory database.
type fixture struct {
	db           *gorm.DB
	userRepo     repository.UserRepository
	bookingRepo  repository.BookingRepository
	pointsRepo   repository.PointsRepository
	discountRepo repository.DiscountRepository

	users     UserService
	bookings  BookingService
	verify    VerificationService
	points    PointsService
	discounts DiscountService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	// A unique shared-cache name keeps each test on its own database while
	// letting the pool reuse the same memory store across connections.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Shared-cache sqlite misbehaves with concurrent pooled connections.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	pointsRepo := repository.NewPointsRepository(db)
	discountRepo := repository.NewDiscountRepository(db)

	cfg := testRewards()

	return &fixture{
		db:           db,
		userRepo:     userRepo,
		bookingRepo:  bookingRepo,
		pointsRepo:   pointsRepo,
		discountRepo: discountRepo,

		users:     NewUserService(userRepo, bookingRepo, pointsRepo, discountRepo, txManager, []byte("test-secret")),
		bookings:  NewBookingService(bookingRepo, userRepo, cfg),
		verify:    NewVerificationService(bookingRepo, pointsRepo, txManager, cfg, nil),
		points:    NewPointsService(pointsRepo),
		discounts: NewDiscountService(discountRepo, pointsRepo, userRepo, txManager, cfg, config.DefaultTiers(), nil),
	}
}

func (f *fixture) seedUser(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{
		Email:      email,
		Name:       "Test User",
		AuthMethod: model.AuthMethodEmail,
		Password:   "irrelevant",
		Role:       model.RoleCustomer,
		IsActive:   true,
	}
	require.NoError(t, f.userRepo.Create(context.Background(), user))
	return user
}

func (f *fixture) seedStaff(t *testing.T, email string) *model.User {
	t.Helper()
	staff := f.seedUser(t, email)
	staff.Role = model.RoleStaff
	require.NoError(t, f.userRepo.Update(context.Background(), staff))
	return staff
}

// seedBooking inserts a pending booking with a fixed verification code so
// tests can drive the verification flow deterministically.
func (f *fixture) seedBooking(t *testing.T, userID uuid.UUID, price string, code string, endTime time.Time) *model.Booking {
	t.Helper()
	totalPrice, err := decimal.NewFromString(price)
	require.NoError(t, err)

	booking := &model.Booking{
		UserID:           userID,
		VehicleType:      "scooter",
		VehicleID:        "SC-01",
		StartTime:        endTime.Add(-2 * time.Hour),
		EndTime:          endTime,
		TotalPrice:       totalPrice,
		DurationHours:    2,
		VerificationCode: code,
		Status:           model.BookingPending,
	}
	require.NoError(t, f.bookingRepo.Create(context.Background(), booking))
	return booking
}

// seedPoints credits a raw ledger entry, bypassing the verification flow.
func (f *fixture) seedPoints(t *testing.T, userID uuid.UUID, points int64) {
	t.Helper()
	entry := &model.PointsLedgerEntry{
		UserID:      userID,
		Points:      points,
		Reason:      model.ReasonRentalCompletion,
		Description: "seed",
	}
	require.NoError(t, f.pointsRepo.Append(context.Background(), entry))
}

func (f *fixture) balance(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	balance, err := f.pointsRepo.SumByUser(context.Background(), userID)
	require.NoError(t, err)
	return balance
}

func (f *fixture) ledgerCount(t *testing.T, userID uuid.UUID) int {
	t.Helper()
	entries, _, err := f.pointsRepo.ListByUser(context.Background(), userID, 1, 100)
	require.NoError(t, err)
	return len(entries)
}
