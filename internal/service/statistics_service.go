package service

import (
	"context"
	"time"

	"github.com/420btc/svcmoto-sub000/internal/model"
	"github.com/420btc/svcmoto-sub000/internal/repository"
	"github.com/420btc/svcmoto-sub000/pkg/apperr"

	"gorm.io/gorm"
)

type StatisticsService interface {
	GetStatistics(ctx context.Context, startDate, endDate time.Time) (model.StatisticsResponse, error)
}

type statisticsService struct {
	db           *gorm.DB
	bookingRepo  repository.BookingRepository
	pointsRepo   repository.PointsRepository
	discountRepo repository.DiscountRepository
}

func NewStatisticsService(
	db *gorm.DB,
	bookingRepo repository.BookingRepository,
	pointsRepo repository.PointsRepository,
	discountRepo repository.DiscountRepository,
) StatisticsService {
	return &statisticsService{
		db:           db,
		bookingRepo:  bookingRepo,
		pointsRepo:   pointsRepo,
		discountRepo: discountRepo,
	}
}

// GetStatistics aggregates the admin dashboard numbers for a time range.
func (s *statisticsService) GetStatistics(ctx context.Context, startDate, endDate time.Time) (model.StatisticsResponse, error) {
	var response model.StatisticsResponse
	response.TimeRangeStartDate = startDate
	response.TimeRangeEndDate = endDate

	if err := s.db.WithContext(ctx).Model(&model.User{}).Count(&response.TotalUsers).Error; err != nil {
		return response, apperr.Wrap(apperr.KindInternal, "failed to count users", err)
	}

	byStatus, err := s.bookingRepo.CountByStatus(ctx, startDate, endDate)
	if err != nil {
		return response, apperr.Wrap(apperr.KindInternal, "failed to count bookings", err)
	}
	response.BookingsByStatus = byStatus

	revenue, err := s.bookingRepo.SumCompletedRevenue(ctx, startDate, endDate)
	if err != nil {
		return response, apperr.Wrap(apperr.KindInternal, "failed to sum revenue", err)
	}
	response.CompletedRevenue = revenue

	issued, err := s.pointsRepo.SumSigned(ctx, true)
	if err != nil {
		return response, apperr.Wrap(apperr.KindInternal, "failed to sum issued points", err)
	}
	response.PointsIssued = issued

	spent, err := s.pointsRepo.SumSigned(ctx, false)
	if err != nil {
		return response, apperr.Wrap(apperr.KindInternal, "failed to sum spent points", err)
	}
	response.PointsSpent = -spent

	discounts, err := s.discountRepo.CountByStatus(ctx)
	if err != nil {
		return response, apperr.Wrap(apperr.KindInternal, "failed to count discounts", err)
	}
	response.DiscountsByStatus = discounts

	return response, nil
}
