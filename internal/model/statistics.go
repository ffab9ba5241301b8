package model

import "time"

// StatisticsResponse aggregates the admin dashboard numbers for a time range.
type StatisticsResponse struct {
	TimeRangeStartDate time.Time        `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time        `json:"time_range_end_date"`
	TotalUsers         int64            `json:"total_users"`
	BookingsByStatus   map[string]int64 `json:"bookings_by_status"`
	CompletedRevenue   string           `json:"completed_revenue"` // EUR, decimal string
	PointsIssued       int64            `json:"points_issued"`
	PointsSpent        int64            `json:"points_spent"`
	DiscountsByStatus  map[string]int64 `json:"discounts_by_status"`
}
