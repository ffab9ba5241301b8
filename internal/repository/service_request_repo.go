package repository

import (
	"context"

	"github.com/420btc/svcmoto-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ServiceRequestRepository interface {
	Create(ctx context.Context, req *model.ServiceRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ServiceRequest, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.ServiceRequest, int64, error)
	List(ctx context.Context, status string, page, limit int) ([]model.ServiceRequest, int64, error)
	Update(ctx context.Context, req *model.ServiceRequest) error
}

type serviceRequestRepository struct {
	db *gorm.DB
}

func NewServiceRequestRepository(db *gorm.DB) ServiceRequestRepository {
	return &serviceRequestRepository{db: db}
}

func (r *serviceRequestRepository) Create(ctx context.Context, req *model.ServiceRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *serviceRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ServiceRequest, error) {
	var req model.ServiceRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *serviceRequestRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.ServiceRequest, int64, error) {
	var reqs []model.ServiceRequest
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.ServiceRequest{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := db.Where("user_id = ?", userID).
		Order("created_at desc").Offset(offset).Limit(limit).
		Find(&reqs).Error
	if err != nil {
		return nil, 0, err
	}

	return reqs, total, nil
}

func (r *serviceRequestRepository) List(ctx context.Context, status string, page, limit int) ([]model.ServiceRequest, int64, error) {
	var reqs []model.ServiceRequest
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.ServiceRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Order("created_at desc").Offset(offset).Limit(limit)
	if status != "" {
		fetch = fetch.Where("status = ?", status)
	}
	if err := fetch.Find(&reqs).Error; err != nil {
		return nil, 0, err
	}

	return reqs, total, nil
}

func (r *serviceRequestRepository) Update(ctx context.Context, req *model.ServiceRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}
