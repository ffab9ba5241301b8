package service

import (
	"context"
	"errors"
	"time"

	"github.com/420btc/svcmoto-sub000/internal/model"
	"github.com/420btc/svcmoto-sub000/internal/repository"
	"github.com/420btc/svcmoto-sub000/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateServiceRequestRequest struct {
	UserID       string `json:"user_id" binding:"required"`
	Category     string `json:"category" binding:"required"`
	Description  string `json:"description" binding:"required"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
}

type ServiceRequestResponse struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

// --- Interface ---

type ServiceRequestService interface {
	Create(ctx context.Context, req CreateServiceRequestRequest) (ServiceRequestResponse, error)
	ListByUser(ctx context.Context, userID string, page, limit int) ([]ServiceRequestResponse, int64, error)
	List(ctx context.Context, status string, page, limit int) ([]ServiceRequestResponse, int64, error)
	UpdateStatus(ctx context.Context, id string, status string) (ServiceRequestResponse, error)
}

type serviceRequestService struct {
	repo     repository.ServiceRequestRepository
	userRepo repository.UserRepository
}

func NewServiceRequestService(repo repository.ServiceRequestRepository, userRepo repository.UserRepository) ServiceRequestService {
	return &serviceRequestService{repo: repo, userRepo: userRepo}
}

// --- Implementation ---

var validServiceStatuses = map[string]bool{
	model.ServicePending:    true,
	model.ServiceConfirmed:  true,
	model.ServiceInProgress: true,
	model.ServiceCompleted:  true,
	model.ServiceCancelled:  true,
}

func (s *serviceRequestService) Create(ctx context.Context, req CreateServiceRequestRequest) (ServiceRequestResponse, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return ServiceRequestResponse{}, apperr.New(apperr.KindValidation, "invalid user id")
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ServiceRequestResponse{}, apperr.New(apperr.KindNotFound, "user not found")
		}
		return ServiceRequestResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load user", err)
	}

	request := model.ServiceRequest{
		UserID:       userID,
		Category:     req.Category,
		Description:  req.Description,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		Status:       model.ServicePending,
	}
	if err := s.repo.Create(ctx, &request); err != nil {
		return ServiceRequestResponse{}, apperr.Wrap(apperr.KindInternal, "failed to create service request", err)
	}

	return toServiceRequestResponse(request), nil
}

func (s *serviceRequestService) ListByUser(ctx context.Context, userID string, page, limit int) ([]ServiceRequestResponse, int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, apperr.New(apperr.KindValidation, "invalid user id")
	}

	requests, total, err := s.repo.ListByUser(ctx, uid, page, limit)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to fetch service requests", err)
	}

	return mapServiceRequests(requests), total, nil
}

func (s *serviceRequestService) List(ctx context.Context, status string, page, limit int) ([]ServiceRequestResponse, int64, error) {
	if status != "" && !validServiceStatuses[status] {
		return nil, 0, apperr.Newf(apperr.KindValidation, "unknown status %q", status)
	}

	requests, total, err := s.repo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to fetch service requests", err)
	}

	return mapServiceRequests(requests), total, nil
}

func (s *serviceRequestService) UpdateStatus(ctx context.Context, id string, status string) (ServiceRequestResponse, error) {
	if !validServiceStatuses[status] {
		return ServiceRequestResponse{}, apperr.Newf(apperr.KindValidation, "unknown status %q", status)
	}

	reqID, err := uuid.Parse(id)
	if err != nil {
		return ServiceRequestResponse{}, apperr.New(apperr.KindValidation, "invalid service request id")
	}

	request, err := s.repo.FindByID(ctx, reqID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ServiceRequestResponse{}, apperr.New(apperr.KindNotFound, "service request not found")
		}
		return ServiceRequestResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load service request", err)
	}

	if request.Status == model.ServiceCompleted || request.Status == model.ServiceCancelled {
		return ServiceRequestResponse{}, apperr.Newf(apperr.KindConflict, "service request is already %s", request.Status)
	}

	request.Status = status
	if err := s.repo.Update(ctx, request); err != nil {
		return ServiceRequestResponse{}, apperr.Wrap(apperr.KindInternal, "failed to update service request", err)
	}

	return toServiceRequestResponse(*request), nil
}

// --- Mapping ---

func mapServiceRequests(requests []model.ServiceRequest) []ServiceRequestResponse {
	result := make([]ServiceRequestResponse, 0, len(requests))
	for _, r := range requests {
		result = append(result, toServiceRequestResponse(r))
	}
	return result
}

func toServiceRequestResponse(r model.ServiceRequest) ServiceRequestResponse {
	return ServiceRequestResponse{
		ID:           r.ID.String(),
		UserID:       r.UserID.String(),
		Category:     r.Category,
		Description:  r.Description,
		ContactName:  r.ContactName,
		ContactPhone: r.ContactPhone,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
	}
}
