package service

import (
	"context"
	"errors"
	"time"

	"github.com/420btc/svcmoto-sub000/internal/model"
	"github.com/420btc/svcmoto-sub000/internal/repository"
	"github.com/420btc/svcmoto-sub000/pkg/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// GoogleLoginRequest carries the identity already resolved by the OAuth glue.
// The handshake itself is the provider's business; this service only consumes
// its outcome.
type GoogleLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	GoogleID string `json:"google_id" binding:"required"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type TokenResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	Name        string  `json:"name"`
	Phone       string  `json:"phone"`
	AuthMethod  string  `json:"auth_method"`
	Role        string  `json:"role"`
	IsActive    bool    `json:"is_active"`
	LastLoginAt *string `json:"last_login_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// --- Interface ---

type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (TokenResponse, error)
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	LoginWithGoogle(ctx context.Context, req GoogleLoginRequest) (TokenResponse, error)
	GetUser(ctx context.Context, id string) (UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (UserResponse, error)
	SetActive(ctx context.Context, id string, active bool) (UserResponse, error)
	// WipeHistory is the explicit bulk wipe: removes the user's bookings,
	// ledger entries and discounts in one transaction. The user row survives.
	WipeHistory(ctx context.Context, id string) error
}

type userService struct {
	userRepo     repository.UserRepository
	bookingRepo  repository.BookingRepository
	pointsRepo   repository.PointsRepository
	discountRepo repository.DiscountRepository
	txManager    repository.TransactionManager
	jwtSecret    []byte
}

func NewUserService(
	userRepo repository.UserRepository,
	bookingRepo repository.BookingRepository,
	pointsRepo repository.PointsRepository,
	discountRepo repository.DiscountRepository,
	txManager repository.TransactionManager,
	jwtSecret []byte,
) UserService {
	return &userService{
		userRepo:     userRepo,
		bookingRepo:  bookingRepo,
		pointsRepo:   pointsRepo,
		discountRepo: discountRepo,
		txManager:    txManager,
		jwtSecret:    jwtSecret,
	}
}

// --- Implementation ---

func (s *userService) Register(ctx context.Context, req RegisterRequest) (TokenResponse, error) {
	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return TokenResponse{}, apperr.New(apperr.KindConflict, "email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return TokenResponse{}, apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}

	now := time.Now()
	user := &model.User{
		Email:       req.Email,
		Name:        req.Name,
		Phone:       req.Phone,
		AuthMethod:  model.AuthMethodEmail,
		Password:    string(hashed),
		Role:        model.RoleCustomer,
		IsActive:    true,
		LastLoginAt: &now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return TokenResponse{}, apperr.Wrap(apperr.KindInternal, "failed to create user", err)
	}

	return s.issueToken(user)
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return TokenResponse{}, apperr.New(apperr.KindNotFound, "invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return TokenResponse{}, apperr.New(apperr.KindNotFound, "invalid email or password")
	}
	if !user.IsActive {
		return TokenResponse{}, apperr.New(apperr.KindConflict, "account is blocked")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return TokenResponse{}, apperr.Wrap(apperr.KindInternal, "failed to stamp login", err)
	}

	return s.issueToken(user)
}

// LoginWithGoogle upserts the user from a resolved OAuth identity: first
// login creates the record, later logins refresh name and login time.
func (s *userService) LoginWithGoogle(ctx context.Context, req GoogleLoginRequest) (TokenResponse, error) {
	now := time.Now()

	user, err := s.userRepo.GetByGoogleID(ctx, req.GoogleID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return TokenResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load user", err)
		}
		// Fall back to email so an EMAIL account can be linked to Google.
		user, err = s.userRepo.GetByEmail(ctx, req.Email)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return TokenResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load user", err)
			}
			googleID := req.GoogleID
			user = &model.User{
				Email:       req.Email,
				Name:        req.Name,
				AuthMethod:  model.AuthMethodGoogle,
				GoogleID:    &googleID,
				Role:        model.RoleCustomer,
				IsActive:    true,
				LastLoginAt: &now,
			}
			if err := s.userRepo.Create(ctx, user); err != nil {
				return TokenResponse{}, apperr.Wrap(apperr.KindInternal, "failed to create user", err)
			}
			return s.issueToken(user)
		}
		googleID := req.GoogleID
		user.GoogleID = &googleID
		user.AuthMethod = model.AuthMethodGoogle
	}

	if !user.IsActive {
		return TokenResponse{}, apperr.New(apperr.KindConflict, "account is blocked")
	}

	user.Name = req.Name
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return TokenResponse{}, apperr.Wrap(apperr.KindInternal, "failed to update user", err)
	}

	return s.issueToken(user)
}

func (s *userService) GetUser(ctx context.Context, id string) (UserResponse, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return UserResponse{}, apperr.New(apperr.KindValidation, "invalid user id")
	}

	user, err := s.userRepo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserResponse{}, apperr.New(apperr.KindNotFound, "user not found")
		}
		return UserResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load user", err)
	}

	return toUserResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	users, total, err := s.userRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to fetch users", err)
	}

	result := make([]UserResponse, 0, len(users))
	for i := range users {
		result = append(result, toUserResponse(&users[i]))
	}
	return result, total, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (UserResponse, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return UserResponse{}, apperr.New(apperr.KindValidation, "invalid user id")
	}

	user, err := s.userRepo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserResponse{}, apperr.New(apperr.KindNotFound, "user not found")
		}
		return UserResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load user", err)
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return UserResponse{}, apperr.Wrap(apperr.KindInternal, "failed to update user", err)
	}

	return toUserResponse(user), nil
}

func (s *userService) SetActive(ctx context.Context, id string, active bool) (UserResponse, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return UserResponse{}, apperr.New(apperr.KindValidation, "invalid user id")
	}

	user, err := s.userRepo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserResponse{}, apperr.New(apperr.KindNotFound, "user not found")
		}
		return UserResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load user", err)
	}

	user.IsActive = active
	if err := s.userRepo.Update(ctx, user); err != nil {
		return UserResponse{}, apperr.Wrap(apperr.KindInternal, "failed to update user", err)
	}

	return toUserResponse(user), nil
}

func (s *userService) WipeHistory(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return apperr.New(apperr.KindValidation, "invalid user id")
	}

	if _, err := s.userRepo.GetByID(ctx, uid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "user not found")
		}
		return apperr.Wrap(apperr.KindInternal, "failed to load user", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.pointsRepo.DeleteByUser(txCtx, uid); err != nil {
			return err
		}
		if err := s.discountRepo.DeleteByUser(txCtx, uid); err != nil {
			return err
		}
		return s.bookingRepo.DeleteByUser(txCtx, uid)
	})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to wipe history", err)
	}
	return nil
}

func (s *userService) issueToken(user *model.User) (TokenResponse, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	})

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return TokenResponse{}, apperr.Wrap(apperr.KindInternal, "failed to generate token", err)
	}

	return TokenResponse{Token: signed, User: toUserResponse(user)}, nil
}

// --- Mapping ---

func toUserResponse(user *model.User) UserResponse {
	resp := UserResponse{
		ID:         user.ID.String(),
		Email:      user.Email,
		Name:       user.Name,
		Phone:      user.Phone,
		AuthMethod: user.AuthMethod,
		Role:       user.Role,
		IsActive:   user.IsActive,
		CreatedAt:  user.CreatedAt.Format(time.RFC3339),
	}
	if user.LastLoginAt != nil {
		s := user.LastLoginAt.Format(time.RFC3339)
		resp.LastLoginAt = &s
	}
	return resp
}
