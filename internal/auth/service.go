package auth

import (
	"context"
	"errors"
	"time"

	"tabour/internal/shared/config"
	"tabour/internal/shared/middleware"
	"tabour/pkg/logger"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrBranchRequired     = errors.New("managers must be assigned a branch")
)

type Service interface {
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	CreateStaff(ctx context.Context, req *CreateStaffRequest) (*StaffResponse, error)
	ListStaff(ctx context.Context) ([]StaffResponse, error)
}

type service struct {
	repo   Repository
	cfg    *config.Config
	logger *logger.Logger
}

func NewService(repo Repository, cfg *config.Config, log *logger.Logger) Service {
	return &service{repo: repo, cfg: cfg, logger: log}
}

// Login verifies the password and issues a token whose claims carry
// the caller's role and branch scope. Core operations receive those
// claims as an explicit capability, never from ambient state.
func (s *service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.LogAuthFailure(ctx, "unknown username", req.Username)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.LogAuthFailure(ctx, "wrong password", req.Username)
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(s.cfg.JWT.JWTExpiresIn)
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    user.Role,
		"iat":     time.Now().Unix(),
		"exp":     expiresAt.Unix(),
	}
	if user.BranchID != nil {
		claims["branch_id"] = user.BranchID.String()
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return nil, err
	}

	s.logger.LogAuthSuccess(ctx, user.ID.String(), user.Role)
	return &LoginResponse{
		Token:     token,
		Role:      user.Role,
		BranchID:  user.BranchID,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *service) CreateStaff(ctx context.Context, req *CreateStaffRequest) (*StaffResponse, error) {
	if req.Role == middleware.RoleManager && req.BranchID == nil {
		return nil, ErrBranchRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &StaffUser{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         req.Role,
		BranchID:     req.BranchID,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *service) ListStaff(ctx context.Context) ([]StaffResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]StaffResponse, 0, len(users))
	for i := range users {
		responses = append(responses, users[i].ToResponse())
	}
	return responses, nil
}
