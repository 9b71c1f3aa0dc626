package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-pos-api/internal/config"
	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"
	"go-pos-api/pkg/jwt"
	"go-pos-api/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid user id or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
)

const minPasswordLength = 6

type AuthService interface {
	Login(ctx context.Context, userCode, password string) (*LoginResponse, error)
	Register(ctx context.Context, req *RegisterRequest, actor Actor) (*model.UserResponse, error)
	ResetPassword(ctx context.Context, userCode, oldPassword, newPassword string) error
	ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error)
	Authenticate(ctx context.Context, tokenString string) (*model.User, error)
	SeedAdmin(ctx context.Context, seed config.SeedConfig) error
}

type LoginResponse struct {
	Success bool               `json:"Success"`
	Message string             `json:"Message"`
	Token   string             `json:"Token"`
	User    model.UserResponse `json:"User"`
}

type TokenValidationResponse struct {
	User      model.UserResponse `json:"user"`
	Rights    []string           `json:"rights"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

type RegisterRequest struct {
	UserID    string `json:"userId" validate:"required,max=50"`
	Password  string `json:"password" validate:"required,min=6"`
	Name      string `json:"name" validate:"required"`
	UserType  string `json:"userType"`
	Email     string `json:"email" validate:"omitempty,email"`
	ContactNo string `json:"contactNo"`
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Manager
	log      *zap.Logger
	now      func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager, log *zap.Logger) AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		log:      log,
		now:      time.Now,
	}
}

func (s *authService) Login(ctx context.Context, userCode, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByUserCode(ctx, strings.TrimSpace(userCode))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.Active {
		return nil, ErrUserInactive
	}

	if !user.CheckPassword(password) {
		s.log.Info("login rejected", zap.String("user", user.UserCode))
		return nil, ErrInvalidCredentials
	}

	// Single session: older tokens stop validating once the version rotates.
	version := uuid.New().String()
	now := s.now()
	if err := s.userRepo.UpdateSession(ctx, user.ID, version, now); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	user.TokenVersion = version
	user.LastLoginAt = &now

	token, err := s.tokens.GenerateToken(jwt.Identity{
		UserID:       user.ID,
		UserCode:     user.UserCode,
		Name:         user.Name,
		Role:         user.UserType,
		Email:        user.Email,
		TokenVersion: version,
	})
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &LoginResponse{
		Success: true,
		Message: "Login successful",
		Token:   token,
		User:    user.ToResponse(),
	}, nil
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest, actor Actor) (*model.UserResponse, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.Name = strings.TrimSpace(req.Name)
	if req.UserType == "" {
		req.UserType = model.RoleCashier
	}
	req.UserType = strings.ToUpper(req.UserType)
	if !model.ValidUserType(req.UserType) {
		return nil, fmt.Errorf("%w: unknown user type %s", ErrInvalidRequest, req.UserType)
	}
	if len(req.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, errs[0].String())
	}

	exists, err := s.userRepo.ExistsByUserCode(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: user %s", ErrDuplicateEntry, req.UserID)
	}

	user := &model.User{
		UserCode:  req.UserID,
		Name:      req.Name,
		UserType:  req.UserType,
		Email:     strings.TrimSpace(req.Email),
		ContactNo: strings.TrimSpace(req.ContactNo),
		Active:    true,
		Rights:    model.DefaultRights(req.UserType),
	}
	user.CreatedBy = actor.UserID
	user.UpdatedBy = actor.UserID
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("user", user.UserCode), zap.String("type", user.UserType), zap.String("by", actor.UserID))

	resp := user.ToResponse()
	return &resp, nil
}

func (s *authService) ResetPassword(ctx context.Context, userCode, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByUserCode(ctx, strings.TrimSpace(userCode))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}

	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	// also rotates the token version, signing out every session
	return s.userRepo.UpdatePassword(ctx, user.ID, user.Password)
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.userFromClaims(ctx, claims)
	if err != nil {
		return nil, err
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return &TokenValidationResponse{
		User:      user.ToResponse(),
		Rights:    user.RightCodes(),
		ExpiresAt: expiresAt,
	}, nil
}

// Authenticate resolves a bearer token to its active user.
func (s *authService) Authenticate(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return s.userFromClaims(ctx, claims)
}

func (s *authService) userFromClaims(ctx context.Context, claims *jwt.Claims) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}
	return user, nil
}

// SeedAdmin creates the bootstrap administrator when no user with that code
// exists. An empty password disables seeding.
func (s *authService) SeedAdmin(ctx context.Context, seed config.SeedConfig) error {
	if seed.AdminPassword == "" {
		s.log.Info("admin seeding skipped, ADMIN_PASSWORD not set")
		return nil
	}
	exists, err := s.userRepo.ExistsByUserCode(ctx, seed.AdminUserCode)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = s.Register(ctx, &RegisterRequest{
		UserID:   seed.AdminUserCode,
		Password: seed.AdminPassword,
		Name:     "Administrator",
		UserType: model.RoleAdmin,
	}, Actor{UserID: "system", Name: "system"})
	return err
}
