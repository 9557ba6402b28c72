package user

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"modaMarket/domain"
	redisrepo "modaMarket/internal/repository/redis"
	"modaMarket/pkg/logger"
	"modaMarket/pkg/utils"

	"github.com/go-playground/validator/v10"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"

	defaultTokenTTL        = 24 * time.Hour
	maxPreferredCategories = 3
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
}

type TokenRepository interface {
	StoreToken(ctx context.Context, userID, token string, data redisrepo.TokenData, ttl time.Duration) error
	ValidateToken(ctx context.Context, token string) (string, error)
	DeleteToken(ctx context.Context, userID string) error
}

type userService struct {
	userRepo  UserRepository
	tokenRepo TokenRepository
	validate  *validator.Validate
	jwtSecret string
	tokenTTL  time.Duration
}

func NewUserService(userRepo UserRepository, tokenRepo TokenRepository, jwtSecret string) *userService {
	return &userService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		validate:  validator.New(),
		jwtSecret: jwtSecret,
		tokenTTL:  defaultTokenTTL,
	}
}

func (s *userService) Register(ctx context.Context, user *domain.User) (domain.User, error) {
	if err := s.validate.Var(user.Email, "required,email"); err != nil {
		return domain.User{}, fmt.Errorf("%w: invalid email", domain.ErrBadParamInput)
	}
	if err := s.validate.Var(user.Password, "required,min=6"); err != nil {
		return domain.User{}, fmt.Errorf("%w: password must be at least 6 characters", domain.ErrBadParamInput)
	}
	if err := s.validate.Var(user.FullName, "required"); err != nil {
		return domain.User{}, fmt.Errorf("%w: full name is required", domain.ErrBadParamInput)
	}

	if user.AgeBin != "" && domain.AgeBinCode(user.AgeBin) == 0 {
		return domain.User{}, fmt.Errorf("%w: unknown age bin %q", domain.ErrBadParamInput, user.AgeBin)
	}

	if err := validatePreferredCategories(user.PreferredCategories); err != nil {
		return domain.User{}, err
	}

	_, err := s.userRepo.FindByEmail(ctx, user.Email)
	if err == nil {
		return domain.User{}, fmt.Errorf("%w: email already registered", domain.ErrConflict)
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, fmt.Errorf("failed to check existing email: %w", err)
	}

	hash, err := utils.HashPassword(user.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = hash

	if user.Role == "" {
		user.Role = RoleCustomer
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	logger.Info("user registered", "user_id", user.ID, "email", user.Email)

	created := *user
	created.Password = ""
	return created, nil
}

func (s *userService) Login(ctx context.Context, email, password, ipAddress, userAgent string) (string, domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.User{}, domain.ErrInvalidCredentials
		}
		return "", domain.User{}, fmt.Errorf("failed to find user: %w", err)
	}

	if !utils.CheckPassword(password, user.Password) {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}

	userID := strconv.FormatUint(uint64(user.ID), 10)
	token, err := utils.GenerateJWT(s.jwtSecret, userID, user.Role, s.tokenTTL)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("failed to generate token: %w", err)
	}

	now := time.Now()
	err = s.tokenRepo.StoreToken(ctx, userID, token, redisrepo.TokenData{
		UserID:    userID,
		Role:      user.Role,
		Token:     token,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.tokenTTL),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}, s.tokenTTL)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("failed to store token: %w", err)
	}

	user.Password = ""
	return token, user, nil
}

// ValidateTokenFromRedis resolves a bearer token to its user id, used by the
// auth middleware so revoked sessions stop working before the JWT expires.
func (s *userService) ValidateTokenFromRedis(ctx context.Context, token string) (string, error) {
	return s.tokenRepo.ValidateToken(ctx, token)
}

func (s *userService) Logout(ctx context.Context, userID uint) error {
	if err := s.tokenRepo.DeleteToken(ctx, strconv.FormatUint(uint64(userID), 10)); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	logger.Info("user logged out", "user_id", userID)
	return nil
}

func (s *userService) GetUserByID(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	user.Password = ""
	return user, nil
}

// UpdateProfile changes the fields that feed personalization: display name,
// age bin and preferred categories. Email and password stay untouched.
func (s *userService) UpdateProfile(ctx context.Context, id uint, fullName, ageBin, preferredCategories string) (domain.User, error) {
	if ageBin != "" && domain.AgeBinCode(ageBin) == 0 {
		return domain.User{}, fmt.Errorf("%w: unknown age bin %q", domain.ErrBadParamInput, ageBin)
	}
	if err := validatePreferredCategories(preferredCategories); err != nil {
		return domain.User{}, err
	}

	update := &domain.User{
		ID:                  id,
		FullName:            fullName,
		AgeBin:              ageBin,
		PreferredCategories: preferredCategories,
	}
	if err := s.userRepo.UpdateProfile(ctx, update); err != nil {
		return domain.User{}, err
	}

	return s.GetUserByID(ctx, id)
}

// validatePreferredCategories accepts an empty value; when set it must hold
// between one and three known product groups, comma-separated.
func validatePreferredCategories(csv string) error {
	if strings.TrimSpace(csv) == "" {
		return nil
	}

	parts := strings.Split(csv, ",")
	if len(parts) > maxPreferredCategories {
		return fmt.Errorf("%w: at most %d preferred categories", domain.ErrBadParamInput, maxPreferredCategories)
	}

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || !domain.IsKnownCategory(p) {
			return fmt.Errorf("%w: unknown category %q", domain.ErrBadParamInput, p)
		}
	}

	return nil
}
