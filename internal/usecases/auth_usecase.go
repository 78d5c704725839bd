package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"cryptovest.backend/internal/domain/entities"
	domainerrors "cryptovest.backend/internal/domain/errors"
	"cryptovest.backend/internal/domain/repositories"
	"cryptovest.backend/pkg/crypto"
	"cryptovest.backend/pkg/jwt"
	"cryptovest.backend/pkg/logger"
)

const referralCodeAttempts = 5

var generateReferralCode = crypto.GenerateReferralCode

// AuthUsecase handles authentication business logic
type AuthUsecase struct {
	userRepo         repositories.UserRepository
	jwtService       *jwt.JWTService
	blockedCountries map[string]struct{}
}

// NewAuthUsecase creates a new auth usecase
func NewAuthUsecase(
	userRepo repositories.UserRepository,
	jwtService *jwt.JWTService,
	blockedCountries []string,
) *AuthUsecase {
	blocked := make(map[string]struct{}, len(blockedCountries))
	for _, c := range blockedCountries {
		blocked[strings.ToUpper(strings.TrimSpace(c))] = struct{}{}
	}
	return &AuthUsecase{
		userRepo:         userRepo,
		jwtService:       jwtService,
		blockedCountries: blocked,
	}
}

// Register creates a user and signs them in
func (u *AuthUsecase) Register(ctx context.Context, input *entities.CreateUserInput) (*entities.AuthResponse, error) {
	country := strings.ToUpper(strings.TrimSpace(input.Country))
	if _, blocked := u.blockedCountries[country]; blocked {
		return nil, domainerrors.ErrBlockedCountry
	}

	// Check if email already exists
	email := strings.ToLower(strings.TrimSpace(input.Email))
	_, err := u.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, domainerrors.ErrAlreadyExists
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	var referredBy null.String
	if code := strings.ToUpper(strings.TrimSpace(input.ReferralCode)); code != "" {
		if _, err := u.userRepo.GetByReferralCode(ctx, code); err != nil {
			if errors.Is(err, domainerrors.ErrNotFound) {
				return nil, domainerrors.Validation("unknown referral code")
			}
			return nil, err
		}
		referredBy = null.StringFrom(code)
	}

	referralCode, err := u.uniqueReferralCode(ctx)
	if err != nil {
		return nil, err
	}

	passwordHash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		Country:      country,
		PasswordHash: passwordHash,
		ReferralCode: referralCode,
		ReferredBy:   referredBy,
		Role:         entities.UserRoleUser,
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	logger.Info(ctx, "User registered", zap.String("userId", user.ID.String()), zap.String("country", country))

	return u.issue(user)
}

func (u *AuthUsecase) uniqueReferralCode(ctx context.Context) (string, error) {
	for i := 0; i < referralCodeAttempts; i++ {
		code, err := generateReferralCode()
		if err != nil {
			return "", err
		}
		_, err = u.userRepo.GetByReferralCode(ctx, code)
		if errors.Is(err, domainerrors.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("failed to allocate a unique referral code after %d attempts", referralCodeAttempts)
}

// Login authenticates a user and returns tokens
func (u *AuthUsecase) Login(ctx context.Context, input *entities.LoginInput) (*entities.AuthResponse, error) {
	user, err := u.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !crypto.CheckPassword(input.Password, user.PasswordHash) {
		return nil, domainerrors.ErrInvalidCredentials
	}

	return u.issue(user)
}

// RefreshToken generates new tokens from a refresh token
func (u *AuthUsecase) RefreshToken(ctx context.Context, refreshToken string) (*entities.AuthResponse, error) {
	claims, err := u.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrUnauthorized, err)
	}

	// the user may have been removed since the token was issued
	user, err := u.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.ErrUnauthorized
		}
		return nil, err
	}
	return u.issue(user)
}

// GetUserByID gets a user by ID
func (u *AuthUsecase) GetUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return u.userRepo.GetByID(ctx, id)
}

func (u *AuthUsecase) issue(user *entities.User) (*entities.AuthResponse, error) {
	tokenPair, err := u.jwtService.GenerateTokenPair(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &entities.AuthResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
		User:         user,
	}, nil
}
