package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/hotelmunich/reservations-backend/internal/database"
	"github.com/hotelmunich/reservations-backend/internal/models"
	"github.com/hotelmunich/reservations-backend/pkg/jwt"
	"github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles reception desk authentication
type AuthService struct {
	users      *database.UserRepository
	audit      *database.AuditRepository
	jwtService *jwt.Service
	bcryptCost int
	logger     *logrus.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(users *database.UserRepository, audit *database.AuditRepository, jwtService *jwt.Service, bcryptCost int, logger *logrus.Logger) *AuthService {
	return &AuthService{
		users:      users,
		audit:      audit,
		jwtService: jwtService,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Authenticate verifies credentials and returns a token pair. Every
// attempt, successful or not, leaves an audit row.
func (s *AuthService) Authenticate(ctx context.Context, req models.LoginRequest, ipAddress, userAgent string) (*models.LoginResponse, error) {
	user, err := s.users.GetByUsername(req.Username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.auditLogin(nil, req.Username, ipAddress, userAgent, false)
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.auditLogin(&user.ID, req.Username, ipAddress, userAgent, false)
		return nil, models.ErrInvalidCredentials
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	s.auditLogin(&user.ID, req.Username, ipAddress, userAgent, true)

	s.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
	}).Info("User authenticated")

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtService.AccessTokenExpiry().Seconds()),
		User:         user,
	}, nil
}

// Refresh exchanges a valid refresh token for a new token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.LoginResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.users.GetByID(claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	newRefreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		ExpiresIn:    int64(s.jwtService.AccessTokenExpiry().Seconds()),
		User:         user,
	}, nil
}

// ChangePassword verifies the current password before storing a new hash
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req models.ChangePasswordRequest) error {
	if len(req.NewPassword) < 8 {
		return models.NewValidationError("new_password", "password must have at least 8 characters")
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return models.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePasswordHash(userID, string(hash)); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("Password changed")

	return nil
}

// GetUser returns one user by id
func (s *AuthService) GetUser(id int64) (*models.User, error) {
	return s.users.GetByID(id)
}

func (s *AuthService) auditLogin(userID *int64, username, ipAddress, rawUserAgent string, success bool) {
	ua := user_agent.New(rawUserAgent)
	browser, version := ua.Browser()

	action := "login_failed"
	if success {
		action = "login"
	}

	entry := database.AuditEntry{
		UserID:     userID,
		Action:     action,
		EntityType: "user",
		EntityID:   &username,
		IPAddress:  ipAddress,
		UserAgent:  rawUserAgent,
		Detail:     fmt.Sprintf("os=%s browser=%s %s", ua.OS(), browser, version),
	}
	if err := s.audit.Append(entry); err != nil {
		s.logger.WithError(err).Warn("Failed to write login audit entry")
	}
}
