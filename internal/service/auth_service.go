package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/coursework-service/internal/auth"
	"github.com/RubachokBoss/coursework-service/internal/lifecycle"
	"github.com/RubachokBoss/coursework-service/internal/models"
	"github.com/RubachokBoss/coursework-service/internal/repository"
)

type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.LoginResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	// Reauthenticate checks a teacher's password again and hands out the grant
	// needed to close an assignment.
	Reauthenticate(ctx context.Context, userID, password string) (lifecycle.CloseGrant, error)
}

type authService struct {
	userRepo   repository.UserRepository
	tokens     *auth.TokenService
	bcryptCost int
	logger     zerolog.Logger
}

func NewAuthService(userRepo repository.UserRepository, tokens *auth.TokenService, bcryptCost int, logger zerolog.Logger) AuthService {
	return &authService{
		userRepo:   userRepo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, models.Conflictf("That email address is already in use.")
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Role:         models.Role(req.Role),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("role", string(user.Role)).
		Msg("User registered")

	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, models.Unauthorizedf("Incorrect email or password.")
	}

	ok, err := auth.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.Unauthorizedf("Incorrect email or password.")
	}

	return s.issue(user)
}

func (s *authService) issue(user *models.User) (*models.LoginResponse, error) {
	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{AccessToken: token, User: user}, nil
}

func (s *authService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, models.NotFoundf("That user does not exist.")
	}
	return user, nil
}

func (s *authService) Reauthenticate(ctx context.Context, userID, password string) (lifecycle.CloseGrant, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return lifecycle.CloseGrant{}, err
	}
	if user.Role != models.RoleTeacher {
		return lifecycle.CloseGrant{}, models.Forbiddenf("Only a teacher can close an assignment.")
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return lifecycle.CloseGrant{}, err
	}
	if !ok {
		s.logger.Warn().Str("user_id", userID).Msg("Close re-authentication failed")
		return lifecycle.CloseGrant{}, models.Unauthorizedf("Incorrect password.")
	}

	return lifecycle.NewCloseGrant(user.ID), nil
}
