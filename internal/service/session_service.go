package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/timetracker/internal/domain"
	"github.com/spec-kit/timetracker/internal/events"
	"github.com/spec-kit/timetracker/internal/repository"
	apperrors "github.com/spec-kit/timetracker/pkg/util"
)

// SessionService coordinates registration and login flows.
type SessionService struct {
	users  repository.UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	events events.Dispatcher
	logger *zap.Logger

	decoyOnce sync.Once
	decoy     string
}

// SessionDependencies encapsulates requirements for the session service.
type SessionDependencies struct {
	Users  repository.UserRepository
	Hasher PasswordHasher
	Tokens TokenIssuer
	Events events.Dispatcher
	Logger *zap.Logger
}

// NewSessionService builds the service.
func NewSessionService(deps SessionDependencies) *SessionService {
	return &SessionService{
		users:  deps.Users,
		hasher: deps.Hasher,
		tokens: deps.Tokens,
		events: deps.Events,
		logger: nopIfNil(deps.Logger),
	}
}

// RegisterInput carries the addUser arguments.
type RegisterInput struct {
	Name          string
	Email         string
	Password      string
	PasswordAgain string
}

// Register creates a new account.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if strings.TrimSpace(in.Email) == "" {
		return nil, apperrors.NewValidationError("Email can not be empty", map[string]any{"field": "email"})
	}
	if in.Password == "" {
		return nil, apperrors.NewValidationError("Password can not be empty", map[string]any{"field": "password"})
	}
	if in.Password != in.PasswordAgain {
		return nil, apperrors.NewValidationError("Passwords do not match", map[string]any{"field": "passwordAgain"})
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        domain.NormalizeEmail(in.Email),
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewDuplicateEmail()
		}
		return nil, apperrors.NewInternalError(err)
	}

	publish(ctx, s.events, s.logger, events.EventUserRegistered, user.ID, events.UserRegisteredPayload{Email: user.Email})
	return user, nil
}

// Login verifies credentials and returns a signed token.
func (s *SessionService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Spend a hash comparison anyway so unknown emails are not faster.
			_ = s.hasher.Verify(s.decoyHash(), password)
			return "", apperrors.NewInvalidCredentials()
		}
		return "", apperrors.NewInternalError(err)
	}

	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		return "", apperrors.NewInvalidCredentials()
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return token, nil
}

// User returns the account with the given id.
func (s *SessionService) User(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

func (s *SessionService) decoyHash() string {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash("decoy-password")
		if err != nil {
			s.logger.Warn("decoy hash failed", zap.Error(err))
			return
		}
		s.decoy = hash
	})
	return s.decoy
}
