package profile

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Service implements profile business logic.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new profile service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Provision creates the profile for a freshly signed-up user. The identity
// provider is the source of truth for userID, email and username; the call
// fails if a profile exists for either the user id or the email.
func (s *Service) Provision(ctx context.Context, userID, email, userName string) (*Profile, error) {
	if email == "" || userName == "" {
		return nil, ErrMissingIdentity
	}

	if _, err := s.repo.GetByUserID(ctx, userID); err == nil {
		return nil, ErrProfileExists
	} else if !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrProfileExists
	} else if !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	p := &Profile{
		UserID:   userID,
		Email:    email,
		UserName: userName,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("profile provisioned",
		zap.String("user_id", userID),
		zap.String("email", email),
	)
	return p, nil
}

// Get returns the profile for the given identity-provider user id.
func (s *Service) Get(ctx context.Context, userID string) (*Profile, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// GetPreferences returns the stored dietary preferences.
func (s *Service) GetPreferences(ctx context.Context, userID string) (*Preferences, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	prefs := p.Preferences()
	return &prefs, nil
}

// UpdatePreferences stores dietary preferences for the user.
func (s *Service) UpdatePreferences(ctx context.Context, userID string, prefs Preferences) error {
	return s.repo.UpdatePreferences(ctx, userID, prefs)
}
