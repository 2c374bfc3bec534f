package service

import "log/slog"

// credentials is the part of the settings store that holds the login
type credentials interface {
	SetToken(token string) error
	SetSearchText(text string) error
}

// snapshotCache is the persisted result cache
type snapshotCache interface {
	InvalidateSnapshots() error
}

// SessionService manages user session operations
type SessionService struct {
	creds  credentials
	cache  snapshotCache
	logger *slog.Logger
}

// NewSessionService creates a new SessionService
func NewSessionService(creds credentials, cache snapshotCache, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{creds: creds, cache: cache, logger: logger}
}

// Logout forgets the token, the last search and every cached result.
// Player and search preferences are kept.
func (s *SessionService) Logout() error {
	if err := s.creds.SetToken(""); err != nil {
		return err
	}
	if err := s.creds.SetSearchText(""); err != nil {
		return err
	}
	if err := s.ClearCache(); err != nil {
		return err
	}
	s.logger.Info("logged out")
	return nil
}

// ClearCache drops every cached result snapshot
func (s *SessionService) ClearCache() error {
	return s.cache.InvalidateSnapshots()
}
