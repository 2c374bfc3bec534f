package service

import (
	"fmt"
	"log/slog"

	"github.com/mmcdole/reel/internal/adapter"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/settings"
)

// launcher abstracts media player launching (consumer-defined interface)
type launcher interface {
	Launch(url string, opts adapter.LaunchOptions) error
}

// playerSettings supplies the player preferences in effect at launch
type playerSettings interface {
	Player() settings.PlayerPrefs
}

// PlaybackService plays search results in an external player
type PlaybackService struct {
	launcher launcher
	prefs    playerSettings
	logger   *slog.Logger
}

// NewPlaybackService creates a new playback service
func NewPlaybackService(launcher launcher, prefs playerSettings, logger *slog.Logger) *PlaybackService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaybackService{
		launcher: launcher,
		prefs:    prefs,
		logger:   logger,
	}
}

// Play resolves the record's stream and launches the player. A record with
// no usable variant returns an error wrapping domain.ErrNoPlayableVariant.
func (s *PlaybackService) Play(record domain.Record) error {
	url, ok := domain.ResolveVariant(record.Variants)
	if !ok {
		s.logger.Warn("no playable variant", "id", record.ID, "title", record.Title, "variants", len(record.Variants))
		return fmt.Errorf("%s: %w", record.Title, domain.ErrNoPlayableVariant)
	}

	prefs := s.prefs.Player()
	s.logger.Info("launching playback",
		"id", record.ID,
		"title", record.Title,
		"quality", record.BestQuality(),
		"volume", prefs.Volume,
	)

	err := s.launcher.Launch(url, adapter.LaunchOptions{
		Volume:           prefs.Volume,
		MinimizeStalling: prefs.MinimizeStalling,
	})
	if err != nil {
		s.logger.Error("failed to launch player", "error", err, "id", record.ID)
		return fmt.Errorf("launch player: %w", err)
	}
	return nil
}
