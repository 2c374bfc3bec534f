package source

import (
	"fmt"
	"log/slog"

	"github.com/mmcdole/reel/internal/adapter"
	"github.com/mmcdole/reel/internal/adapter/source/catalog"
	"github.com/mmcdole/reel/internal/adapter/source/vk"
	"github.com/mmcdole/reel/internal/domain"
)

// NewTransport creates the search transport for the configured backend.
// token is the stored credential; a token set in cfg takes precedence.
func NewTransport(cfg *adapter.SourceConfig, token string, logger *slog.Logger) (domain.SearchTransport, error) {
	if cfg == nil {
		return nil, fmt.Errorf("source config is nil")
	}
	if cfg.Token != "" {
		token = cfg.Token
	}

	switch cfg.Type {
	case adapter.SourceTypeVK:
		if cfg.URL == "" {
			return nil, fmt.Errorf("source URL is required")
		}
		if token == "" {
			return nil, fmt.Errorf("access token is required for %s", cfg.Type)
		}
		return vk.NewClient(vk.Config{
			BaseURL:    cfg.URL,
			Token:      token,
			APIVersion: cfg.APIVersion,
			PageSize:   cfg.PageSize,
			Timeout:    cfg.Timeout,
		}, logger), nil

	case adapter.SourceTypeCatalog:
		src, err := catalog.Load(cfg.Catalog, cfg.PageSize, logger)
		if err != nil {
			return nil, err
		}
		return src, nil

	default:
		return nil, fmt.Errorf("unknown source type: %s", cfg.Type)
	}
}
