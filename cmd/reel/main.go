package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/reel/internal/adapter"
	"github.com/mmcdole/reel/internal/adapter/source"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/engine"
	"github.com/mmcdole/reel/internal/service"
	"github.com/mmcdole/reel/internal/settings"
	"github.com/mmcdole/reel/internal/store"
	"github.com/mmcdole/reel/internal/tui"
	"github.com/mmcdole/reel/internal/tui/styles"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                    \r"

type options struct {
	showCached bool
	clearCache bool
	logout     bool
}

func main() {
	var showVersion bool
	var opts options
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&opts.showCached, "cached", false, "print the cached results of the last search and exit")
	flag.BoolVar(&opts.clearCache, "clear-cache", false, "drop cached search results and exit")
	flag.BoolVar(&opts.logout, "logout", false, "forget the access token and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("reel %s\n", Version)
		return
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, closeLog, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
		closeLog = func() error { return nil }
	}
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("starting reel", "version", Version, "source", cfg.Source.Type)

	// Snapshots are scoped to the backend they came from
	scope := cfg.Source.URL
	if cfg.Source.Type == adapter.SourceTypeCatalog {
		scope = cfg.Source.Catalog
	}
	db, err := store.Open(cfg.CacheDir(), scope)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer db.Close()

	prefs := settings.New(db, logger)
	sessionSvc := service.NewSessionService(prefs, db, logger)

	switch {
	case opts.logout:
		if err := sessionSvc.Logout(); err != nil {
			return fmt.Errorf("logout failed: %w", err)
		}
		fmt.Println("✓ Logged out")
		return nil
	case opts.clearCache:
		if err := sessionSvc.ClearCache(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Println("✓ Cache cleared")
		return nil
	case opts.showCached:
		return printCached(db, prefs)
	}

	token, _ := prefs.Token()
	if cfg.NeedsToken() && cfg.Source.Token == "" && token == "" {
		if token, err = runSetupFlow(cfg, prefs, logger); err != nil {
			return err
		}
	}

	transport, err := source.NewTransport(&cfg.Source, token, logger)
	if err != nil {
		return fmt.Errorf("failed to create search source: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailbox := engine.NewMailbox(16)
	defer mailbox.Close()
	eng := engine.New(ctx, engine.Config{
		Transport: transport,
		Filters:   prefs,
		Executor:  mailbox,
		Snapshots: db,
		Logger:    logger,
	})

	// Uses the configured player or auto-detects one
	launcher := adapter.NewLauncher(cfg.Player.Command, cfg.Player.Args, logger)
	playbackSvc := service.NewPlaybackService(launcher, prefs, logger)

	model := tui.NewModel(tui.Deps{
		Engine:      eng,
		Completions: mailbox.C(),
		Playback:    playbackSvc,
		Session:     sessionSvc,
		Prefs:       prefs,
		Logger:      logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")

	final, err := p.Run()
	if err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	if m, ok := final.(tui.Model); ok && m.LoggedOut {
		fmt.Println("✓ Logged out. Run reel again to sign in.")
	}

	logger.Info("shutting down")
	return nil
}

// printCached writes the cached results of the last search to stdout
func printCached(db *store.DB, prefs *settings.Settings) error {
	text, ok := prefs.SearchText()
	if !ok || text == "" {
		return errors.New("no previous search")
	}

	q := domain.QueryState{Text: text, Filters: prefs.Filters()}
	records, ok := db.LoadSnapshot(q.Key())
	if !ok {
		return fmt.Errorf("no cached results for %q", text)
	}

	for _, r := range records {
		quality := r.BestQuality()
		if quality == "" {
			quality = "-"
		}
		fmt.Printf("%-10s %-6s %s\n", r.FormattedDuration(), quality, r.Title)
	}
	return nil
}

// runSetupFlow asks for an access token until the source accepts one
func runSetupFlow(cfg *adapter.Config, prefs *settings.Settings, logger *slog.Logger) (string, error) {
	fmt.Println()
	fmt.Println("Welcome to Reel!")
	fmt.Println()

	for {
		fmt.Print("Enter your access token: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		token := strings.TrimSpace(string(raw))
		if token == "" {
			fmt.Println("Token cannot be empty. Please try again.")
			continue
		}

		err = verifyTokenWithSpinner(cfg, token, logger)
		if errors.Is(err, domain.ErrAuthFailed) {
			fmt.Println("✗ The token was rejected. Please try again.")
			fmt.Println()
			continue
		}
		if err != nil {
			return "", fmt.Errorf("could not verify token: %w", err)
		}

		if err := prefs.SetToken(token); err != nil {
			return "", fmt.Errorf("failed to save token: %w", err)
		}
		if !adapter.ConfigFileExists() {
			if err := adapter.SaveConfig(cfg); err != nil {
				return "", fmt.Errorf("failed to save config: %w", err)
			}
		}

		fmt.Println("✓ Token saved!")
		fmt.Println()
		return token, nil
	}
}

// verifyTokenWithSpinner runs a one-page search with token
func verifyTokenWithSpinner(cfg *adapter.Config, token string, logger *slog.Logger) error {
	transport, err := source.NewTransport(&cfg.Source, token, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resultCh := make(chan error, 1)
	go func() {
		_, err := transport.FetchPage(ctx, domain.QueryState{Text: "reel", Filters: domain.DefaultFilters()}, "")
		resultCh <- err
	}()

	frame := 0
	fmt.Printf("\r%s Verifying token...", styles.SpinnerFrames[frame])

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-resultCh:
			fmt.Print(clearSpinnerLine)
			if err == nil {
				fmt.Println("✓ Token verified")
			}
			return err

		case <-ticker.C:
			frame++
			fmt.Printf("\r%s Verifying token...", styles.SpinnerFrames[frame%len(styles.SpinnerFrames)])

		case <-ctx.Done():
			fmt.Print(clearSpinnerLine)
			return fmt.Errorf("verification timed out")
		}
	}
}
