package adapter

import (
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// LaunchOptions are the player preferences applied to one launch
type LaunchOptions struct {
	Volume           float64 // 0..1
	MinimizeStalling bool
}

// Launcher opens stream URLs in an external player
type Launcher struct {
	command string   // Configured player command, empty to auto-detect
	args    []string // Extra arguments for the configured player
	flags   playerFlags
	logger  *slog.Logger

	// start runs a command without waiting; run waits for it
	start func(name string, args ...string) error
	run   func(name string, args ...string) error
}

// launchPath is one way of starting a player on a platform
type launchPath struct {
	path      string   // "mpv", "vlc" or "open-a:AppName"
	openFlags []string // Flags for macOS open, "open-a:" paths only
}

// playerFlags describes how a player takes volume and buffering options
type playerFlags struct {
	volume      string  // Flag prefix, e.g. "--volume="
	volumeScale float64 // Multiplier from 0..1 to the player's unit
	stall       []string
}

type playerConfig struct {
	flags     playerFlags
	platforms map[string][]launchPath
}

var players = map[string]playerConfig{
	"mpv": {
		flags: playerFlags{volume: "--volume=", volumeScale: 100, stall: []string{"--cache=yes", "--cache-secs=30"}},
		platforms: map[string][]launchPath{
			"darwin":  {{path: "mpv"}},
			"linux":   {{path: "mpv"}},
			"windows": {{path: "mpv"}},
		},
	},
	"vlc": {
		flags: playerFlags{volume: "--gain=", volumeScale: 1, stall: []string{"--network-caching=3000"}},
		platforms: map[string][]launchPath{
			"darwin":  {{path: "vlc"}, {path: "open-a:VLC"}},
			"linux":   {{path: "vlc"}},
			"windows": {{path: "vlc"}},
		},
	},
	"iina": {
		flags: playerFlags{volume: "--mpv-volume=", volumeScale: 100, stall: []string{"--mpv-cache=yes"}},
		platforms: map[string][]launchPath{
			"darwin": {{path: "open-a:IINA", openFlags: []string{"-n"}}},
		},
	},
	"celluloid": {
		flags: playerFlags{volume: "--mpv-volume=", volumeScale: 100, stall: []string{"--mpv-cache=yes"}},
		platforms: map[string][]launchPath{
			"linux": {{path: "celluloid"}},
		},
	},
	"potplayer": {
		flags: playerFlags{volume: "/volume=", volumeScale: 100},
		platforms: map[string][]launchPath{
			"windows": {{path: "PotPlayerMini64.exe"}, {path: "PotPlayerMini.exe"}},
		},
	},
}

// Preferred player order per platform
var candidatePlayers = map[string][]string{
	"darwin":  {"iina", "vlc", "mpv"},
	"linux":   {"mpv", "celluloid", "vlc"},
	"windows": {"vlc", "mpv", "potplayer"},
}

// NewLauncher creates a launcher. When command names a known player its
// volume and buffering flags are used; unknown players get only args.
func NewLauncher(command string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}

	var flags playerFlags
	if command != "" {
		if cfg, ok := players[playerName(command)]; ok {
			flags = cfg.flags
			logger.Debug("using known player flags", "player", playerName(command))
		}
	}

	return &Launcher{
		command: command,
		args:    args,
		flags:   flags,
		logger:  logger,
		start:   func(name string, args ...string) error { return exec.Command(name, args...).Start() },
		run:     func(name string, args ...string) error { return exec.Command(name, args...).Run() },
	}
}

// playerName reduces a command path to its registry name
func playerName(command string) string {
	base := filepath.Base(command)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ToLower(base)
}

// optionArgs renders launch options in a player's flag dialect. Full volume
// is the players' default and adds no flag.
func (f playerFlags) optionArgs(opts LaunchOptions) []string {
	var out []string
	if f.volume != "" && opts.Volume >= 0 && opts.Volume < 1 {
		format := "%s%.0f"
		if f.volumeScale == 1 {
			format = "%s%.2f"
		}
		out = append(out, fmt.Sprintf(format, f.volume, opts.Volume*f.volumeScale))
	}
	if opts.MinimizeStalling {
		out = append(out, f.stall...)
	}
	return out
}

// Launch opens url in the configured player, else the first installed
// candidate, else the system default handler.
func (l *Launcher) Launch(url string, opts LaunchOptions) error {
	if l.command != "" {
		return l.launchConfigured(url, opts)
	}

	if name, err := l.detectAndLaunch(url, opts); err == nil {
		l.logger.Info("launched with detected player", "player", name)
		return nil
	}

	l.logger.Info("no candidate players found, using system default")
	return l.launchDefault(url)
}

func (l *Launcher) launchConfigured(url string, opts LaunchOptions) error {
	args := append(append([]string{}, l.args...), l.flags.optionArgs(opts)...)
	l.logger.Info("launching player", "command", l.command, "args", args, "url", url)

	// GUI apps on macOS are often not in PATH
	if runtime.GOOS == "darwin" {
		if _, err := exec.LookPath(l.command); err != nil {
			var openFlags []string
			for _, lp := range players[playerName(l.command)].platforms["darwin"] {
				if strings.HasPrefix(lp.path, "open-a:") {
					openFlags = lp.openFlags
					break
				}
			}
			return l.start("open", openArgs(l.command, url, args, openFlags)...)
		}
	}

	return l.start(l.command, append(args, url)...)
}

// openArgs builds the argument list of macOS "open -a"
func openArgs(app, url string, playerArgs, openFlags []string) []string {
	out := append([]string{}, openFlags...)
	out = append(out, "-a", app)
	if len(playerArgs) > 0 {
		out = append(out, "--args")
		out = append(out, playerArgs...)
	}
	return append(out, url)
}

func (l *Launcher) detectAndLaunch(url string, opts LaunchOptions) (string, error) {
	candidates, ok := candidatePlayers[runtime.GOOS]
	if !ok {
		candidates = candidatePlayers["linux"]
	}

	for _, name := range candidates {
		player := players[name]
		paths, ok := player.platforms[runtime.GOOS]
		if !ok {
			continue
		}
		args := player.flags.optionArgs(opts)

		for _, lp := range paths {
			var err error
			if app, found := strings.CutPrefix(lp.path, "open-a:"); found {
				// Run waits, so a missing app reports an error
				err = l.run("open", openArgs(app, url, args, lp.openFlags)...)
			} else if _, err = exec.LookPath(lp.path); err == nil {
				err = l.start(lp.path, append(args, url)...)
			}
			if err == nil {
				return name, nil
			}
			l.logger.Debug("launch path not available", "player", name, "path", lp.path, "error", err)
		}
	}

	return "", fmt.Errorf("no candidate players found")
}

func (l *Launcher) launchDefault(url string) error {
	l.logger.Info("launching with system default", "os", runtime.GOOS, "url", url)
	switch runtime.GOOS {
	case "darwin":
		return l.start("open", url)
	case "windows":
		return l.start("cmd", "/c", "start", "", url)
	default:
		return l.start("xdg-open", url)
	}
}
