// Package settings provides typed access to the persisted user settings.
//
// Values are stored JSON-encoded in a key/value backend. Every getter falls
// back to the documented default when the key is unset or unreadable.
package settings

import (
	"encoding/json"
	"log/slog"

	"github.com/mmcdole/reel/internal/domain"
)

// Key names a persisted setting
type Key string

const (
	// Application
	KeyToken      Key = "token"
	KeySearchText Key = "searchText"

	// Player
	KeyVolume                    Key = "volume"
	KeyMinimizeStalling          Key = "minimizeStalling"
	KeyRightHandedPlayerControls Key = "rightHandedPlayerControls"
	KeyKeyboardJumpSeconds       Key = "keyboardJumpSeconds"
	KeyKeyboardJumpVolume        Key = "keyboardJumpVolume"

	// Search request
	KeySearchHD              Key = "searchHD"
	KeySearchAdult           Key = "searchAdult"
	KeySearchSort            Key = "searchSort"
	KeySearchMinimumDuration Key = "searchMinimumDuration"
	KeySearchMaximumDuration Key = "searchMaximumDuration"
)

// Defaults
const (
	DefaultVolume                    = 1.0
	DefaultMinimizeStalling          = false
	DefaultRightHandedPlayerControls = true
	DefaultKeyboardJumpSeconds       = 10
	DefaultKeyboardJumpVolume        = 0.1
	DefaultSearchHD                  = false
	DefaultSearchAdult               = true
	DefaultSearchSort                = domain.SortAdded
)

// Title returns the user-facing label of a key, or "" for keys that
// are not shown in the settings screen.
func (k Key) Title() string {
	switch k {
	case KeyMinimizeStalling:
		return "Minimize stalling"
	case KeyRightHandedPlayerControls:
		return "Right-handed controls"
	case KeySearchHD:
		return "Search in HD"
	case KeySearchAdult:
		return "Show 18+ content"
	case KeySearchSort:
		return "Search order"
	default:
		return ""
	}
}

// Backend is raw key/value storage. store.DB implements it.
type Backend interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Settings reads and writes typed settings
type Settings struct {
	backend Backend
	logger  *slog.Logger
}

// New creates settings over a backend
func New(backend Backend, logger *slog.Logger) *Settings {
	if logger == nil {
		logger = slog.Default()
	}
	return &Settings{backend: backend, logger: logger}
}

// PlayerPrefs are the player-related settings
type PlayerPrefs struct {
	Volume                    float64
	MinimizeStalling          bool
	RightHandedPlayerControls bool
	KeyboardJumpSeconds       int
	KeyboardJumpVolume        float64
}

// === Generic helpers ===

func value[T any](s *Settings, key Key) (T, bool) {
	var v T
	data, ok := s.backend.Get(string(key))
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		s.logger.Warn("ignoring unreadable setting", "key", key, "error", err)
		return v, false
	}
	return v, true
}

func valueOr[T any](s *Settings, key Key, def T) T {
	if v, ok := value[T](s, key); ok {
		return v
	}
	return def
}

func set[T any](s *Settings, key Key, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.backend.Set(string(key), data)
}

// setOptional stores v, or removes the key when v is nil
func setOptional[T any](s *Settings, key Key, v *T) error {
	if v == nil {
		return s.backend.Delete(string(key))
	}
	return set(s, key, *v)
}

func optional[T any](s *Settings, key Key) *T {
	v, ok := value[T](s, key)
	if !ok {
		return nil
	}
	return &v
}

// === Application ===

// Token returns the stored access token, if any
func (s *Settings) Token() (string, bool) { return value[string](s, KeyToken) }

// SetToken stores the access token. An empty token removes it.
func (s *Settings) SetToken(token string) error {
	if token == "" {
		return s.backend.Delete(string(KeyToken))
	}
	return set(s, KeyToken, token)
}

// SearchText returns the last submitted search text
func (s *Settings) SearchText() (string, bool) { return value[string](s, KeySearchText) }

// SetSearchText remembers the search text; empty clears it
func (s *Settings) SetSearchText(text string) error {
	if text == "" {
		return s.backend.Delete(string(KeySearchText))
	}
	return set(s, KeySearchText, text)
}

// === Player ===

// Volume returns the player volume, 0 to 1. Defaults to DefaultVolume.
func (s *Settings) Volume() float64 { return valueOr(s, KeyVolume, DefaultVolume) }

// SetVolume stores the player volume
func (s *Settings) SetVolume(v float64) error { return set(s, KeyVolume, v) }

// MinimizeStalling reports whether the player should buffer ahead. Defaults to false.
func (s *Settings) MinimizeStalling() bool {
	return valueOr(s, KeyMinimizeStalling, DefaultMinimizeStalling)
}

// SetMinimizeStalling stores the buffering preference
func (s *Settings) SetMinimizeStalling(v bool) error { return set(s, KeyMinimizeStalling, v) }

// RightHandedPlayerControls reports the control layout. Defaults to true.
func (s *Settings) RightHandedPlayerControls() bool {
	return valueOr(s, KeyRightHandedPlayerControls, DefaultRightHandedPlayerControls)
}

// SetRightHandedPlayerControls stores the control layout
func (s *Settings) SetRightHandedPlayerControls(v bool) error {
	return set(s, KeyRightHandedPlayerControls, v)
}

// KeyboardJumpSeconds is the seek step for arrow keys, DefaultKeyboardJumpSeconds when unset
func (s *Settings) KeyboardJumpSeconds() int {
	return valueOr(s, KeyKeyboardJumpSeconds, DefaultKeyboardJumpSeconds)
}

// SetKeyboardJumpSeconds stores the seek step
func (s *Settings) SetKeyboardJumpSeconds(v int) error { return set(s, KeyKeyboardJumpSeconds, v) }

// KeyboardJumpVolume is the volume step for arrow keys, DefaultKeyboardJumpVolume when unset
func (s *Settings) KeyboardJumpVolume() float64 {
	return valueOr(s, KeyKeyboardJumpVolume, DefaultKeyboardJumpVolume)
}

// SetKeyboardJumpVolume stores the volume step
func (s *Settings) SetKeyboardJumpVolume(v float64) error { return set(s, KeyKeyboardJumpVolume, v) }

// Player returns a snapshot of the player settings
func (s *Settings) Player() PlayerPrefs {
	return PlayerPrefs{
		Volume:                    s.Volume(),
		MinimizeStalling:          s.MinimizeStalling(),
		RightHandedPlayerControls: s.RightHandedPlayerControls(),
		KeyboardJumpSeconds:       s.KeyboardJumpSeconds(),
		KeyboardJumpVolume:        s.KeyboardJumpVolume(),
	}
}

// === Search ===

// SearchHD reports whether searches ask for HD only. Defaults to DefaultSearchHD.
func (s *Settings) SearchHD() bool { return valueOr(s, KeySearchHD, DefaultSearchHD) }

// SetSearchHD stores the HD-only filter
func (s *Settings) SetSearchHD(v bool) error { return set(s, KeySearchHD, v) }

// SearchAdult reports whether adult results are included. Defaults to DefaultSearchAdult.
func (s *Settings) SearchAdult() bool { return valueOr(s, KeySearchAdult, DefaultSearchAdult) }

// SetSearchAdult stores the adult filter
func (s *Settings) SetSearchAdult(v bool) error { return set(s, KeySearchAdult, v) }

// SearchSort returns the result order. Unknown stored values fall back to
// DefaultSearchSort.
func (s *Settings) SearchSort() domain.SortOrder {
	raw, ok := value[string](s, KeySearchSort)
	if !ok {
		return DefaultSearchSort
	}
	sort, err := domain.ParseSortOrder(raw)
	if err != nil {
		s.logger.Warn("ignoring unknown search sort", "value", raw)
		return DefaultSearchSort
	}
	return sort
}

// SetSearchSort stores the result order
func (s *Settings) SetSearchSort(v domain.SortOrder) error { return set(s, KeySearchSort, string(v)) }

// SearchMinimumDuration returns the lower duration bound in seconds, nil when unset
func (s *Settings) SearchMinimumDuration() *uint { return optional[uint](s, KeySearchMinimumDuration) }

// SetSearchMinimumDuration stores the lower bound; nil removes it
func (s *Settings) SetSearchMinimumDuration(v *uint) error {
	return setOptional(s, KeySearchMinimumDuration, v)
}

// SearchMaximumDuration returns the upper duration bound in seconds, nil when unset
func (s *Settings) SearchMaximumDuration() *uint { return optional[uint](s, KeySearchMaximumDuration) }

// SetSearchMaximumDuration stores the upper bound; nil removes it
func (s *Settings) SetSearchMaximumDuration(v *uint) error {
	return setOptional(s, KeySearchMaximumDuration, v)
}

// Filters returns the search filters in effect now.
// Sessions call it once, when they are created.
func (s *Settings) Filters() domain.Filters {
	return domain.Filters{
		HDOnly:       s.SearchHD(),
		IncludeAdult: s.SearchAdult(),
		Sort:         s.SearchSort(),
		MinDuration:  s.SearchMinimumDuration(),
		MaxDuration:  s.SearchMaximumDuration(),
	}
}
