package preferences

import (
	"fmt"
	"strings"

	"github.com/desertthunder/coursefinder/internal/shared"
)

// Mode is the persisted theme selection.
type Mode string

const (
	Light Mode = "light"
	Dark  Mode = "dark"
)

// ParseMode accepts "light" or "dark" in any case.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, nil
	case Dark:
		return Dark, nil
	default:
		return "", fmt.Errorf("%w: theme %q (want light or dark)", shared.ErrInvalidArgument, s)
	}
}

// Opposite returns the other mode.
func (m Mode) Opposite() Mode {
	if m == Dark {
		return Light
	}
	return Dark
}

func (m Mode) String() string { return string(m) }

// Theme is a static palette of hex colors.
type Theme struct {
	Mode          Mode
	Background    string
	Card          string
	Text          string
	TextSecondary string
	Primary       string
	Danger        string
	Success       string
	Border        string
}

var (
	LightTheme = Theme{
		Mode:          Light,
		Background:    "#F4F6F8",
		Card:          "#FFFFFF",
		Text:          "#1E293B",
		TextSecondary: "#64748B",
		Primary:       "#3B82F6",
		Danger:        "#EF4444",
		Success:       "#22C55E",
		Border:        "#E2E8F0",
	}

	DarkTheme = Theme{
		Mode:          Dark,
		Background:    "#0F172A",
		Card:          "#1E293B",
		Text:          "#F1F5F9",
		TextSecondary: "#94A3B8",
		Primary:       "#60A5FA",
		Danger:        "#F87171",
		Success:       "#4ADE80",
		Border:        "#334155",
	}
)

// ThemeFor returns the palette for m. Unknown modes get the light palette.
func ThemeFor(m Mode) Theme {
	if m == Dark {
		return DarkTheme
	}
	return LightTheme
}
