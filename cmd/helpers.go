package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/inovacc/gerritconn/internal/credential"
	"github.com/spf13/pflag"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// expandPath expands ~ to the user's home directory and returns an absolute path
func expandPath(path string) (string, error) {
	if len(path) == 0 {
		return "", fmt.Errorf("path is empty")
	}

	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}

		path = filepath.Join(home, path[1:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	return absPath, nil
}

// changedCredentials returns the --url and --username flags the user
// actually set. Flags left at their default are absent so they never mask
// settings.
func changedCredentials(flags *pflag.FlagSet, url, username string) credential.Set {
	var set credential.Set

	if flags.Changed("url") {
		set.URL = credential.FieldOf(url, true)
	}

	if flags.Changed("username") {
		set.Username = credential.FieldOf(username, true)
	}

	return set
}

// formatConnected renders the connectivity flag.
func formatConnected(connected bool) string {
	if connected {
		return okStyle.Render("connected")
	}

	return badStyle.Render("disconnected")
}

// formatAge returns a human-readable string for how long ago t was.
func formatAge(t time.Time) string {
	d := time.Since(t)

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour")
	default:
		return plural(int(d.Hours()/24), "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}

	return fmt.Sprintf("%d %ss ago", n, unit)
}
