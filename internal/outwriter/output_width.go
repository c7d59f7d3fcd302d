package outwriter

import (
	"os"

	"github.com/huangsam/repolens/internal/contract"
	"golang.org/x/term"
)

// Width bounds for free-text table columns.
const (
	defaultTermWidth = 80 // Used when the terminal size is unknown, as in CI
	minTextWidth     = 15
	maxTextWidth     = 80
)

// terminalWidth returns the configured width override or the detected terminal width.
func terminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		return defaultTermWidth
	}
	return detectedWidth
}

// GetMaxMessageWidth calculates how many characters of a commit message fit in the
// commit table next to its fixed columns.
func GetMaxMessageWidth(cfg *contract.Config) int {
	// Hash + Date + Author + Type + Files + Churn with borders/padding
	baseWidth := 70
	return clampWidth(terminalWidth(cfg) - baseWidth)
}

// GetMaxPathWidth calculates the width left for file paths in two-column tables.
func GetMaxPathWidth(cfg *contract.Config) int {
	// Size column with borders/padding
	baseWidth := 25
	return clampWidth(terminalWidth(cfg) - baseWidth)
}

func clampWidth(available int) int {
	if available < minTextWidth {
		return minTextWidth
	}
	if available > maxTextWidth {
		return maxTextWidth
	}
	return available
}
