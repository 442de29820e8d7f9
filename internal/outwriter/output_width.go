package outwriter

import (
	"os"

	"golang.org/x/term"

	"github.com/huangsam/airseries/internal/contract"
)

// Column width limits for report tables.
const (
	timeColumnWidth = 27 // RFC3339 with offset plus padding
	minLabelWidth   = 8
	maxLabelWidth   = 30
)

// terminalWidth returns the width override, the detected terminal width, or 80.
func terminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		// Conservative default for narrow terminals and CI
		return 80
	}
	return detectedWidth
}

// GetMaxTableLabelWidth calculates the maximum width of a sensor label in a
// report table with the given number of sensor columns.
func GetMaxTableLabelWidth(cfg *contract.Config, columns int) int {
	if columns < 1 {
		columns = 1
	}
	// Each column costs three characters of borders and padding
	available := (terminalWidth(cfg)-timeColumnWidth)/columns - 3
	return min(max(available, minLabelWidth), maxLabelWidth)
}
