package contract

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Air quality category labels.
const (
	GoodValue          = "Good"
	ModerateValue      = "Moderate"
	SensitiveValue     = "Unhealthy for Sensitive Groups"
	UnhealthyValue     = "Unhealthy"
	VeryUnhealthyValue = "Very Unhealthy"
	HazardousValue     = "Hazardous"
)

// Color variables for console output.
var (
	GoodColor          = color.New(color.FgGreen)
	ModerateColor      = color.New(color.FgYellow)
	SensitiveColor     = color.New(color.FgHiYellow, color.Bold)
	UnhealthyColor     = color.New(color.FgRed)
	VeryUnhealthyColor = color.New(color.FgMagenta, color.Bold)
	HazardousColor     = color.New(color.FgHiRed, color.Bold) // maroon is not available on most terminals
)

// GetPlainLabel returns the category label for an AQI value. This is the
// core logic used for CSV, JSON and table printing.
func GetPlainLabel(aqi int) string {
	switch {
	case aqi > 300:
		return HazardousValue
	case aqi > 200:
		return VeryUnhealthyValue
	case aqi > 150:
		return UnhealthyValue
	case aqi > 100:
		return SensitiveValue
	case aqi > 50:
		return ModerateValue
	default:
		return GoodValue
	}
}

// GetColorCell colors text according to the category of the given AQI value.
func GetColorCell(aqi int, text string) string {
	switch GetPlainLabel(aqi) {
	case HazardousValue:
		return HazardousColor.Sprint(text)
	case VeryUnhealthyValue:
		return VeryUnhealthyColor.Sprint(text)
	case UnhealthyValue:
		return UnhealthyColor.Sprint(text)
	case SensitiveValue:
		return SensitiveColor.Sprint(text)
	case ModerateValue:
		return ModerateColor.Sprint(text)
	default:
		return GoodColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// TruncateLabel truncates a column label to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the "..." and at least one character.
func TruncateLabel(label string, maxWidth int) string {
	runes := []rune(label)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return label
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
