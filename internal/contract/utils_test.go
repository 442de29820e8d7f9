package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlainLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected string
	}{
		{"zero", 0, GoodValue},
		{"top of good", 50, GoodValue},
		{"bottom of moderate", 51, ModerateValue},
		{"top of moderate", 100, ModerateValue},
		{"sensitive groups", 101, SensitiveValue},
		{"unhealthy", 151, UnhealthyValue},
		{"very unhealthy", 201, VeryUnhealthyValue},
		{"hazardous", 301, HazardousValue},
		{"beyond the scale", 612, HazardousValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetPlainLabel(tt.input))
		})
	}
}

func TestGetColorCell(t *testing.T) {
	for _, aqi := range []int{10, 75, 120, 170, 250, 400} {
		assert.Contains(t, GetColorCell(aqi, "42"), "42")
	}
}

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path returns stdout", func(t *testing.T) {
		file, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, file)
	})

	t.Run("valid path creates file", func(t *testing.T) {
		tempFile := filepath.Join(t.TempDir(), "report.csv")

		file, err := SelectOutputFile(tempFile)
		require.NoError(t, err)
		assert.NotNil(t, file)
		_ = file.Close()

		_, err = os.Stat(tempFile)
		assert.NoError(t, err)
	})
}

func TestTruncateLabel(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		maxWidth int
		expected string
	}{
		{"short label untouched", "Porch (5)", 20, "Porch (5)"},
		{"long label truncated", "Backyard Station (123456)", 10, "Backyar..."},
		{"tiny width ignored", "Backyard", 3, "Backyard"},
		{"multibyte runes", "Café Rooftop (9)", 8, "Café ..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TruncateLabel(tt.label, tt.maxWidth))
		})
	}
}

func TestParseBoolString(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
		wantErr  bool
	}{
		{"yes", true, false},
		{"TRUE", true, false},
		{"1", true, false},
		{"no", false, false},
		{"False", false, false},
		{"0", false, false},
		{"maybe", false, true},
		{"", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBoolString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
