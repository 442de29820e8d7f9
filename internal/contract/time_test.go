package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    time.Duration
		expectError bool
	}{
		{name: "go format seconds", input: "10s", expected: 10 * time.Second},
		{name: "go format compound", input: "1m30s", expected: 90 * time.Second},
		{name: "go format zero", input: "0s", expected: 0},
		{name: "singular second", input: "1 second", expected: time.Second},
		{name: "plural seconds mixed case", input: "10 SeConDs", expected: 10 * time.Second},
		{name: "hours", input: "24 hours", expected: 24 * time.Hour},
		{name: "day", input: "1 day", expected: 24 * time.Hour},
		{name: "minutes with padding", input: "  5 minutes ", expected: 5 * time.Minute},
		{name: "negative go format", input: "-1s", expectError: true},
		{name: "unsupported unit", input: "2 weeks", expectError: true},
		{name: "words", input: "ten seconds", expectError: true},
		{name: "empty", input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
