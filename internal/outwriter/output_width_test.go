package outwriter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/huangsam/airseries/internal/contract"
)

func TestGetMaxTableLabelWidth(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		columns int
		want    int
	}{
		{"one wide column is capped", 200, 1, maxLabelWidth},
		{"many columns hit the floor", 80, 20, minLabelWidth},
		{"even split", 127, 4, 22},
		{"zero columns treated as one", 50, 0, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &contract.Config{Width: tt.width}
			assert.Equal(t, tt.want, GetMaxTableLabelWidth(cfg, tt.columns))
		})
	}
}
