package contract

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoteError(t *testing.T) {
	cause := errors.New("connection refused")

	t.Run("without status", func(t *testing.T) {
		err := &RemoteError{SensorID: 5, Err: cause}
		assert.Equal(t, "sensor 5: remote request failed: connection refused", err.Error())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("with status", func(t *testing.T) {
		err := &RemoteError{SensorID: 7, StatusCode: 429, Err: cause}
		assert.Contains(t, err.Error(), "remote returned 429")
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("pass failed: %w", &RemoteError{SensorID: 9, Err: cause})
		var remote *RemoteError
		assert.True(t, errors.As(wrapped, &remote))
		assert.Equal(t, 9, remote.SensorID)
	})
}
