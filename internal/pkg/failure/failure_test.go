package failure

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransientNilIsNil(t *testing.T) {
	assert.Nil(t, Transient(nil))
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("bad payload"), false},
		{"wrapped transient", Transient(errors.New("redis down")), true},
		{"transient inside fmt wrap", fmt.Errorf("transcribe chunk 3: %w", Transient(errors.New("asr down"))), true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), true},
		{"net op error", &net.OpError{Op: "dial", Err: errors.New("timeout")}, true},
		{"connection refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"connection reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"canceled is not retried", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestTransientUnwrapsToCause(t *testing.T) {
	cause := errors.New("asr unavailable")
	err := Transient(cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "asr unavailable")
}
