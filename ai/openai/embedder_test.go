package openai

import (
	"errors"
	"net"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stratumkb/stratum/core"
)

func TestClassifyProviderErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "connection refused",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
			want: core.ErrProviderUnavailable,
		},
		{
			name: "dns failure",
			err:  &net.DNSError{Err: "no such host", Name: "embeddings.invalid"},
			want: core.ErrProviderUnavailable,
		},
		{
			name: "wrapped transport error",
			err:  os.NewSyscallError("read", &net.OpError{Op: "read", Net: "tcp", Err: errors.New("reset")}),
			want: core.ErrProviderUnavailable,
		},
		{
			name: "http 429",
			err:  errors.New("API returned unexpected status code: 429"),
			want: core.ErrRateLimited,
		},
		{
			name: "rate limit message",
			err:  errors.New("Rate limit exceeded, retry later"),
			want: core.ErrRateLimited,
		},
		{
			name: "anything else",
			err:  errors.New("model not found"),
			want: core.ErrEmbeddingFailure,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, classifyProviderErr(tc.err), tc.want)
		})
	}
}
