package archive

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"
)

func TestTransientUploadError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"broken pipe errno", syscall.EPIPE, true},
		{"wrapped broken pipe", fmt.Errorf("write chunk: %w", syscall.EPIPE), true},
		{"connection reset errno", syscall.ECONNRESET, true},
		{"connection aborted errno", syscall.ECONNABORTED, true},
		{"eof", io.EOF, true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"net op error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("host unreachable")}, true},
		{"broken pipe text", errors.New(`Post "https://www.googleapis.com/upload": broken pipe`), true},
		{"connection text", errors.New("read tcp: connection reset by peer"), true},
		{"timeout text", errors.New("request Timeout exceeded"), true},
		{"permission denied", errors.New("googleapi: Error 403: insufficient permissions"), false},
		{"bad request", errors.New("googleapi: Error 400: invalid folder id"), false},
		{"plain failure", errors.New("something else went wrong"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := transientUploadError(tc.err); got != tc.want {
				t.Errorf("transientUploadError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
