package archive

import (
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
)

// transientUploadError reports whether an upload failure is worth
// retrying. Connection-level faults tend to clear on their own; anything
// else (quota, permissions, malformed request) will not, so retrying only
// delays the local fallback.
func transientUploadError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNABORTED) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// Wrapped SDK errors often surface only as text.
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"broken pipe", "connection", "timeout"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
