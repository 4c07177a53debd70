package errors

import (
	"errors"
	"net"
	"syscall"

	utilnet "k8s.io/apimachinery/pkg/util/net"
)

// IsNetworkError checks if the error is a network-level error (connection issues, DNS, etc.)
//
// Detected errors include:
//   - Connection refused (ECONNREFUSED)
//   - Connection reset (ECONNRESET)
//   - Network unreachable (ENETUNREACH)
//   - No route to host (EHOSTUNREACH)
//   - EOF and connection closure errors
//   - Timeout errors (net.Error.Timeout())
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	if utilnet.IsConnectionRefused(err) || utilnet.IsConnectionReset(err) {
		return true
	}
	if utilnet.IsTimeout(err) || utilnet.IsProbableEOF(err) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ETIMEDOUT, syscall.ENETUNREACH, syscall.EHOSTUNREACH, syscall.ECONNABORTED, syscall.EPIPE:
			return true
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return IsNetworkError(opErr.Err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}
