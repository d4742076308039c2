package strand

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// statusCoder is implemented by SDK errors that carry an HTTP status code.
type statusCoder interface {
	StatusCode() int
}

// KindOf classifies an error into an ErrorKind. Errors carrying an explicit
// classification (ProviderError, ValidationError, context deadlines) are
// mapped directly; anything else falls back to heuristic detection of rate
// limits, server errors, timeouts, connection resets, and DNS failures.
// A nil error has no kind and returns the empty string.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindValidationFailed
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	// Errors exposing a status code method, e.g. custom transport wrappers.
	var sc statusCoder
	if errors.As(err, &sc) {
		if kind := kindForStatusCode(sc.StatusCode()); kind != KindUnknown {
			return kind
		}
	}

	// Google API errors embed the code in the message, not a StatusCode method.
	if code := googleAPIErrorCode(err); code > 0 {
		if kind := kindForStatusCode(code); kind != KindUnknown {
			return kind
		}
	}

	if kind, ok := networkErrorKind(err); ok {
		return kind
	}

	return KindUnknown
}

// Retryable reports whether an error may be retried, based on its kind.
func Retryable(err error) bool {
	return KindOf(err).Retryable()
}

// StatusCodeOf returns the HTTP status code from a classified error, or 0.
func StatusCodeOf(err error) int {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}

// RetryAfterOf returns the server-suggested retry delay from a classified
// error, or 0.
func RetryAfterOf(err error) time.Duration {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.RetryAfter
	}
	return 0
}

// kindForStatusCode maps an HTTP status code onto the taxonomy.
func kindForStatusCode(code int) ErrorKind {
	switch {
	case code == 429:
		return KindRateLimited
	case code == 408 || code == 504:
		return KindTimeout
	case code >= 500 && code < 600:
		return KindTransientNetwork
	}
	return KindUnknown
}

// googleAPIErrorCode extracts the status code from a Google API error
// message of the form "googleapi: Error 429:".
func googleAPIErrorCode(err error) int {
	msg := err.Error()
	if !strings.Contains(msg, "googleapi:") {
		return 0
	}
	for _, code := range []int{429, 500, 502, 503, 504} {
		if strings.Contains(msg, "Error "+strconv.Itoa(code)) {
			return code
		}
	}
	return 0
}

// networkErrorKind detects network-level failures that carry no explicit
// classification.
func networkErrorKind(err error) (ErrorKind, bool) {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout, true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return KindTimeout, true
		}
		if urlErr.Err != nil {
			if kind, ok := networkErrorKind(urlErr.Err); ok {
				return kind, true
			}
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindTransientNetwork, true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ETIMEDOUT:
			return KindTransientNetwork, true
		}
	}

	// Message-pattern fallback for errors that wrap nothing useful.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "too many requests"):
		return KindRateLimited, true
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return KindTimeout, true
	case strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "temporary failure"),
		strings.Contains(msg, "service unavailable"),
		strings.Contains(msg, "server error"),
		strings.Contains(msg, "bad gateway"),
		strings.Contains(msg, "gateway timeout"):
		return KindTransientNetwork, true
	}

	return KindUnknown, false
}
