package anthropic

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	ai "github.com/spetersoncode/strand"
)

// wrapError maps an Anthropic SDK error onto the engine's error taxonomy.
// It extracts status codes and Retry-After headers for retry handling.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		// Not an API error, return as-is (likely network error, handled by heuristics)
		return err
	}

	code := apiErr.StatusCode
	msg := err.Error()

	switch {
	case code == 429:
		return ai.NewRateLimitError(msg, code, parseRetryAfter(apiErr.Response), err)
	case code == 408 || code == 504:
		return ai.NewTimeoutError(msg, err)
	case code >= 500 && code < 600:
		return ai.NewTransientNetworkError(msg, code, err)
	default:
		return ai.NewUnknownError(msg, code, err)
	}
}

// parseRetryAfter extracts the Retry-After duration from an HTTP response.
// Returns 0 if the header is not present or cannot be parsed.
func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}

	// Try parsing as seconds (most common)
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}

	// Try parsing as HTTP-date (RFC 7231)
	if t, err := http.ParseTime(header); err == nil {
		delay := time.Until(t)
		if delay > 0 {
			return delay
		}
	}

	return 0
}
