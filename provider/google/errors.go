package google

import (
	"errors"

	ai "github.com/spetersoncode/strand"
	"google.golang.org/genai"
)

// wrapError maps a Google GenAI error onto the engine's error taxonomy.
// genai.APIError does not expose response headers, so no Retry-After delay
// is available for rate limits.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		// Not an API error, return as-is (likely network error, handled by heuristics)
		return err
	}

	code := apiErr.Code
	msg := err.Error()

	switch {
	case code == 429:
		return ai.NewRateLimitError(msg, code, 0, err)
	case code == 408 || code == 504:
		return ai.NewTimeoutError(msg, err)
	case code >= 500 && code < 600:
		return ai.NewTransientNetworkError(msg, code, err)
	default:
		return ai.NewUnknownError(msg, code, err)
	}
}
