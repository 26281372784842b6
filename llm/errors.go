package llm

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/voxellab/greenlight/types"
)

// MapHTTPError converts an upstream HTTP error status into a classified
// *types.Error. Rate limits and 5xx/timeout responses are retryable;
// other 4xx responses are caller mistakes and are not.
func MapHTTPError(status int, msg, provider string) *types.Error {
	switch {
	case status == http.StatusTooManyRequests:
		return types.NewError(types.ErrRateLimited, msg).
			WithHTTPStatus(status).WithRetryable(true).WithProvider(provider)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return types.NewError(types.ErrUpstreamTimeout, msg).
			WithHTTPStatus(status).WithRetryable(true).WithProvider(provider)
	case status >= 500:
		return types.NewError(types.ErrTransport, msg).
			WithHTTPStatus(status).WithRetryable(true).WithProvider(provider)
	default:
		return types.NewError(types.ErrInvalidRequest, msg).
			WithHTTPStatus(status).WithProvider(provider)
	}
}

// ReadErrorMessage extracts a human-readable message from an error body.
// Understands the OpenAI-style {"error": {"message": ...}} envelope and
// falls back to the raw body.
func ReadErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return "no error detail"
	}

	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(data, &envelope) == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return string(data)
}
