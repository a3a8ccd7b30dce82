package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNetwork indicates a transport-level failure. Safe to retry by
	// re-issuing the same request.
	ErrNetwork = errors.New("network error")

	// ErrUnauthorized indicates the session token was rejected. Never
	// retried; callers must force sign-out.
	ErrUnauthorized = errors.New("session invalid")

	// ErrNotStarted indicates the driver has no tax period for the
	// requested year yet. Rendered as a distinct screen, not a failure.
	ErrNotStarted = errors.New("tax period not started")

	// ErrEmptyFile indicates an upload was attempted with no file content.
	// Detected client-side and never sent to the server.
	ErrEmptyFile = errors.New("file is empty")
)

// ServerError is a non-2xx response with whatever message the backend
// attached. Detail is already extracted and human-readable.
type ServerError struct {
	Status int
	Detail string
}

func (e *ServerError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return e.Detail
}

// detailPayload covers the backend's structured error shape. Detail can
// be a plain string, a list of {msg} objects, or an arbitrary object.
type detailPayload struct {
	Detail json.RawMessage `json:"detail"`
}

// extractDetail normalizes an error response body into a display string:
// a structured `detail` field when present, the raw text otherwise.
func extractDetail(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return ""
	}

	var payload detailPayload
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return text
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	return string(payload.Detail)
}
