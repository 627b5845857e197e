package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransport covers every failure to get a usable answer from the API:
	// network errors, timeouts and undecodable bodies.
	ErrTransport = errors.New("dispatch api unavailable")
	// ErrMalformedData marks bad input detected before any call is made.
	ErrMalformedData = errors.New("malformed data")
)

// APIError is a non-2xx answer of the dispatch API.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("dispatch api: status %d", e.Status)
	}
	return fmt.Sprintf("dispatch api: status %d: %s", e.Status, e.Detail)
}

// parseDetail extracts the message of an error body. detail is either a
// string or {"message": ..., "errors": [...]}.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}

	var structured struct {
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
	}
	if err := json.Unmarshal(envelope.Detail, &structured); err == nil && structured.Message != "" {
		if len(structured.Errors) > 0 {
			return structured.Message + ": " + strings.Join(structured.Errors, ", ")
		}
		return structured.Message
	}

	// FastAPI validation errors: [{"loc": [...], "msg": "..."}]
	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &list); err == nil && len(list) > 0 {
		msgs := make([]string, 0, len(list))
		for _, item := range list {
			msgs = append(msgs, item.Msg)
		}
		return strings.Join(msgs, ", ")
	}
	return string(envelope.Detail)
}
