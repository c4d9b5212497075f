package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	Status     int
	StatusText string
	// Detail is the server's "detail" message, or the status text when the
	// body carried none.
	Detail string
}

func (e *HTTPError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Detail)
}

// StreamError carries the message of a backend "error" event.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	if e.Message == "" {
		return "stream failed"
	}
	return e.Message
}

// IsNotFound reports whether err is an HTTPError with status 404.
func IsNotFound(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Status == http.StatusNotFound
}

func newHTTPError(resp *http.Response, body []byte) *HTTPError {
	statusText := http.StatusText(resp.StatusCode)
	detail := parseDetail(body)
	if detail == "" {
		detail = statusText
	}
	return &HTTPError{
		Status:     resp.StatusCode,
		StatusText: statusText,
		Detail:     detail,
	}
}

// parseDetail extracts a FastAPI-style "detail" field. It may be a string or
// a list of validation errors each carrying "msg".
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		var msgs []string
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
