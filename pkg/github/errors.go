package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// APIError represents a non-2xx response from the GitHub REST API.
type APIError struct {
	// StatusCode is the HTTP response status code.
	StatusCode int

	// StatusText is the reason phrase, e.g. "Not Found".
	StatusText string

	// Body is the raw response body.
	Body string

	// Message is the "message" field of a JSON error body, if any.
	Message string

	// DocumentationURL points to the relevant API documentation.
	DocumentationURL string
}

// Error renders "<status> <statusText>: <body>".
func (err *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", err.StatusCode, err.StatusText, err.Body)
}

func newAPIError(response *http.Response, body []byte) *APIError {
	apiError := &APIError{
		StatusCode: response.StatusCode,
		StatusText: statusText(response),
		Body:       string(body),
	}
	var wireError struct {
		Message          string `json:"message"`
		DocumentationURL string `json:"documentation_url"`
	}
	if json.Unmarshal(body, &wireError) == nil {
		apiError.Message = wireError.Message
		apiError.DocumentationURL = wireError.DocumentationURL
	}
	return apiError
}

// statusText extracts the reason phrase from response.Status ("404 Not Found"),
// falling back to the standard text for the code.
func statusText(response *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(response.Status, strconv.Itoa(response.StatusCode)))
	if text == "" {
		text = http.StatusText(response.StatusCode)
	}
	return text
}

// IsNotFound reports whether err is a GitHub API 404 Not Found response.
func IsNotFound(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == http.StatusNotFound
}

// IsConflict reports whether err is a GitHub API 409 Conflict response.
// GitHub answers 409 when cancelling a run that already completed.
func IsConflict(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == http.StatusConflict
}
