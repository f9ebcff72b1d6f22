package jira

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrConnection wraps network and timeout failures. API-level failures
// (non-2xx responses) are reported as *APIError instead.
var ErrConnection = errors.New("jira: connection failed")

// ErrorCode classifies an API failure so callers can pattern-match on a
// structured code instead of sniffing vendor error text.
type ErrorCode string

const (
	CodeAuth             ErrorCode = "auth"              // 401/403
	CodeNotFound         ErrorCode = "not_found"         // 404
	CodeInvalidLead      ErrorCode = "invalid_lead"      // project creation: bad lead account
	CodeKeyConflict      ErrorCode = "key_conflict"      // project creation: key already in use
	CodePermissionDenied ErrorCode = "permission_denied" // project creation: missing admin permission
	CodeGeneric          ErrorCode = "generic"           // any other non-2xx
)

// APIError is a non-2xx response from the Jira REST API. It carries the
// HTTP status and raw body alongside the classified code.
type APIError struct {
	StatusCode int
	Body       string
	Code       ErrorCode
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jira API returned %d (%s): %s", e.StatusCode, e.Code, e.Body)
}

// IsAuth reports whether err is an authentication/authorization failure.
func IsAuth(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == CodeAuth
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == CodeNotFound
}

// CodeOf extracts the structured code from err, or CodeGeneric when err is
// not an *APIError.
func CodeOf(err error) ErrorCode {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return CodeGeneric
}

// newAPIError classifies a non-2xx response. The body inspection for
// project-creation failures lives here, at the client boundary, so the
// orchestrator only ever sees structured codes.
func newAPIError(status int, body string) *APIError {
	return &APIError{StatusCode: status, Body: body, Code: classify(status, body)}
}

func classify(status int, body string) ErrorCode {
	switch status {
	case http.StatusUnauthorized:
		return CodeAuth
	case http.StatusNotFound:
		return CodeNotFound
	}

	lower := strings.ToLower(body)
	switch {
	case strings.Contains(lower, "project lead") || strings.Contains(lower, "leadaccountid"):
		return CodeInvalidLead
	case strings.Contains(lower, "project key") && (strings.Contains(lower, "exists") || strings.Contains(lower, "uses this")):
		return CodeKeyConflict
	case strings.Contains(lower, "permission"):
		return CodePermissionDenied
	case status == http.StatusForbidden:
		return CodeAuth
	}
	return CodeGeneric
}
