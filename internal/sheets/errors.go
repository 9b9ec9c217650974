package sheets

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// AuthenticationError means no usable service-account credential was found,
// or the Sheets API rejected it.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err == nil {
		return "authentication failed: " + e.Reason
	}
	return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// DocumentNotFoundError means the configured spreadsheet id does not resolve.
type DocumentNotFoundError struct {
	SpreadsheetID string
	Err           error
}

func (e *DocumentNotFoundError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("spreadsheet %q not found", e.SpreadsheetID)
	}
	return fmt.Sprintf("spreadsheet %q not found: %v", e.SpreadsheetID, e.Err)
}

func (e *DocumentNotFoundError) Unwrap() error { return e.Err }

// TabCreationError means a missing tab could not be added or its header row
// could not be written.
type TabCreationError struct {
	Tab string
	Err error
}

func (e *TabCreationError) Error() string {
	return fmt.Sprintf("failed to create tab %q: %v", e.Tab, e.Err)
}

func (e *TabCreationError) Unwrap() error { return e.Err }

// SchemaMismatchError is returned in strict mode when an existing tab's
// header row differs from the expected schema.
type SchemaMismatchError struct {
	Tab  string
	Want []string
	Got  []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("tab %q header mismatch: want [%s], got [%s]",
		e.Tab, strings.Join(e.Want, ", "), strings.Join(e.Got, ", "))
}

// RemoteServiceError wraps any other failure from the Sheets API.
type RemoteServiceError struct {
	Op   string
	Code int
	Err  error
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("sheets %s failed: %v", e.Op, e.Err)
}

func (e *RemoteServiceError) Unwrap() error { return e.Err }

func remoteError(op string, err error) error {
	return &RemoteServiceError{Op: op, Code: statusCode(err), Err: err}
}

// openError classifies a failure to fetch the spreadsheet metadata.
func openError(spreadsheetID string, err error) error {
	switch statusCode(err) {
	case http.StatusNotFound:
		return &DocumentNotFoundError{SpreadsheetID: spreadsheetID, Err: err}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthenticationError{Reason: "spreadsheet access denied", Err: err}
	default:
		return remoteError("open", err)
	}
}

// statusCode returns the HTTP status carried by a googleapi error, or 0.
func statusCode(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
