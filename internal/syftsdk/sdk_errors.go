package syftsdk

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/imroc/req/v3"
)

// SyftServerError is a non-2xx response from the server carrying a machine
// readable code.
type SyftServerError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *SyftServerError) Error() string {
	return fmt.Sprintf("server error: status=%d code=%s message=%s", e.Status, e.Code, e.Message)
}

// SyftNotFound reports a missing path or datasite (404).
type SyftNotFound struct{ SyftServerError }

// SyftPermissionDenied reports an authorization failure (401/403).
type SyftPermissionDenied struct{ SyftServerError }

// SyftConflict reports a state conflict, e.g. an apply-diff hash mismatch or
// create on an existing path (409).
type SyftConflict struct{ SyftServerError }

func IsNotFound(err error) bool {
	var e *SyftNotFound
	return errors.As(err, &e)
}

func IsPermissionDenied(err error) bool {
	var e *SyftPermissionDenied
	return errors.As(err, &e)
}

func IsConflict(err error) bool {
	var e *SyftConflict
	return errors.As(err, &e)
}

// handleAPIError converts a transport error or error-state response into a
// typed error, or returns nil for a success response.
func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	if requestErr != nil {
		return fmt.Errorf("%s: http request: %w", operation, requestErr)
	}

	if !resp.IsErrorState() {
		return nil
	}

	base := SyftServerError{
		Status:  resp.StatusCode,
		Code:    "E_UNKNOWN_ERR",
		Message: resp.String(),
	}
	if apiErr, ok := resp.ErrorResult().(*SyftServerError); ok && apiErr != nil {
		base.Code = apiErr.Code
		base.Message = apiErr.Message
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", operation, &SyftNotFound{base})
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w", operation, &SyftPermissionDenied{base})
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", operation, &SyftConflict{base})
	default:
		return fmt.Errorf("%s: %w", operation, &base)
	}
}
