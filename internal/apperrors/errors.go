// Package apperrors defines the error taxonomy shared by the upload pipeline,
// the analysis trigger and the HTTP layer.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies the kind of failure independently of its message.
type ErrorCode string

const (
	ErrCodeArchiveRead       ErrorCode = "ARCHIVE_READ_ERROR"
	ErrCodeNetwork           ErrorCode = "NETWORK_ERROR"
	ErrCodeTimeout           ErrorCode = "UPLOAD_TIMEOUT"
	ErrCodeUploadRejected    ErrorCode = "UPLOAD_REJECTED"
	ErrCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	ErrCodeAnalysisFailure   ErrorCode = "ANALYSIS_FAILURE"
	ErrCodeBackendRequest    ErrorCode = "BACKEND_REQUEST_FAILED"
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodeBatchInFlight     ErrorCode = "BATCH_IN_FLIGHT"
	ErrCodeSessionNotFound   ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeUnsupportedFile   ErrorCode = "UNSUPPORTED_FILE"
)

// AppError is a structured application error. Status carries the HTTP status the
// dashboard API answers with, or the upstream status for UPLOAD_REJECTED.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Status  int       `json:"-"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewArchiveReadError reports an archive whose structure could not be read.
func NewArchiveReadError(archiveName string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeArchiveRead,
		Message: fmt.Sprintf("Failed to extract ZIP file %s", archiveName),
		Details: errString(err),
		Status:  http.StatusUnprocessableEntity,
		Err:     err,
	}
}

// NewNetworkError reports a transport level failure.
func NewNetworkError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeNetwork,
		Message: "Network error during upload",
		Details: errString(err),
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

// NewTimeoutError reports an upload that did not complete within its ceiling.
func NewTimeoutError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeTimeout,
		Message: "Upload timeout",
		Details: errString(err),
		Status:  http.StatusGatewayTimeout,
		Err:     err,
	}
}

// NewUploadRejectedError reports a non-success status from the upload endpoint.
func NewUploadRejectedError(status int, message string) *AppError {
	return &AppError{
		Code:    ErrCodeUploadRejected,
		Message: message,
		Status:  status,
	}
}

// NewMalformedResponseError reports a success status whose body is not valid JSON.
func NewMalformedResponseError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeMalformedResponse,
		Message: "Invalid JSON response",
		Details: errString(err),
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

// NewAnalysisFailure reports any failure while requesting a ranking.
func NewAnalysisFailure(err error) *AppError {
	return &AppError{
		Code:    ErrCodeAnalysisFailure,
		Message: "Resume processing failed",
		Details: errString(err),
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

// NewBackendRequestError reports a failed call to one of the auxiliary backend
// endpoints. Upstream 404s are passed through, everything else is a bad gateway.
func NewBackendRequestError(status int, message string, err error) *AppError {
	if status != http.StatusNotFound {
		status = http.StatusBadGateway
	}
	return &AppError{
		Code:    ErrCodeBackendRequest,
		Message: message,
		Details: errString(err),
		Status:  status,
		Err:     err,
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

func NewBatchInFlightError(kind string) *AppError {
	return &AppError{
		Code:    ErrCodeBatchInFlight,
		Message: fmt.Sprintf("A %s is already in progress for this session", kind),
		Status:  http.StatusConflict,
	}
}

func NewSessionNotFoundError() *AppError {
	return &AppError{
		Code:    ErrCodeSessionNotFound,
		Message: "Session not found. Please log in again.",
		Status:  http.StatusUnauthorized,
	}
}

func NewUnsupportedFileError(filename string) *AppError {
	return &AppError{
		Code:    ErrCodeUnsupportedFile,
		Message: "Unsupported file type",
		Details: fmt.Sprintf("filename: %s", filename),
		Status:  http.StatusUnsupportedMediaType,
	}
}

// CodeOf returns the code of the first AppError in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// StatusOf maps err to the HTTP status the dashboard answers with.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Code == ErrCodeUploadRejected {
			return http.StatusBadGateway
		}
		if appErr.Status != 0 {
			return appErr.Status
		}
	}
	return http.StatusInternalServerError
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
