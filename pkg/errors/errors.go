package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies where a failure originated
type Kind int

// Failure kinds surfaced by the client core
const (
	KindUnknown Kind = iota
	KindValidation
	KindHTTP
	KindNetwork
	KindDecode
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindHTTP:
		return "http_error"
	case KindNetwork:
		return "network_error"
	case KindDecode:
		return "decode_error"
	case KindStorage:
		return "storage_error"
	default:
		return "unknown_error"
	}
}

// AppError represents an application error
type AppError struct {
	Kind    Kind   `json:"kind"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Validation is raised before any network call is made.
func Validation(message string, err error) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Message: message,
		Err:     err,
	}
}

// HTTP wraps a non-2xx response. An empty message falls back to a generic one.
func HTTP(status int, message string) *AppError {
	if message == "" {
		message = fmt.Sprintf("request failed: %d %s", status, http.StatusText(status))
	}
	return &AppError{
		Kind:    KindHTTP,
		Status:  status,
		Message: message,
	}
}

func Network(err error) *AppError {
	return &AppError{
		Kind:    KindNetwork,
		Message: "network error, please try again",
		Err:     err,
	}
}

func Decode(message string, err error) *AppError {
	if message == "" {
		message = "unexpected response from server"
	}
	return &AppError{
		Kind:    KindDecode,
		Message: message,
		Err:     err,
	}
}

func Storage(message string, err error) *AppError {
	if message == "" {
		message = "failed to access credential storage"
	}
	return &AppError{
		Kind:    KindStorage,
		Message: message,
		Err:     err,
	}
}

// KindOf returns the kind of the first AppError in err's chain.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Status
	}
	return 0
}

// Message returns the text a user should see for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
