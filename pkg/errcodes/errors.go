package errcodes

import (
	"fmt"
	"net/http"
)

type Error struct {
	HTTPCode int
	Message  string
	Code     string
}

func (err *Error) Error() string {
	return err.Message
}

func (err *Error) As(target interface{}) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	te.HTTPCode = err.HTTPCode
	te.Message = err.Message
	te.Code = err.Code
	return true
}

func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.HTTPCode == err.HTTPCode &&
		te.Message == err.Message &&
		te.Code == err.Code
}

// Forbidden returns a 403 error with a message indicating the action is
// forbidden.
func Forbidden(action string) error {
	return &Error{
		http.StatusForbidden,
		action + " is not allowed.",
		"forbidden",
	}
}

// NotFound returns a 404 error with a message indicating the given resource.
func NotFound(resource string) error {
	return &Error{
		http.StatusNotFound,
		resource + " not found.",
		"not_found",
	}
}

func UnsupportedMediaType() error {
	return &Error{
		http.StatusUnsupportedMediaType,
		"Unsupported Media Type",
		"unsupported_media_type",
	}
}

func UnknownParameter(param string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		fmt.Sprintf("Unknown Parameter %q", param),
		"unknown_parameter",
	}
}

func ValidationTypeError(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		"validation_type_error",
	}
}

func ValidationError(msg string) error {
	return &Error{
		http.StatusUnprocessableEntity,
		msg,
		"validation_error",
	}
}

func MalformedPayload() error {
	return &Error{
		http.StatusBadRequest,
		"Malformed Payload",
		"malformed_payload",
	}
}

func EmptyRequestBody() error {
	return &Error{
		http.StatusBadRequest,
		"Request body can't be empty.",
		"empty_request_body",
	}
}

// BadRequest returns a 400 error carrying the given message verbatim.
func BadRequest(msg string) error {
	return &Error{
		http.StatusBadRequest,
		msg,
		"bad_request",
	}
}

// Conflict returns a 400 error for input that collides with a reserved
// path sigil (I2).
func Conflict(msg string) error {
	return &Error{
		http.StatusBadRequest,
		msg,
		"conflict",
	}
}

// Unauthorized returns a 401 error for a missing, expired, or invalid token.
func Unauthorized(msg string) error {
	return &Error{
		http.StatusUnauthorized,
		msg,
		"unauthorized",
	}
}

// Busy returns a 503 error. RetryAfterSeconds, when non-zero, is surfaced by
// the error handler as a Retry-After header.
func Busy(msg string, retryAfterSeconds int) error {
	return &BusyError{
		Error:             Error{http.StatusServiceUnavailable, msg, "busy"},
		RetryAfterSeconds: retryAfterSeconds,
	}
}

// RateLimited returns a 429 error for requests rejected by the token-bucket
// limiter.
func RateLimited() error {
	return &Error{
		http.StatusTooManyRequests,
		"Too Many Requests",
		"rate_limited",
	}
}

// Upstream returns a 500/502-class error for a decoder or child-process
// failure that escaped local recovery.
func Upstream(msg string) error {
	return &Error{
		http.StatusBadGateway,
		msg,
		"upstream_error",
	}
}

// RangeNotSatisfiable returns a 416 error for an inverted or out-of-bounds
// byte range.
func RangeNotSatisfiable() error {
	return &Error{
		http.StatusRequestedRangeNotSatisfiable,
		"Range Not Satisfiable",
		"range_not_satisfiable",
	}
}

// BusyError carries an advisory retry delay alongside the standard error
// shape so the HTTP handler can set Retry-After.
type BusyError struct {
	Error
	RetryAfterSeconds int
}
