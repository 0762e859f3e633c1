package srvcerror

import "net/http"

// Error is returned by handlers and services when the failure has a message
// that is safe to show to the caller.
type Error struct {
	errorCode  string
	msgToUser  string // public
	dbgInfoErr error  // private, for debugging

	httpStatus int
}

func (e *Error) Error() string {
	return e.msgToUser
}

func (e *Error) ErrorCode() string {
	return e.errorCode
}

func (e *Error) DebugInfo() error {
	return e.dbgInfoErr
}

func (e *Error) Unwrap() error {
	return e.dbgInfoErr
}

func (e *Error) SetDebug(err error) *Error {
	e.dbgInfoErr = err
	return e
}

func (e *Error) HttpStatusCode() int {
	if e.httpStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.httpStatus
}

func (e *Error) SetHttpStatusCode(code int) *Error {
	e.httpStatus = code
	return e
}

func New(errorCode string, msgToUser string) *Error {
	return &Error{
		errorCode: errorCode,
		msgToUser: msgToUser,
	}
}

const (
	ErrCodeInternalServerError = "internal_server_error"
	ErrCodeBadRequest          = "bad_request"
	ErrCodeUnauthorized        = "unauthorized"
	ErrCodeNotFound            = "not_found"
	ErrCodeEmailTaken          = "email_taken"
	ErrCodeInvalidExport       = "invalid_export"
	ErrCodeMissingFields       = "missing_fields"
	ErrCodeUploadTooLarge      = "upload_too_large"
	ErrCodeUnsupportedMedia    = "unsupported_media_type"
	ErrCodeInvalidResetToken   = "invalid_reset_token"
)

func ErrInternalSE() *Error {
	return New(ErrCodeInternalServerError, "internal server error").
		SetHttpStatusCode(http.StatusInternalServerError)
}

func ErrBadRequest(msg string) *Error {
	return New(ErrCodeBadRequest, msg).SetHttpStatusCode(http.StatusBadRequest)
}

func ErrUnauthorized(msg string) *Error {
	return New(ErrCodeUnauthorized, msg).SetHttpStatusCode(http.StatusUnauthorized)
}

// ErrNotFound is also used for resources owned by another user.
func ErrNotFound(what string) *Error {
	return New(ErrCodeNotFound, what+" not found").SetHttpStatusCode(http.StatusNotFound)
}
