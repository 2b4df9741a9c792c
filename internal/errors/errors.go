package errors

import "fmt"

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code, message string, cause ...error) *AppError {
	var c error
	if len(cause) > 0 {
		c = cause[0]
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   c,
	}
}

var (
	ErrConfigNotFound = &AppError{Code: "CONFIG_001", Message: "configuration not found"}
	ErrConfigInvalid  = &AppError{Code: "CONFIG_002", Message: "invalid configuration"}

	ErrInvalidTimeFormat = &AppError{Code: "TIME_001", Message: "invalid HH:MM time"}

	ErrProviderNotConfigured   = &AppError{Code: "LLM_001", Message: "no analysis provider configured"}
	ErrCollaboratorUnavailable = &AppError{Code: "LLM_002", Message: "analysis provider unavailable"}
	ErrRateLimited             = &AppError{Code: "LLM_003", Message: "analysis rate limit exceeded"}

	ErrClassificationContract = &AppError{Code: "TRIAGE_001", Message: "analysis response violates classification contract"}

	ErrRecordNotFound = &AppError{Code: "STORE_001", Message: "record not found"}
	ErrStoreFailed    = &AppError{Code: "STORE_002", Message: "storage operation failed"}

	ErrUnauthorized = &AppError{Code: "AUTH_001", Message: "unauthorized"}
	ErrForbidden    = &AppError{Code: "AUTH_002", Message: "forbidden"}

	ErrNotFound   = &AppError{Code: "GEN_001", Message: "resource not found"}
	ErrBadRequest = &AppError{Code: "GEN_002", Message: "bad request"}
	ErrInternal   = &AppError{Code: "GEN_003", Message: "internal error"}
)

func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}
