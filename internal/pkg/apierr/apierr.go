package apierr

import "fmt"

// Error is a client-visible failure with a stable machine-readable code.
// Status picks the HTTP mapping; the taxonomy is:
//
//	PRE_*  precondition failures (no mutation attempted)
//	RUN_*  runtime failures of an otherwise valid operation
//	POST_* output-contract failures (internal defects)
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Newf(status int, code, format string, args ...interface{}) *Error {
	return &Error{Status: status, Code: code, Err: fmt.Errorf(format, args...)}
}
