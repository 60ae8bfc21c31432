// Package goerror carries the error taxonomy of the service: sentinel causes
// raised by stores and libraries, and the *Error type that decides what a
// client is allowed to see.
package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound indicates a missing user or session.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates a duplicate key, such as a reused session token.
	ErrConflict = errors.New("resource conflict")

	// ErrInvalidCredential indicates a password that does not match the stored hash.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrInvalidSecret indicates an OTP secret that is not valid base32.
	ErrInvalidSecret = errors.New("invalid otp secret")

	// ErrMissingSecret indicates a user record without an OTP secret.
	ErrMissingSecret = errors.New("missing otp secret")

	// ErrUnavailable indicates the backing storage could not serve the request.
	ErrUnavailable = errors.New("storage unavailable")
)

// MsgInvalidLogin is the only message shown to clients when a login attempt fails.
const MsgInvalidLogin = "Invalid email or password"

// Code classifies an Error and fixes its HTTP status.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeUnauthorized
	CodeForbidden
)

var codeStatus = map[Code]int{
	CodeInternal:      http.StatusInternalServerError,
	CodeInvalidFormat: http.StatusBadRequest,
	CodeInvalidInput:  http.StatusUnprocessableEntity,
	CodeUnauthorized:  http.StatusUnauthorized,
	CodeForbidden:     http.StatusForbidden,
}

var codeName = map[Code]string{
	CodeInternal:      "INTERNAL",
	CodeInvalidFormat: "INVALID_FORMAT",
	CodeInvalidInput:  "INVALID_INPUT",
	CodeUnauthorized:  "UNAUTHORIZED",
	CodeForbidden:     "FORBIDDEN",
}

func (c Code) String() string {
	if name, ok := codeName[c]; ok {
		return name
	}
	return codeName[CodeInternal]
}

// Error pairs an internal cause with the message a client may see. The cause
// is for logs and errors.Is; it never reaches a response body.
type Error struct {
	err    error
	msg    string
	code   Code
	fields map[string]string
}

func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	default:
		return "unknown error"
	}
}

// String is the verbose form used in logs.
func (e *Error) String() string {
	return fmt.Sprintf("code=%s msg=%q cause=%v", e.code, e.msg, e.err)
}

func (e *Error) Msg() string               { return e.msg }
func (e *Error) Code() Code                { return e.code }
func (e *Error) Fields() map[string]string { return e.fields }
func (e *Error) Unwrap() error             { return e.err }

func (e *Error) StatusCode() int {
	if status, ok := codeStatus[e.code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NewServer hides err behind a generic 500 message.
func NewServer(err error) error {
	return &Error{err: err, msg: "Internal server error", code: CodeInternal}
}

// NewBusiness reports a rule violation with a client-facing message.
func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, code: code}
}

// NewInvalidInput wraps a validator error, or builds field errors from
// key/value pairs when err is nil. An odd kv list is treated as a malformed
// body.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return &Error{err: err, msg: "Validation error", code: CodeInvalidInput}
	}
	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}

	fields := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return &Error{msg: "Validation error", code: CodeInvalidInput, fields: fields}
}

// NewUnauthorized collapses every login failure into MsgInvalidLogin. The
// cause stays reachable through errors.Is for logging.
func NewUnauthorized(err error) error {
	return &Error{err: err, msg: MsgInvalidLogin, code: CodeUnauthorized}
}

// NewInvalidFormat reports a body that could not be decoded.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return &Error{msg: msg, code: CodeInvalidFormat}
}
