package client

import (
	"errors"
	"strings"
)

// Kind identifies which stage of a call failed.
type Kind string

const (
	KindValidation    Kind = "ValidationError"
	KindHTTP          Kind = "HttpError"
	KindInvalidFormat Kind = "InvalidResponseFormat"
	KindNetwork       Kind = "NetworkError"
	// KindUnexpected marks errors that did not come from the client.
	KindUnexpected Kind = "UnexpectedError"
)

const unexpectedErrorMsg = "Unexpected error, please try again"

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrValidation      = errors.New("validation error")
	ErrHTTP            = errors.New("http error")
	ErrInvalidResponse = errors.New("invalid response format")
	ErrNetwork         = errors.New("network error")
	ErrUnexpected      = errors.New("unexpected error")
)

// Error is the single error shape returned by every Client operation.
type Error struct {
	Kind    Kind
	Message string
	// Status is the HTTP status code for KindHTTP and KindInvalidFormat.
	Status int
	Err    error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrHTTP:
		return e.Kind == KindHTTP
	case ErrInvalidResponse:
		return e.Kind == KindInvalidFormat
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrUnexpected:
		return e.Kind == KindUnexpected
	}
	return false
}

// Severity returns the presentation class of the error message.
func (e *Error) Severity() Severity {
	return Classify(e.Message)
}

func validationError(err error) *Error {
	return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
}

func invalidFormat(status int, msg string) *Error {
	return &Error{Kind: KindInvalidFormat, Message: "Invalid response format: " + msg, Status: status}
}

// Normalize converts any error into an *Error. Errors that did not originate
// from the client get a generic message.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr
	}
	return &Error{Kind: KindUnexpected, Message: unexpectedErrorMsg, Err: err}
}

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

var (
	warningKeywords = []string{"network", "timeout", "fetch", "connection", "unavailable", "try again"}
	infoKeywords    = []string{"not found", "no changes", "already"}
)

// Classify maps a message to a severity by keyword. It only drives how a
// message is shown.
func Classify(message string) Severity {
	m := strings.ToLower(message)
	for _, k := range warningKeywords {
		if strings.Contains(m, k) {
			return SeverityWarning
		}
	}
	for _, k := range infoKeywords {
		if strings.Contains(m, k) {
			return SeverityInfo
		}
	}
	return SeverityError
}
