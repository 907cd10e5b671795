package transit

import (
	"errors"
	"fmt"
)

// Kind classifies a failed fetch
type Kind int

const (
	// KindInvalidRequest means the call could not be built from its parameters
	KindInvalidRequest Kind = iota + 1
	// KindTransport means the round trip failed or returned a non-200 status
	KindTransport
	// KindDecoding means the top-level envelope could not be parsed
	KindDecoding
	// KindDomain means the service answered but reported a logical error
	KindDomain
	// KindMissingCredential means no API key is configured
	KindMissingCredential
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindTransport:
		return "transport"
	case KindDecoding:
		return "decoding"
	case KindDomain:
		return "domain"
	case KindMissingCredential:
		return "missing_credential"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is
var (
	ErrInvalidRequest    = &Error{Kind: KindInvalidRequest}
	ErrTransport         = &Error{Kind: KindTransport}
	ErrDecoding          = &Error{Kind: KindDecoding}
	ErrDomain            = &Error{Kind: KindDomain}
	ErrMissingCredential = &Error{Kind: KindMissingCredential}
)

// Error is returned by every fetch in this package
type Error struct {
	Kind    Kind
	Op      string
	Code    string // service error code, domain errors only
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so errors.Is(err, ErrDomain) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of err, or 0 when err did not come from this package
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func invalidRequest(op, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidRequest, Op: op, Message: fmt.Sprintf(format, args...)}
}

func transportError(op string, err error) *Error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

func decodingError(op string, err error) *Error {
	return &Error{Kind: KindDecoding, Op: op, Message: "could not parse the response, the service may be temporarily unavailable", Err: err}
}

func domainError(op, code, message string) *Error {
	return &Error{Kind: KindDomain, Op: op, Code: code, Message: message}
}

func missingCredential(op, envVar string) *Error {
	return &Error{Kind: KindMissingCredential, Op: op, Message: envVar + " not configured"}
}
