// Package invokeerr defines the normalized error vocabulary surfaced to the
// host platform. Every failure that crosses an adapter boundary is one of the
// kinds below; nothing propagates unclassified.
package invokeerr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind identifies the failure category the host acts on.
type Kind string

const (
	KindCredentialsInvalid Kind = "credentials_invalid"
	KindBadRequest         Kind = "bad_request"
	KindUnauthorized       Kind = "unauthorized"
	KindRateLimited        Kind = "rate_limited"
	KindServerUnavailable  Kind = "server_unavailable"
	KindConnectionFailed   Kind = "connection_failed"
)

// Error pairs a kind with the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New constructs an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// CredentialsInvalid wraps err as the single credential-check failure signal.
// Detail is deliberately collapsed: the host gets one actionable kind.
func CredentialsInvalid(err error) *Error {
	var ie *Error
	if errors.As(err, &ie) && ie.Kind == KindCredentialsInvalid {
		return ie
	}
	return &Error{Kind: KindCredentialsInvalid, Message: "invalid credentials: " + err.Error(), Cause: err}
}

// KindOf reports the kind of err, or KindBadRequest when err carries none.
func KindOf(err error) Kind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return KindBadRequest
}

// rule is one entry of the ordered classification list, evaluated top to bottom.
type rule struct {
	match func(err error, msg string) bool
	kind  Kind
}

// The string predicates sniff status codes out of the error text rather than
// reading a structured field, so every wire error in this repo formats its
// message as "<code> <text>". See DESIGN.md before changing the order.
var rules = []rule{
	{matchJSONDecode, KindBadRequest},
	{matchConnection, KindConnectionFailed},
	{func(_ error, msg string) bool {
		return strings.Contains(msg, "401") || strings.Contains(msg, "403")
	}, KindUnauthorized},
	{func(_ error, msg string) bool {
		return strings.Contains(msg, "429")
	}, KindRateLimited},
	{func(_ error, msg string) bool {
		return strings.HasPrefix(msg, "5")
	}, KindServerUnavailable},
}

func matchJSONDecode(err error, _ string) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

func matchConnection(err error, _ string) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Classify maps a remote-call failure onto the host taxonomy. Errors that
// already carry a kind pass through untouched.
func Classify(err error, context string) *Error {
	var ie *Error
	if errors.As(err, &ie) {
		return ie
	}

	msg := err.Error()
	out := &Error{Kind: KindBadRequest, Message: context + ": " + msg, Cause: err}
	for _, r := range rules {
		if r.match(err, msg) {
			out.Kind = r.kind
			break
		}
	}
	return out
}
