// Package apperr provides typed error kinds shared by the searchers, the
// orchestrator and the web layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindConfig is a missing or invalid credential detected at construction time.
	KindConfig
	KindValidation
	KindNotFound
	// KindUpstream is a failed or malformed upstream call.
	KindUpstream
	// KindDenied is an upstream refusing the credential or the enabled APIs.
	KindDenied
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	case KindDenied:
		return "denied"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream, KindDenied:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Config(message string) *Error { return New(KindConfig, message) }
func Validation(message string) *Error { return New(KindValidation, message) }
func NotFound(message string) *Error { return New(KindNotFound, message) }

// GetKind walks the wrap chain and returns the first typed kind found.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}

// denialPhrases are the fragments upstream APIs put in authorization failures.
var denialPhrases = []string{"request_denied", "not authorized", "unauthorized", "oauthexception"}

// IsDenied reports whether err is a KindDenied error or carries a known denial phrase.
func IsDenied(err error) bool {
	if err == nil {
		return false
	}
	if Is(err, KindDenied) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range denialPhrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
