package apperr

import (
	"errors"
	"net/http"
)

// Kind is the closed set of failure categories the core branches on.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindUnauthorized     Kind = "unauthorized"
	KindPermissionDenied Kind = "permission_denied"
	KindConflict         Kind = "conflict"
	KindUpstream         Kind = "upstream"
	KindInvalid          Kind = "invalid"
)

// Sentinels so callers can use errors.Is(err, apperr.ErrNotFound).
var (
	ErrNotFound         = &Error{Kind: KindNotFound, Message: "resource not found"}
	ErrUnauthorized     = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrPermissionDenied = &Error{Kind: KindPermissionDenied, Message: "permission denied"}
	ErrConflict         = &Error{Kind: KindConflict, Message: "conflict"}
	ErrUpstream         = &Error{Kind: KindUpstream, Message: "upstream failure"}
	ErrInvalid          = &Error{Kind: KindInvalid, Message: "invalid input"}
)

type Error struct {
	Kind          Kind
	Message       string
	UpgradePrompt bool
	Err           error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func NotFound(msg string) error { return &Error{Kind: KindNotFound, Message: msg} }

func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Message: msg} }

func Conflict(msg string) error { return &Error{Kind: KindConflict, Message: msg} }

func Invalid(msg string) error { return &Error{Kind: KindInvalid, Message: msg} }

// Denied builds a PermissionDenied error. upgrade marks denials that premium resolves.
func Denied(msg string, upgrade bool) error {
	return &Error{Kind: KindPermissionDenied, Message: msg, UpgradePrompt: upgrade}
}

func Upstream(msg string, cause error) error {
	return &Error{Kind: KindUpstream, Message: msg, Err: cause}
}

// KindOf returns the Kind of err, or KindUpstream for anything untyped.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

// HTTPStatus maps an error to the status code handlers respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// UpgradePrompt reports whether err is a denial that buying premium would lift.
func UpgradePrompt(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.UpgradePrompt
	}
	return false
}
