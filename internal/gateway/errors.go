// Package gateway is the client side of the resource store contract:
// fetch a resource's configuration, apply a new one (optionally as a
// dry-run), and run server-side validation and diff. The package makes
// no assumption about how the server reaches the cluster; it depends
// only on the HTTP request/response contract.
package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a gateway failure.
type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindUnauthorized       ErrorKind = "unauthorized"
	KindConflict           ErrorKind = "conflict"
	KindValidationRejected ErrorKind = "validation_rejected"
	KindUnknown            ErrorKind = "unknown"
)

// Error is a remote failure surfaced verbatim to the user. It never
// corrupts an in-progress editing session: callers leave their state
// untouched when they receive one.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway %s (%d): %s", e.Kind, e.StatusCode, e.Message)
}

// KindOf returns the gateway error kind, or KindUnknown for any other
// error.
func KindOf(err error) ErrorKind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnknown
}

func kindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindUnauthorized
	case http.StatusConflict:
		return KindConflict
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return KindValidationRejected
	default:
		return KindUnknown
	}
}
