package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy shared by the client and the service
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
)

// ErrorKind classifies an error against the taxonomy
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnauthorized
	KindForbidden
	KindConflict
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// HTTPError is returned by the API client for non 2xx responses
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth api: status %d", e.Status)
	}
	return fmt.Sprintf("auth api: status %d: %s", e.Status, e.Message)
}

// Is maps the response status onto the taxonomy sentinels
func (e *HTTPError) Is(target error) bool {
	switch e.Status {
	case http.StatusUnauthorized:
		return target == ErrUnauthorized
	case http.StatusForbidden:
		return target == ErrForbidden
	case http.StatusConflict:
		return target == ErrConflict
	case http.StatusNotFound:
		return target == ErrNotFound
	}
	return false
}

// Kind classifies err
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindUnknown
	}
}

// IsUnauthorized reports whether err is an expired or invalid access token
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// IsForbidden reports whether err is a rejected operation
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }

// IsConflict reports whether err is an already existing resource
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsNotFound reports whether err is a missing resource
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
