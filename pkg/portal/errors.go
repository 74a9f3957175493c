package portal

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a view already has a load or save in flight.
	ErrBusy = errors.New("portal: operation already in progress")
	// ErrEditing is returned when a chat message is sent while the request
	// edit form is open.
	ErrEditing = errors.New("portal: finish or cancel the edit before chatting")
)

// AuthError means the session is missing, expired or rejected. Callers
// should send the user back to login.
type AuthError struct {
	Msg string
}

func (e *AuthError) Error() string { return "unauthorized: " + e.Msg }

// PermissionError is a denial. When Msg is empty it was decided locally and
// no request was sent; otherwise it carries the server's 403 message.
type PermissionError struct {
	Resource string
	Action   string
	Msg      string
}

func (e *PermissionError) Error() string {
	if e.Msg != "" {
		return "permission denied: " + e.Msg
	}
	return fmt.Sprintf("permission denied: %s on %s", e.Action, e.Resource)
}

// ValidationError carries a message that can be shown verbatim, either from
// the server or from local payload checks.
type ValidationError struct {
	Msg    string
	Fields map[string]string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError means the referenced record no longer exists.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return "not found: " + e.Msg }

// ConflictError means the server refused a write because the record changed
// or already exists.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return "conflict: " + e.Msg }

// NetworkError covers transport failures, undecodable responses and server
// errors. Status is zero when no response was received.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: server returned %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsAuth reports whether err is an *AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsNotFound reports whether err is a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
