package domain

import (
	"errors"
	"strings"
)

// Error kinds. Every error returned by the coordinator wraps exactly one of
// these, so callers can branch with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalid      = errors.New("invalid state")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

var (
	ErrSessionNotFound     = newError(ErrNotFound, "session not found")
	ErrParticipantNotFound = newError(ErrNotFound, "participant not found")

	ErrSessionEnded            = newError(ErrInvalid, "this session has ended")
	ErrUnmuteWithoutPermission = newError(ErrInvalid, "participant has no speaking permission, grant it instead")
	ErrRevokeHost              = newError(ErrInvalid, "the host's speaking permission cannot be revoked")

	ErrNotTeacher           = newError(ErrForbidden, "only the teacher can perform this action")
	ErrHostCannotRequest    = newError(ErrForbidden, "only students can request to speak")
	ErrNoSpeakingPermission = newError(ErrForbidden, "you do not have permission to speak yet")
	ErrSelfUnmuteDisabled   = newError(ErrForbidden, "the teacher has disabled self-unmute")

	ErrEmptyMessage      = newError(ErrInvalidInput, "message cannot be empty")
	ErrMessageTooLong    = newError(ErrInvalidInput, "message is too long")
	ErrMissingIdentifier = newError(ErrInvalidInput, "required identifier is missing")
	ErrInvalidHandAction = newError(ErrInvalidInput, "hand action must be raise or lower")
	ErrInvalidRole       = newError(ErrInvalidInput, "role must be host or audience")
	ErrUnknownCommand    = newError(ErrInvalidInput, "unknown command")

	ErrActiveSessionExists = newError(ErrConflict, "an active session already exists for this class")
	ErrAlreadyPermitted    = newError(ErrConflict, "speaking permission already granted")
	ErrRequestPending      = newError(ErrConflict, "a speaking request is already pending")
)

// Kind returns the kind sentinel err wraps, or nil for unclassified errors.
func Kind(err error) error {
	for _, kind := range []error{ErrNotFound, ErrInvalid, ErrForbidden, ErrInvalidInput, ErrConflict} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// OpError attaches the operation and the session/participant it targeted.
type OpError struct {
	Op        string
	SessionID string
	UserID    string
	Err       error
}

func (e *OpError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.SessionID != "" {
		b.WriteString(" session=")
		b.WriteString(e.SessionID)
	}
	if e.UserID != "" {
		b.WriteString(" user=")
		b.WriteString(e.UserID)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *OpError) Unwrap() error { return e.Err }

// Message returns the user-facing text of err without operation context.
func Message(err error) string {
	var op *OpError
	if errors.As(err, &op) {
		return op.Err.Error()
	}
	return err.Error()
}
