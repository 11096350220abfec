package puzzle

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrPiecePlaced rejects lock attempts against pieces that already snapped
// into place; placement is a one-way transition.
var ErrPiecePlaced = errors.New("piece is already placed")

// NotFoundError reports an absent session, piece, participant or lock.
type NotFoundError struct {
	Kind string
	Ref  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Ref)
}

// NewNotFound builds a NotFoundError for the given entity kind.
func NewNotFound(kind, ref string) *NotFoundError {
	return &NotFoundError{Kind: kind, Ref: ref}
}

// CapacityError reports a join attempt against a full session.
type CapacityError struct {
	SessionID       uuid.UUID
	MaxParticipants int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("session %s is full (max %d participants)", e.SessionID, e.MaxParticipants)
}

// ConflictError reports a lock already held by another user. It is a normal
// negative outcome of concurrent access, not an exceptional condition, and
// names the holder so callers can show who has the piece.
type ConflictError struct {
	PieceID  uuid.UUID
	HolderID uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("piece %s is locked by %s", e.PieceID, e.HolderID)
}

// AuthorizationError reports an operation attempted by a user who does not
// hold the required lock.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}

// OperationError wraps an underlying store failure. It is surfaced to the
// invoking caller only and never broadcast.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// WrapOp wraps a store error, passing nil through.
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Op: op, Err: err}
}
