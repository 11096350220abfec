package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/puzzlehive/puzzlehive/internal/domain/realtime"
)

// Server-to-client event names.
const (
	EventUserJoined      = "user_joined"
	EventUserLeft        = "user_left"
	EventPieceMoved      = "piece_moved"
	EventPieceLocked     = "piece_locked"
	EventPieceUnlocked   = "piece_unlocked"
	EventChatMessage     = "chat_message"
	EventCursorUpdate    = "cursor_update"
	EventPuzzleCompleted = "puzzle_completed"
)

// UserJoinedEvent announces a new group member.
type UserJoinedEvent struct {
	UserID    uuid.UUID `json:"userId"`
	SessionID uuid.UUID `json:"sessionId"`
}

// UserLeftEvent announces a departed group member.
type UserLeftEvent struct {
	UserID    uuid.UUID `json:"userId"`
	SessionID uuid.UUID `json:"sessionId"`
}

// PieceMovedEvent carries a piece's new position.
type PieceMovedEvent struct {
	PieceID  uuid.UUID `json:"pieceId"`
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Rotation float64   `json:"rotation"`
	Placed   bool      `json:"placed"`
	MovedBy  uuid.UUID `json:"movedByUserId"`
}

// PieceLockedEvent announces a successful lock acquisition.
type PieceLockedEvent struct {
	PieceID  uuid.UUID `json:"pieceId"`
	LockedBy uuid.UUID `json:"lockedByUserId"`
}

// PieceUnlockedEvent announces a released lock.
type PieceUnlockedEvent struct {
	PieceID uuid.UUID `json:"pieceId"`
}

// ChatMessageEvent echoes a chat line to the whole group, sender included.
type ChatMessageEvent struct {
	UserID    uuid.UUID `json:"userId"`
	SessionID uuid.UUID `json:"sessionId"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// CursorUpdateEvent carries a throttled cursor position.
type CursorUpdateEvent struct {
	UserID uuid.UUID `json:"userId"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
}

// PuzzleCompletedEvent announces the terminal session transition.
type PuzzleCompletedEvent struct {
	SessionID   uuid.UUID `json:"sessionId"`
	CompletedAt time.Time `json:"completedAt"`
}

// envelope wraps a message for cross-process fan-out through the
// coordination store. Origin names the publishing process so it can skip its
// own envelopes (it already delivered locally); an empty Origin means
// publish-only, every process delivers. Seq is the per-session sequence
// stamped by the store's counter.
type envelope struct {
	Origin    string            `json:"origin,omitempty"`
	SessionID uuid.UUID         `json:"sessionId"`
	Seq       int64             `json:"seq,omitempty"`
	Exclude   string            `json:"exclude,omitempty"`
	Message   *realtime.Message `json:"message"`
}
