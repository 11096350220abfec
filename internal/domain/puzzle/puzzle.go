package puzzle

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// SessionStatus describes collaborative session state.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusPaused    SessionStatus = "PAUSED"
	SessionStatusCompleted SessionStatus = "COMPLETED"
)

// SessionVisibility controls who may discover a session.
type SessionVisibility string

const (
	VisibilityPublic  SessionVisibility = "PUBLIC"
	VisibilityPrivate SessionVisibility = "PRIVATE"
)

// ParticipantRole describes what a participant may do in a session.
type ParticipantRole string

const (
	RoleHost   ParticipantRole = "HOST"
	RolePlayer ParticipantRole = "PLAYER"
	RoleViewer ParticipantRole = "VIEWER"
)

// ParticipantStatus describes participant presence.
type ParticipantStatus string

const (
	ParticipantOnline  ParticipantStatus = "ONLINE"
	ParticipantAway    ParticipantStatus = "AWAY"
	ParticipantOffline ParticipantStatus = "OFFLINE"
)

// ChatMessageType distinguishes user text from system announcements.
type ChatMessageType string

const (
	ChatTypeText   ChatMessageType = "TEXT"
	ChatTypeSystem ChatMessageType = "SYSTEM"
)

// Session is one collaborative instance of solving a puzzle.
type Session struct {
	ID                int64             `json:"id"`
	SessionID         uuid.UUID         `json:"sessionId"`
	PuzzleID          uuid.UUID         `json:"puzzleId"`
	JoinCode          string            `json:"joinCode"`
	Visibility        SessionVisibility `json:"visibility"`
	MaxParticipants   int               `json:"maxParticipants"`
	Status            SessionStatus     `json:"status"`
	CompletedPieces   int               `json:"completedPieces"`
	CompletionPercent float64           `json:"completionPercent"`
	LastActivityAt    time.Time         `json:"lastActivityAt"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
	CompletedAt       *time.Time        `json:"completedAt,omitempty"`
}

// IsCompleted reports whether the session reached its terminal state.
func (s *Session) IsCompleted() bool {
	return s.Status == SessionStatusCompleted
}

// Participant is a user's membership in a session. ConnectionID is nil while
// the user has no live connection.
type Participant struct {
	ID           int64             `json:"id"`
	SessionID    uuid.UUID         `json:"sessionId"`
	UserID       uuid.UUID         `json:"userId"`
	ConnectionID *string           `json:"connectionId,omitempty"`
	Role         ParticipantRole   `json:"role"`
	Status       ParticipantStatus `json:"status"`
	JoinedAt     time.Time         `json:"joinedAt"`
	PiecesPlaced int               `json:"piecesPlaced"`
}

// Piece is one puzzle piece. Placed is a one-way transition.
type Piece struct {
	ID        int64      `json:"id"`
	PieceID   uuid.UUID  `json:"pieceId"`
	PuzzleID  uuid.UUID  `json:"puzzleId"`
	Row       int        `json:"row"`
	Col       int        `json:"col"`
	CorrectX  float64    `json:"correctX"`
	CorrectY  float64    `json:"correctY"`
	X         float64    `json:"x"`
	Y         float64    `json:"y"`
	Rotation  float64    `json:"rotation"`
	Placed    bool       `json:"placed"`
	LockedBy  *uuid.UUID `json:"lockedBy,omitempty"`
	LockedAt  *time.Time `json:"lockedAt,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// WithinSnap reports whether (x, y, rotation) counts as placed: position
// within tolerance of the correct location and rotation back at zero.
func (p *Piece) WithinSnap(x, y, rotation, tolerance float64) bool {
	if math.Hypot(x-p.CorrectX, y-p.CorrectY) > tolerance {
		return false
	}
	return rotationAligned(rotation)
}

// LockedByOther reports whether someone other than userID holds the durable
// lock mirror.
func (p *Piece) LockedByOther(userID uuid.UUID) bool {
	return p.LockedBy != nil && *p.LockedBy != userID
}

// ChatMessage is one persisted chat line.
type ChatMessage struct {
	ID        int64           `json:"id"`
	MessageID uuid.UUID       `json:"messageId"`
	SessionID uuid.UUID       `json:"sessionId"`
	UserID    uuid.UUID       `json:"userId"`
	Type      ChatMessageType `json:"type"`
	Text      string          `json:"text"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Progress computes completion percentage. It is a pure function of the
// placed count over the total and never exceeds 100.
func Progress(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return float64(completed) / float64(total) * 100
}

// rotationAligned tolerates sub-degree jitter around any full turn.
func rotationAligned(rotation float64) bool {
	r := math.Mod(rotation, 360)
	if r < 0 {
		r += 360
	}
	return r <= 1 || r >= 359
}
