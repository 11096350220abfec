package puzzle

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines durable persistence for sessions, participants, pieces
// and chat. Implementations return (nil, nil) for absent rows.
type Repository interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSessionByID(ctx context.Context, sessionID uuid.UUID) (*Session, error)
	GetSessionByJoinCode(ctx context.Context, joinCode string) (*Session, error)
	GetActiveSessionByPuzzle(ctx context.Context, puzzleID uuid.UUID) (*Session, error)
	UpdateSessionProgress(ctx context.Context, sessionID uuid.UUID, completed int, percent float64, updatedAt time.Time) error
	// CompleteSession transitions a session to COMPLETED and reports whether
	// this call performed the transition. At most one caller ever gets true.
	CompleteSession(ctx context.Context, sessionID uuid.UUID, completedAt time.Time) (bool, error)
	TouchSessionActivity(ctx context.Context, sessionID uuid.UUID, at time.Time) error

	UpsertParticipant(ctx context.Context, participant *Participant) error
	GetParticipant(ctx context.Context, sessionID, userID uuid.UUID) (*Participant, error)
	ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]*Participant, error)
	CountParticipants(ctx context.Context, sessionID uuid.UUID) (int, error)
	MarkParticipantOffline(ctx context.Context, sessionID, userID uuid.UUID) error
	IncrementPiecesPlaced(ctx context.Context, sessionID, userID uuid.UUID) error

	CreatePieces(ctx context.Context, pieces []*Piece) error
	GetPieceByID(ctx context.Context, pieceID uuid.UUID) (*Piece, error)
	UpdatePiecePosition(ctx context.Context, pieceID uuid.UUID, x, y, rotation float64, placed bool, updatedAt time.Time) error
	SetPieceLock(ctx context.Context, pieceID, userID uuid.UUID, lockedAt time.Time) error
	ClearPieceLock(ctx context.Context, pieceID uuid.UUID) error
	// ClearPieceLocksForUser clears every durable lock the user holds in one
	// puzzle and returns the affected piece ids.
	ClearPieceLocksForUser(ctx context.Context, puzzleID, userID uuid.UUID) ([]uuid.UUID, error)
	ListLockedPieces(ctx context.Context, limit int) ([]*Piece, error)
	CountPlacedPieces(ctx context.Context, puzzleID uuid.UUID) (int, error)
	CountPieces(ctx context.Context, puzzleID uuid.UUID) (int, error)

	SaveChatMessage(ctx context.Context, message *ChatMessage) error
	ListChatMessages(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]*ChatMessage, error)
}
