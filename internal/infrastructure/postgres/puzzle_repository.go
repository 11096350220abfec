package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/puzzlehive/puzzlehive/internal/domain/puzzle"
)

// PuzzleRepository implements puzzle.Repository.
type PuzzleRepository struct {
	pool *pgxpool.Pool
}

func NewPuzzleRepository(pool *pgxpool.Pool) *PuzzleRepository {
	return &PuzzleRepository{pool: pool}
}

func (r *PuzzleRepository) CreateSession(ctx context.Context, session *puzzle.Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO puzzle_sessions
		(session_id, puzzle_id, join_code, visibility, max_participants, status, completed_pieces, completion_percent, last_activity_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, session.SessionID, session.PuzzleID, session.JoinCode, session.Visibility, session.MaxParticipants, session.Status, session.CompletedPieces, session.CompletionPercent, session.LastActivityAt, session.CreatedAt, session.UpdatedAt)
	return err
}

func (r *PuzzleRepository) GetSessionByID(ctx context.Context, sessionID uuid.UUID) (*puzzle.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, session_id, puzzle_id, join_code, visibility, max_participants, status, completed_pieces, completion_percent, last_activity_at, created_at, updated_at, completed_at
		FROM puzzle_sessions
		WHERE session_id=$1
	`, sessionID)
	return scanSession(row)
}

func (r *PuzzleRepository) GetSessionByJoinCode(ctx context.Context, joinCode string) (*puzzle.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, session_id, puzzle_id, join_code, visibility, max_participants, status, completed_pieces, completion_percent, last_activity_at, created_at, updated_at, completed_at
		FROM puzzle_sessions
		WHERE join_code=$1
	`, joinCode)
	return scanSession(row)
}

func (r *PuzzleRepository) GetActiveSessionByPuzzle(ctx context.Context, puzzleID uuid.UUID) (*puzzle.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, session_id, puzzle_id, join_code, visibility, max_participants, status, completed_pieces, completion_percent, last_activity_at, created_at, updated_at, completed_at
		FROM puzzle_sessions
		WHERE puzzle_id=$1 AND status='ACTIVE'
		ORDER BY created_at DESC
		LIMIT 1
	`, puzzleID)
	return scanSession(row)
}

func (r *PuzzleRepository) UpdateSessionProgress(ctx context.Context, sessionID uuid.UUID, completed int, percent float64, updatedAt time.Time) error {
	// Progress never regresses, even if a stale writer shows up late.
	_, err := r.pool.Exec(ctx, `
		UPDATE puzzle_sessions
		SET completed_pieces=GREATEST(completed_pieces, $1),
		    completion_percent=GREATEST(completion_percent, $2),
		    updated_at=$3
		WHERE session_id=$4
	`, completed, percent, updatedAt, sessionID)
	return err
}

func (r *PuzzleRepository) CompleteSession(ctx context.Context, sessionID uuid.UUID, completedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE puzzle_sessions
		SET status='COMPLETED', completed_at=$1, updated_at=$1
		WHERE session_id=$2 AND status <> 'COMPLETED'
	`, completedAt, sessionID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PuzzleRepository) TouchSessionActivity(ctx context.Context, sessionID uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE puzzle_sessions
		SET last_activity_at=$1
		WHERE session_id=$2
	`, at, sessionID)
	return err
}

func (r *PuzzleRepository) UpsertParticipant(ctx context.Context, participant *puzzle.Participant) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO session_participants
		(session_id, user_id, connection_id, role, status, joined_at, pieces_placed)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (session_id, user_id) DO UPDATE
		SET connection_id=EXCLUDED.connection_id, status=EXCLUDED.status
	`, participant.SessionID, participant.UserID, participant.ConnectionID, participant.Role, participant.Status, participant.JoinedAt, participant.PiecesPlaced)
	return err
}

func (r *PuzzleRepository) GetParticipant(ctx context.Context, sessionID, userID uuid.UUID) (*puzzle.Participant, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, session_id, user_id, connection_id, role, status, joined_at, pieces_placed
		FROM session_participants
		WHERE session_id=$1 AND user_id=$2
	`, sessionID, userID)
	return scanParticipant(row)
}

func (r *PuzzleRepository) ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]*puzzle.Participant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, user_id, connection_id, role, status, joined_at, pieces_placed
		FROM session_participants
		WHERE session_id=$1
		ORDER BY joined_at ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*puzzle.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PuzzleRepository) CountParticipants(ctx context.Context, sessionID uuid.UUID) (int, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT COUNT(1)
		FROM session_participants
		WHERE session_id=$1
	`, sessionID)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PuzzleRepository) MarkParticipantOffline(ctx context.Context, sessionID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE session_participants
		SET status='OFFLINE', connection_id=NULL
		WHERE session_id=$1 AND user_id=$2
	`, sessionID, userID)
	return err
}

func (r *PuzzleRepository) IncrementPiecesPlaced(ctx context.Context, sessionID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE session_participants
		SET pieces_placed=pieces_placed+1
		WHERE session_id=$1 AND user_id=$2
	`, sessionID, userID)
	return err
}

func (r *PuzzleRepository) CreatePieces(ctx context.Context, pieces []*puzzle.Piece) error {
	for _, p := range pieces {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO puzzle_pieces
			(piece_id, puzzle_id, grid_row, grid_col, correct_x, correct_y, x, y, rotation, placed, locked_by, locked_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		`, p.PieceID, p.PuzzleID, p.Row, p.Col, p.CorrectX, p.CorrectY, p.X, p.Y, p.Rotation, p.Placed, p.LockedBy, p.LockedAt, p.UpdatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *PuzzleRepository) GetPieceByID(ctx context.Context, pieceID uuid.UUID) (*puzzle.Piece, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, piece_id, puzzle_id, grid_row, grid_col, correct_x, correct_y, x, y, rotation, placed, locked_by, locked_at, updated_at
		FROM puzzle_pieces
		WHERE piece_id=$1
	`, pieceID)
	return scanPiece(row)
}

func (r *PuzzleRepository) UpdatePiecePosition(ctx context.Context, pieceID uuid.UUID, x, y, rotation float64, placed bool, updatedAt time.Time) error {
	// placed is one-way: OR with the stored flag.
	_, err := r.pool.Exec(ctx, `
		UPDATE puzzle_pieces
		SET x=$1, y=$2, rotation=$3, placed=(placed OR $4), updated_at=$5
		WHERE piece_id=$6
	`, x, y, rotation, placed, updatedAt, pieceID)
	return err
}

func (r *PuzzleRepository) SetPieceLock(ctx context.Context, pieceID, userID uuid.UUID, lockedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE puzzle_pieces
		SET locked_by=$1, locked_at=$2, updated_at=$2
		WHERE piece_id=$3
	`, userID, lockedAt, pieceID)
	return err
}

func (r *PuzzleRepository) ClearPieceLock(ctx context.Context, pieceID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE puzzle_pieces
		SET locked_by=NULL, locked_at=NULL
		WHERE piece_id=$1
	`, pieceID)
	return err
}

func (r *PuzzleRepository) ClearPieceLocksForUser(ctx context.Context, puzzleID, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE puzzle_pieces
		SET locked_by=NULL, locked_at=NULL
		WHERE puzzle_id=$1 AND locked_by=$2
		RETURNING piece_id
	`, puzzleID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var pieceID uuid.UUID
		if err := rows.Scan(&pieceID); err != nil {
			return nil, err
		}
		out = append(out, pieceID)
	}
	return out, rows.Err()
}

func (r *PuzzleRepository) ListLockedPieces(ctx context.Context, limit int) ([]*puzzle.Piece, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, piece_id, puzzle_id, grid_row, grid_col, correct_x, correct_y, x, y, rotation, placed, locked_by, locked_at, updated_at
		FROM puzzle_pieces
		WHERE locked_by IS NOT NULL
		ORDER BY locked_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*puzzle.Piece
	for rows.Next() {
		p, err := scanPiece(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PuzzleRepository) CountPlacedPieces(ctx context.Context, puzzleID uuid.UUID) (int, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT COUNT(1)
		FROM puzzle_pieces
		WHERE puzzle_id=$1 AND placed
	`, puzzleID)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PuzzleRepository) CountPieces(ctx context.Context, puzzleID uuid.UUID) (int, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT COUNT(1)
		FROM puzzle_pieces
		WHERE puzzle_id=$1
	`, puzzleID)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PuzzleRepository) SaveChatMessage(ctx context.Context, message *puzzle.ChatMessage) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat_messages
		(message_id, session_id, user_id, type, text, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, message.MessageID, message.SessionID, message.UserID, message.Type, message.Text, message.CreatedAt)
	return err
}

func (r *PuzzleRepository) ListChatMessages(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]*puzzle.ChatMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, message_id, session_id, user_id, type, text, created_at
		FROM chat_messages
		WHERE session_id=$1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, sessionID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*puzzle.ChatMessage
	for rows.Next() {
		m, err := scanChatMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanSession(row pgx.Row) (*puzzle.Session, error) {
	var s puzzle.Session
	if err := row.Scan(&s.ID, &s.SessionID, &s.PuzzleID, &s.JoinCode, &s.Visibility, &s.MaxParticipants, &s.Status, &s.CompletedPieces, &s.CompletionPercent, &s.LastActivityAt, &s.CreatedAt, &s.UpdatedAt, &s.CompletedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func scanParticipant(row pgx.Row) (*puzzle.Participant, error) {
	var p puzzle.Participant
	if err := row.Scan(&p.ID, &p.SessionID, &p.UserID, &p.ConnectionID, &p.Role, &p.Status, &p.JoinedAt, &p.PiecesPlaced); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func scanPiece(row pgx.Row) (*puzzle.Piece, error) {
	var p puzzle.Piece
	if err := row.Scan(&p.ID, &p.PieceID, &p.PuzzleID, &p.Row, &p.Col, &p.CorrectX, &p.CorrectY, &p.X, &p.Y, &p.Rotation, &p.Placed, &p.LockedBy, &p.LockedAt, &p.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func scanChatMessage(row pgx.Row) (*puzzle.ChatMessage, error) {
	var m puzzle.ChatMessage
	if err := row.Scan(&m.ID, &m.MessageID, &m.SessionID, &m.UserID, &m.Type, &m.Text, &m.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}
