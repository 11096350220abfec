package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/puzzlehive/puzzlehive/internal/domain/puzzle"
)

// fakeRepo is a mutex-guarded in-memory puzzle.Repository. CompleteSession is
// a real compare-and-set so concurrency tests exercise the same single-winner
// contract as the SQL implementation.
type fakeRepo struct {
	mu           sync.Mutex
	sessions     map[uuid.UUID]*puzzle.Session
	participants map[uuid.UUID]map[uuid.UUID]*puzzle.Participant
	pieces       map[uuid.UUID]*puzzle.Piece
	chat         map[uuid.UUID][]*puzzle.ChatMessage
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		sessions:     make(map[uuid.UUID]*puzzle.Session),
		participants: make(map[uuid.UUID]map[uuid.UUID]*puzzle.Participant),
		pieces:       make(map[uuid.UUID]*puzzle.Piece),
		chat:         make(map[uuid.UUID][]*puzzle.ChatMessage),
	}
}

func (r *fakeRepo) CreateSession(_ context.Context, session *puzzle.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *session
	r.sessions[session.SessionID] = &copied
	return nil
}

func (r *fakeRepo) GetSessionByID(_ context.Context, sessionID uuid.UUID) (*puzzle.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r *fakeRepo) GetSessionByJoinCode(_ context.Context, joinCode string) (*puzzle.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.JoinCode == joinCode {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) GetActiveSessionByPuzzle(_ context.Context, puzzleID uuid.UUID) (*puzzle.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.PuzzleID == puzzleID && s.Status == puzzle.SessionStatusActive {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) UpdateSessionProgress(_ context.Context, sessionID uuid.UUID, completed int, percent float64, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		if completed > s.CompletedPieces {
			s.CompletedPieces = completed
		}
		if percent > s.CompletionPercent {
			s.CompletionPercent = percent
		}
		s.UpdatedAt = updatedAt
	}
	return nil
}

func (r *fakeRepo) CompleteSession(_ context.Context, sessionID uuid.UUID, completedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok || s.Status == puzzle.SessionStatusCompleted {
		return false, nil
	}
	s.Status = puzzle.SessionStatusCompleted
	s.CompletedAt = &completedAt
	return true, nil
}

func (r *fakeRepo) TouchSessionActivity(_ context.Context, sessionID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		s.LastActivityAt = at
	}
	return nil
}

func (r *fakeRepo) UpsertParticipant(_ context.Context, participant *puzzle.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byUser, ok := r.participants[participant.SessionID]
	if !ok {
		byUser = make(map[uuid.UUID]*puzzle.Participant)
		r.participants[participant.SessionID] = byUser
	}
	copied := *participant
	if existing, ok := byUser[participant.UserID]; ok {
		copied.PiecesPlaced = existing.PiecesPlaced
		copied.Role = existing.Role
		copied.JoinedAt = existing.JoinedAt
	}
	byUser[participant.UserID] = &copied
	return nil
}

func (r *fakeRepo) GetParticipant(_ context.Context, sessionID, userID uuid.UUID) (*puzzle.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[sessionID][userID]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (r *fakeRepo) ListParticipants(_ context.Context, sessionID uuid.UUID) ([]*puzzle.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*puzzle.Participant
	for _, p := range r.participants[sessionID] {
		copied := *p
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (r *fakeRepo) CountParticipants(_ context.Context, sessionID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants[sessionID]), nil
}

func (r *fakeRepo) MarkParticipantOffline(_ context.Context, sessionID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.participants[sessionID][userID]; ok {
		p.Status = puzzle.ParticipantOffline
		p.ConnectionID = nil
	}
	return nil
}

func (r *fakeRepo) IncrementPiecesPlaced(_ context.Context, sessionID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.participants[sessionID][userID]; ok {
		p.PiecesPlaced++
	}
	return nil
}

func (r *fakeRepo) CreatePieces(_ context.Context, pieces []*puzzle.Piece) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pieces {
		copied := *p
		r.pieces[p.PieceID] = &copied
	}
	return nil
}

func (r *fakeRepo) GetPieceByID(_ context.Context, pieceID uuid.UUID) (*puzzle.Piece, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pieces[pieceID]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (r *fakeRepo) UpdatePiecePosition(_ context.Context, pieceID uuid.UUID, x, y, rotation float64, placed bool, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pieces[pieceID]; ok {
		p.X, p.Y, p.Rotation = x, y, rotation
		p.Placed = p.Placed || placed
		p.UpdatedAt = updatedAt
	}
	return nil
}

func (r *fakeRepo) SetPieceLock(_ context.Context, pieceID, userID uuid.UUID, lockedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pieces[pieceID]; ok {
		p.LockedBy = &userID
		p.LockedAt = &lockedAt
	}
	return nil
}

func (r *fakeRepo) ClearPieceLock(_ context.Context, pieceID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pieces[pieceID]; ok {
		p.LockedBy = nil
		p.LockedAt = nil
	}
	return nil
}

func (r *fakeRepo) ClearPieceLocksForUser(_ context.Context, puzzleID, userID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uuid.UUID
	for _, p := range r.pieces {
		if p.PuzzleID == puzzleID && p.LockedBy != nil && *p.LockedBy == userID {
			p.LockedBy = nil
			p.LockedAt = nil
			out = append(out, p.PieceID)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListLockedPieces(_ context.Context, limit int) ([]*puzzle.Piece, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*puzzle.Piece
	for _, p := range r.pieces {
		if p.LockedBy != nil {
			copied := *p
			out = append(out, &copied)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeRepo) CountPlacedPieces(_ context.Context, puzzleID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.pieces {
		if p.PuzzleID == puzzleID && p.Placed {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) CountPieces(_ context.Context, puzzleID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.pieces {
		if p.PuzzleID == puzzleID {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) SaveChatMessage(_ context.Context, message *puzzle.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *message
	r.chat[message.SessionID] = append(r.chat[message.SessionID], &copied)
	return nil
}

func (r *fakeRepo) ListChatMessages(_ context.Context, sessionID uuid.UUID, limit, offset int) ([]*puzzle.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.chat[sessionID]
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	out := make([]*puzzle.ChatMessage, 0, end-offset)
	for _, m := range all[offset:end] {
		copied := *m
		out = append(out, &copied)
	}
	return out, nil
}
