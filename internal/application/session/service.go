package session

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/puzzlehive/puzzlehive/internal/domain/coordination"
	"github.com/puzzlehive/puzzlehive/internal/domain/puzzle"
	"github.com/puzzlehive/puzzlehive/internal/domain/realtime"
	"github.com/puzzlehive/puzzlehive/internal/obs"
)

// Config tunes the coordinator.
type Config struct {
	// LockTTL bounds how long a crashed holder can keep a piece locked.
	LockTTL time.Duration
	// SnapTolerance is the max distance from the correct position still
	// counted as placed.
	SnapTolerance float64
	// CursorRate caps cursor broadcasts per connection per second.
	CursorRate int
	// ConnectionTTL bounds the connection-to-session index entry; the
	// streaming endpoint refreshes it via Heartbeat.
	ConnectionTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.LockTTL <= 0 {
		c.LockTTL = 5 * time.Minute
	}
	if c.SnapTolerance <= 0 {
		c.SnapTolerance = 20
	}
	if c.CursorRate <= 0 {
		c.CursorRate = 10
	}
	if c.ConnectionTTL <= 0 {
		c.ConnectionTTL = 90 * time.Second
	}
	return c
}

// Service coordinates real-time collaboration on puzzle sessions. Piece-lock
// arbitration is delegated entirely to the coordination store's atomic
// set-if-absent, so the service is correct when run as multiple processes
// sharing one store; the only in-process state is the cursor throttle table.
type Service struct {
	repo    puzzle.Repository
	store   coordination.Store
	hub     realtime.Hub
	metrics *obs.Metrics
	logger  zerolog.Logger
	cfg     Config

	// processID tags published envelopes so the fan-out relay can skip
	// events this process already delivered locally.
	processID string

	mu        sync.Mutex
	throttles map[string]*cursorThrottle
}

// NewService creates the session coordinator. metrics may be nil.
func NewService(
	repo puzzle.Repository,
	store coordination.Store,
	hub realtime.Hub,
	metrics *obs.Metrics,
	logger zerolog.Logger,
	cfg Config,
) *Service {
	return &Service{
		repo:      repo,
		store:     store,
		hub:       hub,
		metrics:   metrics,
		logger:    logger.With().Str("service", "session").Logger(),
		cfg:       cfg.withDefaults(),
		processID: uuid.NewString(),
		throttles: make(map[string]*cursorThrottle),
	}
}

// CreateSessionInput creates a collaboration session for an existing puzzle.
type CreateSessionInput struct {
	PuzzleID        uuid.UUID
	Visibility      puzzle.SessionVisibility
	MaxParticipants int
}

// CreateSession creates a session with a fresh join code.
func (s *Service) CreateSession(ctx context.Context, in CreateSessionInput) (*puzzle.Session, error) {
	if in.PuzzleID == uuid.Nil {
		return nil, fmt.Errorf("puzzle_id is required")
	}
	if in.Visibility == "" {
		in.Visibility = puzzle.VisibilityPublic
	}
	if in.Visibility != puzzle.VisibilityPublic && in.Visibility != puzzle.VisibilityPrivate {
		return nil, fmt.Errorf("visibility must be PUBLIC or PRIVATE")
	}
	if in.MaxParticipants <= 0 {
		in.MaxParticipants = 10
	}

	now := time.Now().UTC()
	session := &puzzle.Session{
		SessionID:       uuid.New(),
		PuzzleID:        in.PuzzleID,
		JoinCode:        newJoinCode(),
		Visibility:      in.Visibility,
		MaxParticipants: in.MaxParticipants,
		Status:          puzzle.SessionStatusActive,
		LastActivityAt:  now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, puzzle.WrapOp("create session", err)
	}
	return session, nil
}

// GetSession returns one session.
func (s *Service) GetSession(ctx context.Context, sessionID uuid.UUID) (*puzzle.Session, error) {
	return s.repo.GetSessionByID(ctx, sessionID)
}

// ListParticipants returns the session roster.
func (s *Service) ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]*puzzle.Participant, error) {
	return s.repo.ListParticipants(ctx, sessionID)
}

// ListChatMessages returns recent chat history.
func (s *Service) ListChatMessages(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]*puzzle.ChatMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListChatMessages(ctx, sessionID, limit, offset)
}

// JoinSession associates a connection with a session, identified by internal
// id or human join code. A connection already joined elsewhere is implicitly
// disconnected from its previous session first; a connection never belongs to
// two groups. Rejoining participants bypass the capacity check.
func (s *Service) JoinSession(ctx context.Context, connectionID string, userID uuid.UUID, sessionRef string) (*puzzle.Session, error) {
	if connectionID == "" || userID == uuid.Nil {
		return nil, fmt.Errorf("connection_id and user_id are required")
	}
	sessionRef = strings.TrimSpace(sessionRef)
	if sessionRef == "" {
		return nil, fmt.Errorf("session reference is required")
	}

	session, err := s.resolveSession(ctx, sessionRef)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, puzzle.NewNotFound("session", sessionRef)
	}

	// Implicit leave-then-join: a connection in another session is cleaned up
	// exactly as if it had disconnected there.
	if raw, ok, err := s.store.Get(ctx, coordination.ConnectionKey(connectionID)); err == nil && ok {
		if ref, derr := coordination.DecodeConnectionRef(raw); derr == nil && ref.SessionID != session.SessionID {
			if lerr := s.OnDisconnected(ctx, connectionID); lerr != nil {
				s.logger.Warn().Err(lerr).Str("connection_id", connectionID).Msg("implicit leave failed")
			}
		}
	}

	now := time.Now().UTC()
	participant, err := s.repo.GetParticipant(ctx, session.SessionID, userID)
	if err != nil {
		return nil, puzzle.WrapOp("load participant", err)
	}
	if participant == nil {
		count, err := s.repo.CountParticipants(ctx, session.SessionID)
		if err != nil {
			return nil, puzzle.WrapOp("count participants", err)
		}
		if count >= session.MaxParticipants {
			return nil, &puzzle.CapacityError{SessionID: session.SessionID, MaxParticipants: session.MaxParticipants}
		}
		role := puzzle.RolePlayer
		if count == 0 {
			role = puzzle.RoleHost
		}
		participant = &puzzle.Participant{
			SessionID: session.SessionID,
			UserID:    userID,
			Role:      role,
			JoinedAt:  now,
		}
	}
	participant.ConnectionID = &connectionID
	participant.Status = puzzle.ParticipantOnline
	if err := s.repo.UpsertParticipant(ctx, participant); err != nil {
		return nil, puzzle.WrapOp("upsert participant", err)
	}

	s.hub.Join(connectionID, session.SessionID.String())

	ref := coordination.ConnectionRef{SessionID: session.SessionID, UserID: userID}
	encoded, err := ref.Encode()
	if err != nil {
		return nil, puzzle.WrapOp("encode connection ref", err)
	}
	key := coordination.ConnectionKey(connectionID)
	if err := s.store.Delete(ctx, key); err != nil {
		return nil, puzzle.WrapOp("reset connection index", err)
	}
	if _, err := s.store.SetIfAbsent(ctx, key, encoded, s.cfg.ConnectionTTL); err != nil {
		return nil, puzzle.WrapOp("store connection index", err)
	}

	s.ensureThrottle(connectionID)
	_ = s.repo.TouchSessionActivity(ctx, session.SessionID, now)

	s.broadcast(ctx, session.SessionID, EventUserJoined, UserJoinedEvent{
		UserID:    userID,
		SessionID: session.SessionID,
	}, connectionID)

	s.logger.Info().
		Str("connection_id", connectionID).
		Str("user_id", userID.String()).
		Str("session_id", session.SessionID.String()).
		Msg("connection joined session")
	return session, nil
}

// Heartbeat refreshes the connection-to-session index TTL.
func (s *Service) Heartbeat(ctx context.Context, connectionID string) error {
	_, err := s.store.Expire(ctx, coordination.ConnectionKey(connectionID), s.cfg.ConnectionTTL)
	return err
}

// MovePiece persists a new piece position and announces it. Moves against a
// placed piece or a completed session are accepted as no-ops so placement and
// completion stay one-way.
func (s *Service) MovePiece(ctx context.Context, connectionID string, userID, pieceID uuid.UUID, x, y, rotation float64) (*puzzle.Piece, error) {
	ref, err := s.connectionRef(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	session, piece, err := s.loadSessionPiece(ctx, ref.SessionID, pieceID)
	if err != nil {
		s.countMove("error")
		return nil, err
	}
	if session.IsCompleted() || piece.Placed {
		return piece, nil
	}

	lockKey := coordination.PieceLockKey(pieceID)
	holder, held, err := s.store.Get(ctx, lockKey)
	if err != nil {
		s.countMove("error")
		return nil, puzzle.WrapOp("read piece lock", err)
	}
	if held && holder != userID.String() {
		s.countMove("denied")
		return nil, &puzzle.AuthorizationError{Reason: fmt.Sprintf("piece %s is locked by %s", pieceID, holder)}
	}

	now := time.Now().UTC()
	placed := piece.WithinSnap(x, y, rotation, s.cfg.SnapTolerance)
	if placed {
		x, y, rotation = piece.CorrectX, piece.CorrectY, 0
	}
	if err := s.repo.UpdatePiecePosition(ctx, pieceID, x, y, rotation, placed, now); err != nil {
		s.countMove("error")
		return nil, puzzle.WrapOp("update piece position", err)
	}
	piece.X, piece.Y, piece.Rotation, piece.Placed = x, y, rotation, placed

	if placed {
		if err := s.repo.IncrementPiecesPlaced(ctx, session.SessionID, userID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to bump pieces placed")
		}
		// A placed piece can never move again; drop any lock the mover held.
		if held {
			_ = s.store.Delete(ctx, lockKey)
			_ = s.repo.ClearPieceLock(ctx, pieceID)
			s.broadcast(ctx, session.SessionID, EventPieceUnlocked, PieceUnlockedEvent{PieceID: pieceID}, connectionID)
		}
	}

	_ = s.repo.TouchSessionActivity(ctx, session.SessionID, now)

	s.broadcast(ctx, session.SessionID, EventPieceMoved, PieceMovedEvent{
		PieceID:  pieceID,
		X:        x,
		Y:        y,
		Rotation: rotation,
		Placed:   placed,
		MovedBy:  userID,
	}, connectionID)

	if placed {
		s.countMove("placed")
		if err := s.refreshProgress(ctx, session); err != nil {
			s.logger.Warn().Err(err).Str("session_id", session.SessionID.String()).Msg("failed to refresh progress")
		}
	} else {
		s.countMove("success")
	}
	return piece, nil
}

// LockPiece attempts an exclusive claim on a piece. On conflict the current
// holder is reported to the caller and nothing is broadcast; conflicts are a
// normal outcome of concurrent access.
func (s *Service) LockPiece(ctx context.Context, connectionID string, userID, pieceID uuid.UUID) (*puzzle.Piece, error) {
	ref, err := s.connectionRef(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	session, piece, err := s.loadSessionPiece(ctx, ref.SessionID, pieceID)
	if err != nil {
		s.countLock("error")
		return nil, err
	}
	if piece.Placed {
		return nil, puzzle.ErrPiecePlaced
	}

	lockKey := coordination.PieceLockKey(pieceID)
	acquired, err := s.store.SetIfAbsent(ctx, lockKey, userID.String(), s.cfg.LockTTL)
	if err != nil {
		s.countLock("error")
		return nil, puzzle.WrapOp("acquire piece lock", err)
	}
	if !acquired {
		holder, _, gerr := s.store.Get(ctx, lockKey)
		if gerr != nil {
			s.countLock("error")
			return nil, puzzle.WrapOp("read piece lock holder", gerr)
		}
		holderID, perr := uuid.Parse(holder)
		if perr == nil && holderID == userID {
			// Re-lock by the current holder refreshes the lease.
			_, _ = s.store.Expire(ctx, lockKey, s.cfg.LockTTL)
			s.countLock("success")
			return piece, nil
		}
		s.countLock("conflict")
		return nil, &puzzle.ConflictError{PieceID: pieceID, HolderID: holderID}
	}

	now := time.Now().UTC()
	if err := s.repo.SetPieceLock(ctx, pieceID, userID, now); err != nil {
		// Durable mirror failed; give the lock back rather than leave the two
		// tiers disagreeing.
		_ = s.store.Delete(ctx, lockKey)
		s.countLock("error")
		return nil, puzzle.WrapOp("persist piece lock", err)
	}
	piece.LockedBy = &userID
	piece.LockedAt = &now

	s.broadcast(ctx, session.SessionID, EventPieceLocked, PieceLockedEvent{
		PieceID:  pieceID,
		LockedBy: userID,
	}, connectionID)
	s.countLock("success")
	return piece, nil
}

// UnlockPiece releases a lock. Only the holder may release; a mismatch leaves
// all state untouched.
func (s *Service) UnlockPiece(ctx context.Context, connectionID string, userID, pieceID uuid.UUID) error {
	ref, err := s.connectionRef(ctx, connectionID)
	if err != nil {
		return err
	}

	lockKey := coordination.PieceLockKey(pieceID)
	holder, held, err := s.store.Get(ctx, lockKey)
	if err != nil {
		s.countRelease("error")
		return puzzle.WrapOp("read piece lock", err)
	}
	if !held {
		s.countRelease("denied")
		return puzzle.NewNotFound("lock", pieceID.String())
	}
	if holder != userID.String() {
		s.countRelease("denied")
		return &puzzle.AuthorizationError{Reason: fmt.Sprintf("piece %s is locked by %s, not %s", pieceID, holder, userID)}
	}

	if err := s.store.Delete(ctx, lockKey); err != nil {
		s.countRelease("error")
		return puzzle.WrapOp("release piece lock", err)
	}
	if err := s.repo.ClearPieceLock(ctx, pieceID); err != nil {
		s.countRelease("error")
		return puzzle.WrapOp("clear piece lock", err)
	}

	s.broadcast(ctx, ref.SessionID, EventPieceUnlocked, PieceUnlockedEvent{PieceID: pieceID}, connectionID)
	s.countRelease("success")
	return nil
}

// SendChatMessage persists a chat line and echoes it to the whole group,
// sender included, so everyone renders the same history.
func (s *Service) SendChatMessage(ctx context.Context, connectionID string, userID uuid.UUID, text string) (*puzzle.ChatMessage, error) {
	ref, err := s.connectionRef(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("message text is required")
	}
	if len(text) > 2000 {
		text = text[:2000]
	}

	now := time.Now().UTC()
	message := &puzzle.ChatMessage{
		MessageID: uuid.New(),
		SessionID: ref.SessionID,
		UserID:    userID,
		Type:      puzzle.ChatTypeText,
		Text:      text,
		CreatedAt: now,
	}
	if err := s.repo.SaveChatMessage(ctx, message); err != nil {
		return nil, puzzle.WrapOp("save chat message", err)
	}
	_ = s.repo.TouchSessionActivity(ctx, ref.SessionID, now)

	s.broadcast(ctx, ref.SessionID, EventChatMessage, ChatMessageEvent{
		UserID:    userID,
		SessionID: ref.SessionID,
		Text:      text,
		Timestamp: now,
	}, "")
	return message, nil
}

// UpdateCursor publishes a cursor position through the coordination store's
// pub/sub, throttled per connection. Excess updates inside a window are
// dropped; each update carries the full position so the next allowed one
// supersedes anything dropped.
func (s *Service) UpdateCursor(ctx context.Context, connectionID string, userID uuid.UUID, x, y float64) error {
	ref, err := s.connectionRef(ctx, connectionID)
	if err != nil {
		return err
	}

	if !s.ensureThrottle(connectionID).Allow(time.Now()) {
		if s.metrics != nil {
			s.metrics.CursorDroppedTotal.Inc()
		}
		return nil
	}

	data, err := json.Marshal(CursorUpdateEvent{UserID: userID, X: x, Y: y})
	if err != nil {
		return err
	}
	// Publish-only with an empty origin: every process, this one included,
	// delivers to its local group members.
	env := envelope{
		SessionID: ref.SessionID,
		Exclude:   connectionID,
		Message:   realtime.NewMessage(EventCursorUpdate, data),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := s.store.Publish(ctx, coordination.EventsChannel(ref.SessionID), payload); err != nil {
		return puzzle.WrapOp("publish cursor update", err)
	}
	return nil
}

// OnDisconnected cleans up after a dropped connection: releases the user's
// piece locks, marks the participant offline and announces the departure. The
// connection index lives in the shared store, so this works on a different
// process than the one that handled the join. Safe to invoke repeatedly; a
// second run finds no index entry and no-ops.
func (s *Service) OnDisconnected(ctx context.Context, connectionID string) error {
	key := coordination.ConnectionKey(connectionID)
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return puzzle.WrapOp("read connection index", err)
	}
	s.removeThrottle(connectionID)
	if !ok {
		return nil
	}
	ref, err := coordination.DecodeConnectionRef(raw)
	if err != nil {
		_ = s.store.Delete(ctx, key)
		return puzzle.WrapOp("decode connection ref", err)
	}
	// Deleting the index first makes a concurrent duplicate callback no-op.
	if err := s.store.Delete(ctx, key); err != nil {
		return puzzle.WrapOp("delete connection index", err)
	}

	s.hub.Leave(connectionID, ref.SessionID.String())

	participant, err := s.repo.GetParticipant(ctx, ref.SessionID, ref.UserID)
	if err != nil {
		return puzzle.WrapOp("load participant", err)
	}
	if participant != nil && participant.ConnectionID != nil && *participant.ConnectionID != connectionID {
		// The user already reconnected on a newer connection; only this stale
		// index entry needed cleaning.
		return nil
	}

	session, err := s.repo.GetSessionByID(ctx, ref.SessionID)
	if err != nil {
		return puzzle.WrapOp("load session", err)
	}
	if session != nil {
		released, err := s.repo.ClearPieceLocksForUser(ctx, session.PuzzleID, ref.UserID)
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", ref.UserID.String()).Msg("failed to clear durable locks")
		}
		for _, pieceID := range released {
			_ = s.store.Delete(ctx, coordination.PieceLockKey(pieceID))
			s.broadcast(ctx, ref.SessionID, EventPieceUnlocked, PieceUnlockedEvent{PieceID: pieceID}, connectionID)
		}
	}

	if participant != nil {
		if err := s.repo.MarkParticipantOffline(ctx, ref.SessionID, ref.UserID); err != nil {
			return puzzle.WrapOp("mark participant offline", err)
		}
		s.broadcast(ctx, ref.SessionID, EventUserLeft, UserLeftEvent{
			UserID:    ref.UserID,
			SessionID: ref.SessionID,
		}, connectionID)
	}

	s.logger.Info().
		Str("connection_id", connectionID).
		Str("session_id", ref.SessionID.String()).
		Msg("connection cleaned up")
	return nil
}

// LeaveSession is an explicit leave; same cleanup as a disconnect.
func (s *Service) LeaveSession(ctx context.Context, connectionID string) error {
	return s.OnDisconnected(ctx, connectionID)
}

// CheckCompletion transitions the session to COMPLETED once every piece is
// placed. The repository performs the transition as a compare-and-set, so
// concurrent callers that both observe 100% race to a single winner and
// exactly one PuzzleCompleted broadcast goes out.
func (s *Service) CheckCompletion(ctx context.Context, sessionID uuid.UUID) error {
	session, err := s.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return puzzle.WrapOp("load session", err)
	}
	if session == nil {
		return puzzle.NewNotFound("session", sessionID.String())
	}
	if session.IsCompleted() {
		return nil
	}

	placed, err := s.repo.CountPlacedPieces(ctx, session.PuzzleID)
	if err != nil {
		return puzzle.WrapOp("count placed pieces", err)
	}
	total, err := s.repo.CountPieces(ctx, session.PuzzleID)
	if err != nil {
		return puzzle.WrapOp("count pieces", err)
	}
	if total == 0 || placed < total {
		return nil
	}

	now := time.Now().UTC()
	transitioned, err := s.repo.CompleteSession(ctx, sessionID, now)
	if err != nil {
		return puzzle.WrapOp("complete session", err)
	}
	if !transitioned {
		return nil
	}

	s.broadcast(ctx, sessionID, EventPuzzleCompleted, PuzzleCompletedEvent{
		SessionID:   sessionID,
		CompletedAt: now,
	}, "")
	s.logger.Info().Str("session_id", sessionID.String()).Msg("puzzle completed")
	return nil
}

// refreshProgress recomputes durable progress after a placement and triggers
// completion detection when the count tips over.
func (s *Service) refreshProgress(ctx context.Context, session *puzzle.Session) error {
	placed, err := s.repo.CountPlacedPieces(ctx, session.PuzzleID)
	if err != nil {
		return err
	}
	total, err := s.repo.CountPieces(ctx, session.PuzzleID)
	if err != nil {
		return err
	}
	percent := puzzle.Progress(placed, total)
	if err := s.repo.UpdateSessionProgress(ctx, session.SessionID, placed, percent, time.Now().UTC()); err != nil {
		return err
	}
	if percent >= 100 {
		return s.CheckCompletion(ctx, session.SessionID)
	}
	return nil
}

// broadcast delivers locally, stamps a session sequence number and publishes
// the envelope for other processes. Caller-facing failures are never routed
// through here; only successful state transitions reach the group.
func (s *Service) broadcast(ctx context.Context, sessionID uuid.UUID, event string, payload interface{}, excludeConnectionID string) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Str("event", event).Msg("failed to marshal event payload")
		return
	}
	message := realtime.NewMessage(event, data)
	s.hub.Broadcast(sessionID.String(), message, excludeConnectionID)
	if s.metrics != nil {
		s.metrics.BroadcastTotal.WithLabelValues(event).Inc()
	}

	seq, err := s.store.Increment(ctx, coordination.SessionSeqKey(sessionID))
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID.String()).Msg("failed to stamp event sequence")
	}
	env := envelope{
		Origin:    s.processID,
		SessionID: sessionID,
		Seq:       seq,
		Exclude:   excludeConnectionID,
		Message:   message,
	}
	raw, err := json.Marshal(env)
	if err != nil {
		s.logger.Error().Err(err).Str("event", event).Msg("failed to marshal envelope")
		return
	}
	if err := s.store.Publish(ctx, coordination.EventsChannel(sessionID), raw); err != nil {
		s.logger.Warn().Err(err).Str("event", event).Msg("failed to publish envelope")
	}
}

// connectionRef resolves which session a connection belongs to.
func (s *Service) connectionRef(ctx context.Context, connectionID string) (coordination.ConnectionRef, error) {
	raw, ok, err := s.store.Get(ctx, coordination.ConnectionKey(connectionID))
	if err != nil {
		return coordination.ConnectionRef{}, puzzle.WrapOp("read connection index", err)
	}
	if !ok {
		return coordination.ConnectionRef{}, puzzle.NewNotFound("connection", connectionID)
	}
	ref, err := coordination.DecodeConnectionRef(raw)
	if err != nil {
		return coordination.ConnectionRef{}, puzzle.WrapOp("decode connection ref", err)
	}
	return ref, nil
}

// loadSessionPiece loads a session and a piece and checks the piece belongs
// to the session's puzzle.
func (s *Service) loadSessionPiece(ctx context.Context, sessionID, pieceID uuid.UUID) (*puzzle.Session, *puzzle.Piece, error) {
	session, err := s.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, nil, puzzle.WrapOp("load session", err)
	}
	if session == nil {
		return nil, nil, puzzle.NewNotFound("session", sessionID.String())
	}
	piece, err := s.repo.GetPieceByID(ctx, pieceID)
	if err != nil {
		return nil, nil, puzzle.WrapOp("load piece", err)
	}
	if piece == nil || piece.PuzzleID != session.PuzzleID {
		return nil, nil, puzzle.NewNotFound("piece", pieceID.String())
	}
	return session, piece, nil
}

func (s *Service) resolveSession(ctx context.Context, ref string) (*puzzle.Session, error) {
	if sessionID, err := uuid.Parse(ref); err == nil {
		session, err := s.repo.GetSessionByID(ctx, sessionID)
		if err != nil {
			return nil, puzzle.WrapOp("load session", err)
		}
		return session, nil
	}
	session, err := s.repo.GetSessionByJoinCode(ctx, strings.ToUpper(ref))
	if err != nil {
		return nil, puzzle.WrapOp("load session by join code", err)
	}
	return session, nil
}

func (s *Service) ensureThrottle(connectionID string) *cursorThrottle {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.throttles[connectionID]
	if !ok {
		t = newCursorThrottle(s.cfg.CursorRate)
		s.throttles[connectionID] = t
	}
	return t
}

func (s *Service) removeThrottle(connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.throttles, connectionID)
}

func (s *Service) countLock(result string) {
	if s.metrics != nil {
		s.metrics.LockAcquireTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) countRelease(result string) {
	if s.metrics != nil {
		s.metrics.LockReleaseTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) countMove(result string) {
	if s.metrics != nil {
		s.metrics.PieceMoveTotal.WithLabelValues(result).Inc()
	}
}

const joinCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// newJoinCode generates a 6-character human-shareable code.
func newJoinCode() string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}
	return string(buf)
}
