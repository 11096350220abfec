package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	appSession "github.com/puzzlehive/puzzlehive/internal/application/session"
	"github.com/puzzlehive/puzzlehive/internal/domain/puzzle"
)

type createSessionRequest struct {
	PuzzleID        string `json:"puzzle_id"`
	Visibility      string `json:"visibility,omitempty"`
	MaxParticipants int    `json:"max_participants,omitempty"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	puzzleID, err := uuid.Parse(req.PuzzleID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid puzzle_id")
		return
	}

	session, err := s.sessionSvc.CreateSession(r.Context(), appSession.CreateSessionInput{
		PuzzleID:        puzzleID,
		Visibility:      puzzle.SessionVisibility(strings.ToUpper(req.Visibility)),
		MaxParticipants: req.MaxParticipants,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseUUIDParam(r, "sessionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid sessionId")
		return
	}
	session, err := s.sessionSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if session == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "session not found")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) listParticipants(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseUUIDParam(r, "sessionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid sessionId")
		return
	}
	participants, err := s.sessionSvc.ListParticipants(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":   sessionID,
		"participants": participants,
	})
}

func (s *Server) listChatMessages(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseUUIDParam(r, "sessionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid sessionId")
		return
	}
	limit, offset := parseLimitOffset(r, 100, 500)
	messages, err := s.sessionSvc.ListChatMessages(r.Context(), sessionID, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"messages":   messages,
	})
}

type joinSessionRequest struct {
	UserID  string `json:"user_id"`
	Session string `json:"session"`
}

func (s *Server) joinSession(w http.ResponseWriter, r *http.Request) {
	connectionID := chi.URLParam(r, "connectionId")
	var req joinSessionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid user_id")
		return
	}

	session, err := s.sessionSvc.JoinSession(r.Context(), connectionID, userID, req.Session)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"connection_id": connectionID,
		"session":       session,
	})
}

func (s *Server) leaveSession(w http.ResponseWriter, r *http.Request) {
	connectionID := chi.URLParam(r, "connectionId")
	if err := s.sessionSvc.LeaveSession(r.Context(), connectionID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "left"})
}

type movePieceRequest struct {
	UserID   string  `json:"user_id"`
	PieceID  string  `json:"piece_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation,omitempty"`
}

func (s *Server) movePiece(w http.ResponseWriter, r *http.Request) {
	connectionID := chi.URLParam(r, "connectionId")
	var req movePieceRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	userID, pieceID, err := parseUserPiece(req.UserID, req.PieceID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}

	piece, err := s.sessionSvc.MovePiece(r.Context(), connectionID, userID, pieceID, req.X, req.Y, req.Rotation)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, piece)
}

type pieceLockRequest struct {
	UserID  string `json:"user_id"`
	PieceID string `json:"piece_id"`
}

func (s *Server) lockPiece(w http.ResponseWriter, r *http.Request) {
	connectionID := chi.URLParam(r, "connectionId")
	var req pieceLockRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	userID, pieceID, err := parseUserPiece(req.UserID, req.PieceID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}

	piece, err := s.sessionSvc.LockPiece(r.Context(), connectionID, userID, pieceID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, piece)
}

func (s *Server) unlockPiece(w http.ResponseWriter, r *http.Request) {
	connectionID := chi.URLParam(r, "connectionId")
	var req pieceLockRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	userID, pieceID, err := parseUserPiece(req.UserID, req.PieceID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}

	if err := s.sessionSvc.UnlockPiece(r.Context(), connectionID, userID, pieceID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "unlocked"})
}

type chatMessageRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

func (s *Server) sendChatMessage(w http.ResponseWriter, r *http.Request) {
	connectionID := chi.URLParam(r, "connectionId")
	var req chatMessageRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid user_id")
		return
	}

	message, err := s.sessionSvc.SendChatMessage(r.Context(), connectionID, userID, req.Text)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, message)
}

type cursorUpdateRequest struct {
	UserID string  `json:"user_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

func (s *Server) updateCursor(w http.ResponseWriter, r *http.Request) {
	connectionID := chi.URLParam(r, "connectionId")
	var req cursorUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid user_id")
		return
	}

	if err := s.sessionSvc.UpdateCursor(r.Context(), connectionID, userID, req.X, req.Y); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func parseUserPiece(rawUser, rawPiece string) (uuid.UUID, uuid.UUID, error) {
	userID, err := uuid.Parse(rawUser)
	if err != nil {
		return uuid.Nil, uuid.Nil, errInvalid("invalid user_id")
	}
	pieceID, err := uuid.Parse(rawPiece)
	if err != nil {
		return uuid.Nil, uuid.Nil, errInvalid("invalid piece_id")
	}
	return userID, pieceID, nil
}

type apiError struct {
	message string
}

func (e *apiError) Error() string { return e.message }

func errInvalid(message string) error { return &apiError{message: message} }

func parseLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
