package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	appSession "github.com/puzzlehive/puzzlehive/internal/application/session"
	"github.com/puzzlehive/puzzlehive/internal/domain/puzzle"
	"github.com/puzzlehive/puzzlehive/internal/domain/realtime"
	"github.com/puzzlehive/puzzlehive/internal/obs"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	sessionSvc        *appSession.Service
	hub               realtime.Hub
	metrics           *obs.Metrics
	logger            zerolog.Logger
	heartbeatInterval time.Duration
}

func NewServer(sessionSvc *appSession.Service, hub realtime.Hub, metrics *obs.Metrics, logger zerolog.Logger, heartbeatInterval time.Duration) *Server {
	if heartbeatInterval <= 0 {
		heartbeatInterval = 30 * time.Second
	}
	return &Server{
		sessionSvc:        sessionSvc,
		hub:               hub,
		metrics:           metrics,
		logger:            logger.With().Str("component", "http").Logger(),
		heartbeatInterval: heartbeatInterval,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			r.Post("/", s.createSession)
			r.Get("/{sessionId}", s.getSession)
			r.Get("/{sessionId}/participants", s.listParticipants)
			r.Get("/{sessionId}/chat", s.listChatMessages)
		})

		r.Route("/realtime", func(r chi.Router) {
			// The stream endpoint outlives any sane timeout; everything else
			// gets the standard one.
			r.Get("/stream", s.streamEndpoint)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(30 * time.Second))
				r.Route("/{connectionId}", func(r chi.Router) {
					r.Post("/join", s.joinSession)
					r.Post("/leave", s.leaveSession)
					r.Post("/move", s.movePiece)
					r.Post("/lock", s.lockPiece)
					r.Post("/unlock", s.unlockPiece)
					r.Post("/chat", s.sendChatMessage)
					r.Post("/cursor", s.updateCursor)
				})
			})
		})
	})

	return r
}

// Helpers
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

// respondServiceError maps the coordinator's error taxonomy onto HTTP. Lock
// conflicts carry the holder so clients can show who has the piece.
func respondServiceError(w http.ResponseWriter, err error) {
	var notFound *puzzle.NotFoundError
	var capacity *puzzle.CapacityError
	var conflict *puzzle.ConflictError
	var authz *puzzle.AuthorizationError
	var op *puzzle.OperationError

	switch {
	case errors.As(err, &notFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", notFound.Error())
	case errors.As(err, &capacity):
		respondError(w, http.StatusConflict, "SESSION_FULL", capacity.Error())
	case errors.As(err, &conflict):
		respondJSON(w, http.StatusConflict, map[string]interface{}{
			"error":          "LOCK_HELD",
			"message":        conflict.Error(),
			"pieceId":        conflict.PieceID,
			"lockedByUserId": conflict.HolderID,
		})
	case errors.As(err, &authz):
		respondError(w, http.StatusForbidden, "FORBIDDEN", authz.Error())
	case errors.Is(err, puzzle.ErrPiecePlaced):
		respondError(w, http.StatusConflict, "PIECE_PLACED", err.Error())
	case errors.As(err, &op):
		respondError(w, http.StatusInternalServerError, "OPERATION_FAILED", op.Error())
	default:
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
	}
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
