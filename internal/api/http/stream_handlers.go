package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/puzzlehive/puzzlehive/internal/domain/realtime"
)

// streamEndpoint is the long-lived SSE connection. The client supplies its
// user id and optionally a connection id; the returned connection id is what
// every subsequent realtime POST must carry. Frames are written as
// "event:"/"data:" pairs. When the request context ends, cleanup runs exactly
// as for a crashed client: locks released, participant marked offline,
// departure announced.
func (s *Server) streamEndpoint(w http.ResponseWriter, r *http.Request) {
	rawUser := strings.TrimSpace(r.URL.Query().Get("user_id"))
	userID, err := uuid.Parse(rawUser)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid user_id")
		return
	}
	connectionID := strings.TrimSpace(r.URL.Query().Get("connection_id"))
	if connectionID == "" {
		connectionID = uuid.NewString()
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming not supported")
		return
	}

	client := realtime.NewClient(connectionID, userID)
	s.hub.Register(client)
	if s.metrics != nil {
		s.metrics.ConnectionsActive.Inc()
	}
	defer func() {
		// Detach from the request context; cleanup must run even though the
		// request is already gone.
		if err := s.sessionSvc.OnDisconnected(context.Background(), connectionID); err != nil {
			s.logger.Warn().Err(err).Str("connection_id", connectionID).Msg("disconnect cleanup failed")
		}
		s.hub.Unregister(connectionID)
		if s.metrics != nil {
			s.metrics.ConnectionsActive.Dec()
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	hello, _ := json.Marshal(map[string]string{"connectionId": connectionID})
	writeSSEFrame(w, "connected", hello)
	flusher.Flush()

	heartbeat := time.NewTicker(s.heartbeatInterval)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case msg := <-client.Send:
			if msg == nil {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			writeSSEFrame(w, msg.Event, data)
			flusher.Flush()
		case <-heartbeat.C:
			if err := s.sessionSvc.Heartbeat(ctx, connectionID); err != nil {
				s.logger.Warn().Err(err).Str("connection_id", connectionID).Msg("heartbeat failed")
			}
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

func writeSSEFrame(w http.ResponseWriter, event string, data []byte) {
	_, _ = w.Write([]byte("event: "))
	_, _ = w.Write([]byte(event))
	_, _ = w.Write([]byte("\ndata: "))
	_, _ = w.Write(data)
	_, _ = w.Write([]byte("\n\n"))
}
