package session

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/puzzlehive/puzzlehive/internal/domain/coordination"
	"github.com/puzzlehive/puzzlehive/internal/domain/realtime"
)

// Relay fans events published by other processes into the local hub. The
// group registry is process-local, so when several server processes host
// connections for the same session, each runs a relay subscribed to the
// shared event channels.
type Relay struct {
	store  coordination.Store
	hub    realtime.Hub
	logger zerolog.Logger

	// processID matches the owning Service; envelopes it published are
	// already delivered locally and get skipped.
	processID string
}

// NewRelay builds the fan-out relay for a coordinator.
func NewRelay(store coordination.Store, hub realtime.Hub, svc *Service, logger zerolog.Logger) *Relay {
	return &Relay{
		store:     store,
		hub:       hub,
		logger:    logger.With().Str("component", "relay").Logger(),
		processID: svc.processID,
	}
}

// Start subscribes to every session's event channel. The returned function
// cancels the subscription.
func (r *Relay) Start(ctx context.Context) (func(), error) {
	return r.store.Subscribe(ctx, coordination.EventsPattern(), r.handle)
}

func (r *Relay) handle(channel string, payload []byte) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		r.logger.Warn().Err(err).Str("channel", channel).Msg("dropping malformed envelope")
		return
	}
	if env.Message == nil {
		return
	}
	if env.Origin != "" && env.Origin == r.processID {
		return
	}
	r.hub.Broadcast(env.SessionID.String(), env.Message, env.Exclude)
}
