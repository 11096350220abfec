package coordination

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Key and channel schema. Everything the coordinator stores or publishes is
// namespaced under "puzzlehive:" so instances can share a store with other
// tenants.
const keyPrefix = "puzzlehive:"

// PieceLockKey is the set-if-absent key arbitrating exclusive edit of a piece.
func PieceLockKey(pieceID uuid.UUID) string {
	return keyPrefix + "piece-lock:" + pieceID.String()
}

// ConnectionKey indexes a live connection to its session so any process can
// resolve disconnect cleanup.
func ConnectionKey(connectionID string) string {
	return keyPrefix + "conn:" + connectionID
}

// SessionSeqKey holds the per-session event sequence counter.
func SessionSeqKey(sessionID uuid.UUID) string {
	return keyPrefix + "session-seq:" + sessionID.String()
}

// EventsChannel carries session event envelopes for cross-process fan-out.
func EventsChannel(sessionID uuid.UUID) string {
	return keyPrefix + "events:" + sessionID.String()
}

// EventsPattern matches every session's events channel.
func EventsPattern() string {
	return keyPrefix + "events:*"
}

// ConnectionRef is the value stored under ConnectionKey. It carries enough to
// run disconnect cleanup on a process that never saw the join.
type ConnectionRef struct {
	SessionID uuid.UUID `json:"sessionId"`
	UserID    uuid.UUID `json:"userId"`
}

// Encode serializes the ref for storage.
func (r ConnectionRef) Encode() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeConnectionRef parses a stored connection ref.
func DecodeConnectionRef(raw string) (ConnectionRef, error) {
	var r ConnectionRef
	err := json.Unmarshal([]byte(raw), &r)
	return r, err
}
