package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puzzlehive/puzzlehive/internal/domain/coordination"
	"github.com/puzzlehive/puzzlehive/internal/domain/puzzle"
)

func TestReconcileLocksClearsStaleMirrors(t *testing.T) {
	env := newTestEnv(Config{})
	session := env.seedSession(t, 2, 4)
	pieceIDs := env.pieceIDs(t, session.PuzzleID)
	ctx := context.Background()

	crashed := uuid.New()
	live := uuid.New()
	now := time.Now().UTC()

	// Stale: durable mirror set, no cache entry (holder crashed, TTL lapsed).
	require.NoError(t, env.repo.SetPieceLock(ctx, pieceIDs[0], crashed, now))

	// Live: both tiers agree.
	require.NoError(t, env.repo.SetPieceLock(ctx, pieceIDs[1], live, now))
	ok, err := env.store.SetIfAbsent(ctx, coordination.PieceLockKey(pieceIDs[1]), live.String(), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	observer, _ := env.connect(t, session.SessionID.String(), uuid.New())

	cleared, err := env.svc.ReconcileLocks(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)

	stale, err := env.repo.GetPieceByID(ctx, pieceIDs[0])
	require.NoError(t, err)
	assert.Nil(t, stale.LockedBy)

	kept, err := env.repo.GetPieceByID(ctx, pieceIDs[1])
	require.NoError(t, err)
	require.NotNil(t, kept.LockedBy)
	assert.Equal(t, live, *kept.LockedBy)

	messages := drainClient(observer)
	assert.Equal(t, 1, countEvents(messages, EventPieceUnlocked))

	// A freed piece is immediately claimable.
	user := uuid.New()
	_, connectionID := env.connect(t, session.SessionID.String(), user)
	_, err = env.svc.LockPiece(ctx, connectionID, user, pieceIDs[0])
	require.NoError(t, err)
}

func TestReconcileLocksNothingStale(t *testing.T) {
	env := newTestEnv(Config{})
	session := env.seedSession(t, 1, 4)
	pieceID := env.pieceIDs(t, session.PuzzleID)[0]
	ctx := context.Background()

	user := uuid.New()
	_, connectionID := env.connect(t, session.SessionID.String(), user)
	_, err := env.svc.LockPiece(ctx, connectionID, user, pieceID)
	require.NoError(t, err)

	cleared, err := env.svc.ReconcileLocks(ctx, 100)
	require.NoError(t, err)
	assert.Zero(t, cleared)

	piece, err := env.repo.GetPieceByID(ctx, pieceID)
	require.NoError(t, err)
	assert.NotNil(t, piece.LockedBy)
}

func TestSweeperRunStops(t *testing.T) {
	env := newTestEnv(Config{})
	sw := NewSweeper(env.svc, 5*time.Millisecond, env.svc.logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop with its context")
	}
}

// Expired TTL in the shared store is what makes a lock stale end-to-end.
func TestLockExpiryFreesPiece(t *testing.T) {
	env := newTestEnv(Config{LockTTL: 10 * time.Millisecond})
	session := env.seedSession(t, 1, 4)
	pieceID := env.pieceIDs(t, session.PuzzleID)[0]
	ctx := context.Background()

	holder := uuid.New()
	_, holderConn := env.connect(t, session.SessionID.String(), holder)
	_, err := env.svc.LockPiece(ctx, holderConn, holder, pieceID)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	claimant := uuid.New()
	_, claimantConn := env.connect(t, session.SessionID.String(), claimant)
	piece, err := env.svc.LockPiece(ctx, claimantConn, claimant, pieceID)
	require.NoError(t, err, "expired lock must be claimable")
	require.NotNil(t, piece.LockedBy)
	assert.Equal(t, claimant, *piece.LockedBy)
}

var _ puzzle.Repository = (*fakeRepo)(nil)
