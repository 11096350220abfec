package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/puzzlehive/puzzlehive/internal/domain/coordination"
	"github.com/puzzlehive/puzzlehive/internal/domain/puzzle"
)

// ReconcileLocks clears durable lock mirrors whose coordination-store entry
// has expired, e.g. after a holder crashed and the TTL ran out without an
// explicit unlock. The cache entry is the source of truth for "locked right
// now"; this keeps the durable mirror from showing pieces perpetually locked
// by users who are gone. Returns how many mirrors were cleared.
func (s *Service) ReconcileLocks(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	pieces, err := s.repo.ListLockedPieces(ctx, limit)
	if err != nil {
		return 0, puzzle.WrapOp("list locked pieces", err)
	}

	held := 0
	cleared := 0
	for _, piece := range pieces {
		_, ok, err := s.store.Get(ctx, coordination.PieceLockKey(piece.PieceID))
		if err != nil {
			s.logger.Warn().Err(err).Str("piece_id", piece.PieceID.String()).Msg("sweep: lock probe failed")
			continue
		}
		if ok {
			held++
			continue
		}
		if err := s.repo.ClearPieceLock(ctx, piece.PieceID); err != nil {
			s.logger.Warn().Err(err).Str("piece_id", piece.PieceID.String()).Msg("sweep: failed to clear stale mirror")
			continue
		}
		cleared++
		session, err := s.repo.GetActiveSessionByPuzzle(ctx, piece.PuzzleID)
		if err == nil && session != nil {
			s.broadcast(ctx, session.SessionID, EventPieceUnlocked, PieceUnlockedEvent{PieceID: piece.PieceID}, "")
		}
	}

	if s.metrics != nil {
		s.metrics.LocksHeld.Set(float64(held))
		if cleared > 0 {
			s.metrics.SweepClearedTotal.Add(float64(cleared))
		}
	}
	return cleared, nil
}

// Sweeper drives ReconcileLocks on a timer, the way lease monitors usually
// run: once at startup and then every interval until the context ends.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	logger   zerolog.Logger
}

func NewSweeper(svc *Service, interval time.Duration, logger zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Sweeper{
		svc:      svc,
		interval: interval,
		logger:   logger.With().Str("component", "lock-sweeper").Logger(),
	}
}

func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweepOnce(ctx)
		}
	}
}

func (w *Sweeper) sweepOnce(ctx context.Context) {
	start := time.Now()
	cleared, err := w.svc.ReconcileLocks(ctx, 200)
	if err != nil {
		w.logger.Warn().Err(err).Msg("lock sweep failed")
		return
	}
	if cleared > 0 {
		w.logger.Info().
			Int("cleared", cleared).
			Dur("elapsed", time.Since(start)).
			Msg("cleared stale lock mirrors")
	}
}
