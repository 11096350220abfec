package puzzle

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestWithinSnap(t *testing.T) {
	p := &Piece{CorrectX: 100, CorrectY: 200}

	if !p.WithinSnap(100, 200, 0, 20) {
		t.Fatal("exact position should snap")
	}
	if !p.WithinSnap(110, 210, 0, 20) {
		t.Fatal("within tolerance should snap")
	}
	if p.WithinSnap(100, 225, 0, 20) {
		t.Fatal("beyond tolerance should not snap")
	}
	if p.WithinSnap(100, 200, 90, 20) {
		t.Fatal("rotated piece should not snap")
	}
	if !p.WithinSnap(100, 200, 360, 20) {
		t.Fatal("full turn counts as aligned")
	}
	if !p.WithinSnap(100, 200, -0.5, 20) {
		t.Fatal("sub-degree jitter counts as aligned")
	}
	if !p.WithinSnap(114, 214, 0, 20) {
		t.Fatal("diagonal offset inside the radius should snap")
	}
	if p.WithinSnap(115, 215, 0, 20) {
		t.Fatal("diagonal offset outside the radius should not snap")
	}
}

func TestLockedByOther(t *testing.T) {
	me := uuid.New()
	other := uuid.New()

	p := &Piece{}
	if p.LockedByOther(me) {
		t.Fatal("unlocked piece is not locked by other")
	}
	p.LockedBy = &me
	if p.LockedByOther(me) {
		t.Fatal("own lock is not locked by other")
	}
	p.LockedBy = &other
	if !p.LockedByOther(me) {
		t.Fatal("expected locked by other")
	}
}

func TestProgress(t *testing.T) {
	if got := Progress(0, 0); got != 0 {
		t.Fatalf("empty puzzle: got %v", got)
	}
	if got := Progress(0, 100); got != 0 {
		t.Fatalf("nothing placed: got %v", got)
	}
	if got := Progress(25, 100); got != 25 {
		t.Fatalf("quarter placed: got %v", got)
	}
	if got := Progress(100, 100); got != 100 {
		t.Fatalf("all placed: got %v", got)
	}
	if got := Progress(150, 100); got != 100 {
		t.Fatalf("progress never exceeds 100: got %v", got)
	}
}

func TestSessionIsCompleted(t *testing.T) {
	s := &Session{Status: SessionStatusActive}
	if s.IsCompleted() {
		t.Fatal("active session is not completed")
	}
	s.Status = SessionStatusCompleted
	if !s.IsCompleted() {
		t.Fatal("expected completed")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	var notFound *NotFoundError
	if !errors.As(NewNotFound("session", "abc"), &notFound) {
		t.Fatal("expected NotFoundError")
	}
	if notFound.Kind != "session" {
		t.Fatalf("unexpected kind %q", notFound.Kind)
	}

	holder := uuid.New()
	conflict := &ConflictError{PieceID: uuid.New(), HolderID: holder}
	var asConflict *ConflictError
	if !errors.As(error(conflict), &asConflict) {
		t.Fatal("expected ConflictError")
	}
	if asConflict.HolderID != holder {
		t.Fatal("conflict must carry the holder")
	}

	inner := errors.New("connection refused")
	wrapped := WrapOp("acquire piece lock", inner)
	if !errors.Is(wrapped, inner) {
		t.Fatal("OperationError must unwrap to the cause")
	}
	if WrapOp("noop", nil) != nil {
		t.Fatal("WrapOp must pass nil through")
	}
}
