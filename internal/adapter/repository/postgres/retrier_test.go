package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

func newTestRetrier() *Retrier {
	r := NewRetrier(zerolog.Nop())
	r.initialInterval = 1
	r.maxInterval = 1
	return r
}

func TestRetrierSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := newTestRetrier().Retry(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetrierRetriesDeadlock(t *testing.T) {
	calls := 0
	err := newTestRetrier().Retry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: pgErrDeadlock}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetrierStopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := errors.New("constraint violation")
	err := newTestRetrier().Retry(context.Background(), func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected the original error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetrierGivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	serialization := &pgconn.PgError{Code: pgErrSerializationFailure}
	err := newTestRetrier().Retry(context.Background(), func() error {
		calls++
		return serialization
	})
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		t.Fatalf("expected pg error, got %v", err)
	}
	// Initial attempt plus maxRetries.
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
}
