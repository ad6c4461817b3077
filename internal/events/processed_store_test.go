package events

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestProcessedStore_MarkProcessed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newProcessedStoreWithExec(mock)

	mock.ExpectExec("INSERT INTO processed_events").WithArgs("instagram", "mid.1").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	ok, err := store.MarkProcessed(context.Background(), "instagram", "mid.1")
	if err != nil || !ok {
		t.Fatalf("expected first delivery to be new, got %v %v", ok, err)
	}

	mock.ExpectExec("INSERT INTO processed_events").WithArgs("instagram", "mid.1").WillReturnResult(pgxmock.NewResult("INSERT", 0))
	ok, err = store.MarkProcessed(context.Background(), "instagram", "mid.1")
	if err != nil || ok {
		t.Fatalf("expected duplicate delivery to be rejected, got %v %v", ok, err)
	}

	mock.ExpectExec("INSERT INTO processed_events").WithArgs("instagram", "mid.2").WillReturnError(errors.New("connection reset"))
	if _, err := store.MarkProcessed(context.Background(), "instagram", "mid.2"); err == nil {
		t.Fatal("expected error from failed insert")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProcessedStore_PurgeOlderThan(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newProcessedStoreWithExec(mock)
	cutoff := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("DELETE FROM processed_events").WithArgs(cutoff).WillReturnResult(pgxmock.NewResult("DELETE", 7))
	removed, err := store.PurgeOlderThan(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 7 {
		t.Fatalf("expected 7 rows removed, got %d", removed)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProcessedStore_RunPurgerStopsOnCancel(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("DELETE FROM processed_events").WithArgs(pgxmock.AnyArg()).WillReturnResult(pgxmock.NewResult("DELETE", 2))

	store := newProcessedStoreWithExec(mock)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.RunPurger(ctx, time.Hour, 10*time.Millisecond, nil)
		close(done)
	}()

	deadline := time.After(time.Second)
	for mock.ExpectationsWereMet() != nil {
		select {
		case <-deadline:
			cancel()
			t.Fatal("purger never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("purger did not stop after cancel")
	}
}
