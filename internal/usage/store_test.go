package usage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestMemoryServiceIncrements(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		got, err := svc.Increment(ctx, "q1")
		if err != nil {
			t.Fatalf("Increment: %v", err)
		}
		if got != i {
			t.Fatalf("expected %d, got %d", i, got)
		}
	}
	all, err := svc.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if all["q1"] != 3 {
		t.Fatalf("expected q1=3, got %d", all["q1"])
	}

	if err := svc.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	all, _ = svc.All(ctx)
	if len(all) != 0 {
		t.Fatalf("expected empty counters after reset, got %v", all)
	}
}

func TestIncrementRejectsEmptyID(t *testing.T) {
	svc := NewMemoryService()
	if _, err := svc.Increment(context.Background(), "  "); err != ErrEmptyQuestionID {
		t.Fatalf("expected ErrEmptyQuestionID, got %v", err)
	}
}

func TestPGStoreIncrement(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("INSERT INTO question_usage").
		WithArgs("q7", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"usage_count"}).AddRow(4))

	svc := NewService(NewPGStore(db))
	got, err := svc.Increment(context.Background(), "q7")
	if err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT question_id, usage_count FROM question_usage").
		WillReturnRows(sqlmock.NewRows([]string{"question_id", "usage_count"}).
			AddRow("q1", 2).
			AddRow("q2", 5))

	all, err := NewPGStore(db).All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if all["q1"] != 2 || all["q2"] != 5 {
		t.Fatalf("unexpected counters: %v", all)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
