package repo

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/eokafor/go-pharmacy-backend/internal/domain"
)

func TestCreateSession_Defaults(t *testing.T) {
	db := testDB(t)
	s, err := CreateSession(context.Background(), db, "user000000000001")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.ID == "" {
		t.Fatal("session id not assigned")
	}
	if s.Status != domain.SessionActive {
		t.Fatalf("status = %q, want active", s.Status)
	}
	if s.StartedAt.IsZero() {
		t.Fatal("started_at not set")
	}
	if s.EndedAt != nil {
		t.Fatal("ended_at set on fresh session")
	}
}

func TestLatestActiveSession_PicksNewest(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	const uid = "user000000000001"

	first, err := CreateSession(ctx, db, uid)
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if err := EndSession(ctx, db, first.ID); err != nil {
		t.Fatalf("end first: %v", err)
	}
	second, err := CreateSession(ctx, db, uid)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	got, err := LatestActiveSession(ctx, db, uid)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.ID != second.ID {
		t.Fatalf("latest = %q, want %q", got.ID, second.ID)
	}
}

func TestLatestActiveSession_NoneActive(t *testing.T) {
	db := testDB(t)
	_, err := LatestActiveSession(context.Background(), db, "user000000000001")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestEndSession_CompareAndSwap(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	s, err := CreateSession(ctx, db, "user000000000001")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := EndSession(ctx, db, s.ID); err != nil {
		t.Fatalf("first end: %v", err)
	}

	got, err := GetSession(ctx, db, s.ID, "user000000000001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.SessionCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
	if got.EndedAt == nil {
		t.Fatal("ended_at not set")
	}

	// Ending a completed session is a no-row update.
	if err := EndSession(ctx, db, s.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("second end err = %v, want ErrRecordNotFound", err)
	}
}

func TestEndSession_UnknownID(t *testing.T) {
	db := testDB(t)
	err := EndSession(context.Background(), db, "does-not-exist")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
}
