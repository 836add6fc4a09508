package seed

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/habitgrid/habitgrid/internal/tracker"
)

func newTestStore(t *testing.T) *tracker.TrackerService {
	t.Helper()
	store, err := tracker.NewTrackerService(filepath.Join(t.TempDir(), "tracker.db"))
	if err != nil {
		t.Fatalf("open tracker: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestApplySeedsChat(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)

	if err := Apply(store, -100, now); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	habits, err := store.ListHabits(-100)
	if err != nil {
		t.Fatalf("ListHabits: %v", err)
	}
	if len(habits) != 8 {
		t.Fatalf("expected 8 habits, got %d", len(habits))
	}
	users, err := store.ListUsers(-100)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 5 {
		t.Fatalf("expected 5 users, got %d", len(users))
	}

	pairs, err := store.ListUserHabitPairs(-100)
	if err != nil {
		t.Fatalf("ListUserHabitPairs: %v", err)
	}
	if len(pairs) != 5 {
		t.Fatalf("expected pairs for 5 users, got %d", len(pairs))
	}
	if got := len(pairs[496486645]); got != 3 {
		t.Fatalf("expected 3 habits for first user, got %d", got)
	}
	if got := len(pairs[1069094241]); got != 1 {
		t.Fatalf("expected 1 habit for last user, got %d", got)
	}

	// Window covers the trailing 7 days ending today.
	status, err := store.GetEntry(-100, 496486645, "reading", "2024-05-04")
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if status != tracker.StatusNotDone {
		t.Fatalf("expected not done, got %v", status)
	}
	status, err = store.GetEntry(-100, 496486645, "reading", "2024-05-10")
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if status != tracker.StatusNotDone {
		t.Fatalf("expected not done, got %v", status)
	}
}

func TestApplyIdempotent(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)

	if err := Apply(store, -100, now); err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	// Mark something, then re-apply: the mark must survive.
	if err := store.SetEntry(-100, 496486645, "reading", "2024-05-10", tracker.StatusDone); err != nil {
		t.Fatalf("SetEntry: %v", err)
	}
	if err := Apply(store, -100, now); err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	status, err := store.GetEntry(-100, 496486645, "reading", "2024-05-10")
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if status != tracker.StatusDone {
		t.Fatalf("re-apply must not clobber marks, got %v", status)
	}
}

func TestApplyScopedByChat(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)

	if err := Apply(store, -100, now); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	habits, err := store.ListHabits(-200)
	if err != nil {
		t.Fatalf("ListHabits: %v", err)
	}
	if len(habits) != 0 {
		t.Fatalf("other chat should be empty, got %d habits", len(habits))
	}
}
