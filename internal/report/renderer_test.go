package report

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/habitgrid/habitgrid/internal/tracker"
)

func newTestStore(t *testing.T) *tracker.TrackerService {
	t.Helper()
	svc, err := tracker.NewTrackerService(filepath.Join(t.TempDir(), "tracker.db"))
	if err != nil {
		t.Fatalf("failed to create tracker service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

var testNow = time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)

func render(t *testing.T, svc *tracker.TrackerService, chatID int64) []string {
	t.Helper()
	out, err := NewRenderer(svc, "en").Render(chatID, testNow)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return strings.Split(out, "\n")
}

func TestRenderEmptyChat(t *testing.T) {
	svc := newTestStore(t)

	lines := render(t, svc, 1)
	if len(lines) != 11 {
		t.Fatalf("expected 2 titles + 2 headers + 7 date rows, got %d lines", len(lines))
	}
	if lines[0] != "calendar" {
		t.Fatalf("title line: %q", lines[0])
	}
	if lines[1] != "month: May" {
		t.Fatalf("month line: %q", lines[1])
	}
	if lines[2] != "  " || lines[3] != "  " {
		t.Fatalf("expected bare two-space header rows, got %q %q", lines[2], lines[3])
	}
	wantDays := []string{"4", "5", "6", "7", "8", "9", "10"}
	for i, day := range wantDays {
		if lines[4+i] != day {
			t.Fatalf("date row %d: got %q want %q", i, lines[4+i], day)
		}
	}
}

func TestRenderSingleUserSingleHabit(t *testing.T) {
	svc := newTestStore(t)

	if err := svc.UpsertUser(1, 42, "👤", "U"); err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	if err := svc.UpsertHabit(1, "reading", "📚", "H"); err != nil {
		t.Fatalf("upsert habit: %v", err)
	}
	if err := svc.SetEntry(1, 42, "reading", "2024-05-10", tracker.StatusDone); err != nil {
		t.Fatalf("set entry: %v", err)
	}

	lines := render(t, svc, 1)
	if lines[2] != "  👤" {
		t.Fatalf("user header: %q", lines[2])
	}
	if lines[3] != "  📚" {
		t.Fatalf("habit header: %q", lines[3])
	}
	// Six untouched days render unknown, today renders done.
	for i := 0; i < 6; i++ {
		if !strings.HasSuffix(lines[4+i], GlyphUnknown) {
			t.Fatalf("day row %d should end in unknown glyph: %q", i, lines[4+i])
		}
	}
	if lines[10] != "10"+GlyphDone {
		t.Fatalf("today row: %q", lines[10])
	}
}

func TestRenderColumnOrderAndGrouping(t *testing.T) {
	svc := newTestStore(t)

	// User 1 owns habits a and b, user 2 owns habit c.
	if err := svc.UpsertUser(1, 1, "🅰", "A"); err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	if err := svc.UpsertUser(1, 2, "🅱", "B"); err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	for habit, emoji := range map[string]string{"a": "1️⃣", "b": "2️⃣", "c": "3️⃣"} {
		if err := svc.UpsertHabit(1, habit, emoji, habit); err != nil {
			t.Fatalf("upsert habit: %v", err)
		}
	}
	if err := svc.SetEntry(1, 1, "b", "2024-05-10", tracker.StatusDone); err != nil {
		t.Fatalf("set entry: %v", err)
	}
	if err := svc.SetEntry(1, 1, "a", "2024-05-10", tracker.StatusNotDone); err != nil {
		t.Fatalf("set entry: %v", err)
	}
	if err := svc.SetEntry(1, 2, "c", "2024-05-09", tracker.StatusDone); err != nil {
		t.Fatalf("set entry: %v", err)
	}

	lines := render(t, svc, 1)
	if lines[2] != "  🅰🅰🅱" {
		t.Fatalf("user header should group repeated emoji: %q", lines[2])
	}
	if lines[3] != "  1️⃣2️⃣3️⃣" {
		t.Fatalf("habit header order: %q", lines[3])
	}
	// Columns are (1,a) (1,b) (2,c): today's row shows notdone, done, unknown.
	if lines[10] != "10"+GlyphNotDone+GlyphDone+GlyphUnknown {
		t.Fatalf("today row: %q", lines[10])
	}
	// Yesterday only (2,c) is marked.
	if lines[9] != "9"+GlyphUnknown+GlyphUnknown+GlyphDone {
		t.Fatalf("yesterday row: %q", lines[9])
	}
}

func TestRenderHeaderAndDateRowsAligned(t *testing.T) {
	svc := newTestStore(t)

	for _, habit := range []string{"a", "b", "c"} {
		if err := svc.SetEntry(1, 5, habit, "2024-05-08", tracker.StatusDone); err != nil {
			t.Fatalf("set entry: %v", err)
		}
	}
	if err := svc.SetEntry(1, 9, "z", "2024-05-08", tracker.StatusDone); err != nil {
		t.Fatalf("set entry: %v", err)
	}

	lines := render(t, svc, 1)
	habitCells := []rune(strings.TrimPrefix(lines[3], headerIndent))
	userCells := []rune(strings.TrimPrefix(lines[2], headerIndent))
	if len(habitCells) != 4 || len(userCells) != 4 {
		t.Fatalf("expected 4 columns in both headers, got %d and %d", len(userCells), len(habitCells))
	}
	for i := 4; i < len(lines); i++ {
		day := strings.TrimLeft(lines[i], "0123456789")
		if got := len([]rune(day)); got != 4 {
			t.Fatalf("date row %d has %d glyphs, want 4: %q", i, got, lines[i])
		}
	}
}

func TestRenderMissingMetadataUsesPlaceholder(t *testing.T) {
	svc := newTestStore(t)

	// Entry without any metadata rows: both headers fall back to ❓.
	if err := svc.SetEntry(1, 7, "ghost", "2024-05-10", tracker.StatusDone); err != nil {
		t.Fatalf("set entry: %v", err)
	}

	lines := render(t, svc, 1)
	if lines[2] != "  "+GlyphPlaceholder {
		t.Fatalf("user header: %q", lines[2])
	}
	if lines[3] != "  "+GlyphPlaceholder {
		t.Fatalf("habit header: %q", lines[3])
	}
	if lines[10] != "10"+GlyphDone {
		t.Fatalf("today row: %q", lines[10])
	}
}

func TestRenderColumnPersistsOutsideWindow(t *testing.T) {
	svc := newTestStore(t)

	// The habit was last marked long before the window; its column stays.
	if err := svc.SetEntry(1, 7, "old", "2023-01-01", tracker.StatusDone); err != nil {
		t.Fatalf("set entry: %v", err)
	}

	lines := render(t, svc, 1)
	if lines[3] != "  "+GlyphPlaceholder {
		t.Fatalf("expected historical column in header, got %q", lines[3])
	}
	for i := 4; i < len(lines); i++ {
		if !strings.HasSuffix(lines[i], GlyphUnknown) {
			t.Fatalf("row %d should be unknown inside window: %q", i, lines[i])
		}
	}
}

func TestRenderMonthLocale(t *testing.T) {
	svc := newTestStore(t)

	out, err := NewRenderer(svc, "ru").Render(1, testNow)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if lines := strings.Split(out, "\n"); lines[1] != "month: Май" {
		t.Fatalf("russian month line: %q", lines[1])
	}
}

func TestRenderWindowCrossesMonthBoundary(t *testing.T) {
	svc := newTestStore(t)

	now := time.Date(2024, time.June, 2, 9, 0, 0, 0, time.UTC)
	out, err := NewRenderer(svc, "en").Render(1, now)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(out, "\n")
	if lines[1] != "month: June" {
		t.Fatalf("month line: %q", lines[1])
	}
	wantDays := []string{"27", "28", "29", "30", "31", "1", "2"}
	for i, day := range wantDays {
		if lines[4+i] != day {
			t.Fatalf("date row %d: got %q want %q", i, lines[4+i], day)
		}
	}
}
