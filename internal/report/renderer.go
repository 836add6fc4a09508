// Package report renders the weekly habit calendar as a fixed-width text
// grid. It only reads through the tracker store and keeps no state between
// renders.
package report

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/habitgrid/habitgrid/internal/tracker"
)

// Status glyphs of a single grid cell.
const (
	GlyphDone        = "✅"
	GlyphNotDone     = "⛔"
	GlyphUnknown     = "🔘"
	GlyphPlaceholder = "❓"
)

// WindowDays is the rendered trailing window: today plus the six days
// before it.
const WindowDays = 7

// headerIndent offsets the two emoji header rows from the day numbers that
// lead every date row.
const headerIndent = "  "

var monthNamesRU = [12]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

func monthName(m time.Month, locale string) string {
	if locale == "ru" {
		return monthNamesRU[m-1]
	}
	return m.String()
}

// Renderer produces the calendar text for one chat.
type Renderer struct {
	store  *tracker.TrackerService
	locale string
}

func NewRenderer(store *tracker.TrackerService, locale string) *Renderer {
	return &Renderer{store: store, locale: locale}
}

// column is one (user, habit) pair, the unit of horizontal layout.
type column struct {
	userID  int64
	habitID string
}

type entryKey struct {
	userID  int64
	habitID string
	date    string
}

// Render builds the calendar for the trailing 7-day window ending at now.
// Output is deterministic for a fixed (chatID, now, store state); missing
// metadata falls back to the placeholder glyph instead of failing. The
// caller is responsible for monospace presentation.
func (r *Renderer) Render(chatID int64, now time.Time) (string, error) {
	today := now
	dateEnd := today.Format(tracker.DateLayout)
	dateStart := today.AddDate(0, 0, -(WindowDays - 1)).Format(tracker.DateLayout)

	pairs, err := r.store.ListUserHabitPairs(chatID)
	if err != nil {
		return "", err
	}
	users, err := r.store.ListUsers(chatID)
	if err != nil {
		return "", err
	}
	habits, err := r.store.ListHabits(chatID)
	if err != nil {
		return "", err
	}
	entries, err := r.store.ListEntriesInRange(chatID, dateStart, dateEnd)
	if err != nil {
		return "", err
	}

	userEmoji := make(map[int64]string, len(users))
	for _, u := range users {
		userEmoji[u.UserID] = u.Emoji
	}
	habitEmoji := make(map[string]string, len(habits))
	for _, h := range habits {
		habitEmoji[h.HabitID] = h.Emoji
	}

	// Column order: users ascending, then each user's habits ascending.
	// The same flattened order aligns both header rows and every date row.
	userIDs := make([]int64, 0, len(pairs))
	for id := range pairs {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	var columns []column
	var userRow strings.Builder
	userRow.WriteString(headerIndent)
	var habitRow strings.Builder
	habitRow.WriteString(headerIndent)
	for _, userID := range userIDs {
		habitIDs := pairs[userID]
		emoji, ok := userEmoji[userID]
		if !ok {
			emoji = GlyphPlaceholder
		}
		// The user emoji repeats once per owned habit column, grouping the
		// user's columns visually.
		userRow.WriteString(strings.Repeat(emoji, len(habitIDs)))
		for _, habitID := range habitIDs {
			columns = append(columns, column{userID: userID, habitID: habitID})
			emoji, ok := habitEmoji[habitID]
			if !ok {
				emoji = GlyphPlaceholder
			}
			habitRow.WriteString(emoji)
		}
	}

	marks := make(map[entryKey]tracker.Status, len(entries))
	for _, e := range entries {
		marks[entryKey{userID: e.UserID, habitID: e.HabitID, date: e.Date}] = e.Status
	}

	lines := []string{
		"calendar",
		"month: " + monthName(today.Month(), r.locale),
		userRow.String(),
		habitRow.String(),
	}
	for i := 0; i < WindowDays; i++ {
		date := today.AddDate(0, 0, -(WindowDays - 1 - i))
		var row strings.Builder
		row.WriteString(strconv.Itoa(date.Day()))
		dateStr := date.Format(tracker.DateLayout)
		for _, col := range columns {
			switch marks[entryKey{userID: col.userID, habitID: col.habitID, date: dateStr}] {
			case tracker.StatusDone:
				row.WriteString(GlyphDone)
			case tracker.StatusNotDone:
				row.WriteString(GlyphNotDone)
			default:
				row.WriteString(GlyphUnknown)
			}
		}
		lines = append(lines, row.String())
	}
	return strings.Join(lines, "\n"), nil
}
