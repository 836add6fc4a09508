// Package tracker owns the persisted habit-tracker state: habit and user
// metadata plus the tri-state daily marks, all scoped by chat id.
package tracker

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// TrackerService is the sole writer of the tracker tables. Each method is
// one atomic statement or one read-only query; there is no cross-call
// transaction and no in-process cache.
type TrackerService struct {
	db *sql.DB
}

func NewTrackerService(dbPath string) (*TrackerService, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open tracker db: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &TrackerService{db: db}, nil
}

// DB returns the underlying *sql.DB for shared access.
func (s *TrackerService) DB() *sql.DB { return s.db }

func (s *TrackerService) Close() error {
	return s.db.Close()
}

// --- Habit metadata ---

// UpsertHabit creates or overwrites the habit metadata row for
// (chatID, habitID). Idempotent.
func (s *TrackerService) UpsertHabit(chatID int64, habitID, emoji, name string) error {
	if strings.TrimSpace(habitID) == "" {
		return invalidArgf("habit id is empty")
	}
	_, err := s.db.Exec(`
		INSERT INTO habits (chat_id, habit_id, emoji, name)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(chat_id, habit_id) DO UPDATE SET emoji = excluded.emoji, name = excluded.name
	`, chatID, habitID, emoji, name)
	if err != nil {
		return storageErr("upsert habit", err)
	}
	return nil
}

func (s *TrackerService) GetHabit(chatID int64, habitID string) (*Habit, error) {
	var h Habit
	h.ChatID = chatID
	err := s.db.QueryRow(`
		SELECT habit_id, emoji, name, created_at FROM habits
		WHERE chat_id = ? AND habit_id = ?
	`, chatID, habitID).Scan(&h.HabitID, &h.Emoji, &h.Name, &h.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("habit %q: %w", habitID, ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("get habit", err)
	}
	return &h, nil
}

// ListHabits returns all habit metadata for the chat ordered by habit id.
func (s *TrackerService) ListHabits(chatID int64) ([]Habit, error) {
	rows, err := s.db.Query(`
		SELECT habit_id, emoji, name, created_at FROM habits
		WHERE chat_id = ?
		ORDER BY habit_id ASC
	`, chatID)
	if err != nil {
		return nil, storageErr("list habits", err)
	}
	defer rows.Close()

	var habits []Habit
	for rows.Next() {
		h := Habit{ChatID: chatID}
		if err := rows.Scan(&h.HabitID, &h.Emoji, &h.Name, &h.CreatedAt); err != nil {
			return nil, storageErr("list habits", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list habits", err)
	}
	return habits, nil
}

// --- User metadata ---

// UpsertUser creates or overwrites the user metadata row for
// (chatID, userID) and bumps updated_at.
func (s *TrackerService) UpsertUser(chatID, userID int64, emoji, name string) error {
	_, err := s.db.Exec(`
		INSERT INTO users (chat_id, user_id, emoji, name, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(chat_id, user_id) DO UPDATE SET emoji = excluded.emoji, name = excluded.name, updated_at = CURRENT_TIMESTAMP
	`, chatID, userID, emoji, name)
	if err != nil {
		return storageErr("upsert user", err)
	}
	return nil
}

func (s *TrackerService) GetUser(chatID, userID int64) (*User, error) {
	var u User
	u.ChatID = chatID
	err := s.db.QueryRow(`
		SELECT user_id, emoji, name, created_at, updated_at FROM users
		WHERE chat_id = ? AND user_id = ?
	`, chatID, userID).Scan(&u.UserID, &u.Emoji, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("get user", err)
	}
	return &u, nil
}

// ListUsers returns all user metadata for the chat ordered by user id.
func (s *TrackerService) ListUsers(chatID int64) ([]User, error) {
	rows, err := s.db.Query(`
		SELECT user_id, emoji, name, created_at, updated_at FROM users
		WHERE chat_id = ?
		ORDER BY user_id ASC
	`, chatID)
	if err != nil {
		return nil, storageErr("list users", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u := User{ChatID: chatID}
		if err := rows.Scan(&u.UserID, &u.Emoji, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, storageErr("list users", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list users", err)
	}
	return users, nil
}

// --- Tracker entries ---

func validDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return invalidArgf("date %q is not YYYY-MM-DD", date)
	}
	return nil
}

// SetEntry writes the tri-state mark for one (user, habit, date). Done and
// NotDone upsert the row and bump updated_at; Unknown deletes it (a no-op
// when the row was already absent).
func (s *TrackerService) SetEntry(chatID, userID int64, habitID, date string, status Status) error {
	if strings.TrimSpace(habitID) == "" {
		return invalidArgf("habit id is empty")
	}
	if err := validDate(date); err != nil {
		return err
	}
	switch status {
	case StatusUnknown:
		_, err := s.db.Exec(`
			DELETE FROM tracker_entries
			WHERE chat_id = ? AND user_id = ? AND habit_id = ? AND date = ?
		`, chatID, userID, habitID, date)
		if err != nil {
			return storageErr("delete entry", err)
		}
		return nil
	case StatusDone, StatusNotDone:
		val := 0
		if status == StatusDone {
			val = 1
		}
		_, err := s.db.Exec(`
			INSERT INTO tracker_entries (chat_id, user_id, habit_id, date, status, updated_at)
			VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(chat_id, user_id, habit_id, date) DO UPDATE SET status = excluded.status, updated_at = CURRENT_TIMESTAMP
		`, chatID, userID, habitID, date, val)
		if err != nil {
			return storageErr("upsert entry", err)
		}
		return nil
	}
	return invalidArgf("status %d outside tri-state domain", status)
}

// GetEntry returns the stored mark, or StatusUnknown when no row exists.
// A missing row is the defined representation of Unknown, not an error.
func (s *TrackerService) GetEntry(chatID, userID int64, habitID, date string) (Status, error) {
	if err := validDate(date); err != nil {
		return StatusUnknown, err
	}
	var val int
	err := s.db.QueryRow(`
		SELECT status FROM tracker_entries
		WHERE chat_id = ? AND user_id = ? AND habit_id = ? AND date = ?
	`, chatID, userID, habitID, date).Scan(&val)
	if err == sql.ErrNoRows {
		return StatusUnknown, nil
	}
	if err != nil {
		return StatusUnknown, storageErr("get entry", err)
	}
	if val == 1 {
		return StatusDone, nil
	}
	return StatusNotDone, nil
}

// ListEntriesInRange returns every stored entry for the chat with
// dateStart <= date <= dateEnd, ordered by (user_id, habit_id, date).
func (s *TrackerService) ListEntriesInRange(chatID int64, dateStart, dateEnd string) ([]Entry, error) {
	if err := validDate(dateStart); err != nil {
		return nil, err
	}
	if err := validDate(dateEnd); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`
		SELECT user_id, habit_id, date, status
		FROM tracker_entries
		WHERE chat_id = ? AND date >= ? AND date <= ?
		ORDER BY user_id, habit_id, date
	`, chatID, dateStart, dateEnd)
	if err != nil {
		return nil, storageErr("list entries", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var val int
		if err := rows.Scan(&e.UserID, &e.HabitID, &e.Date, &val); err != nil {
			return nil, storageErr("list entries", err)
		}
		if val == 1 {
			e.Status = StatusDone
		} else {
			e.Status = StatusNotDone
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list entries", err)
	}
	return entries, nil
}

// ListUserHabitPairs derives the set of tracked (user, habit) columns for
// the chat from the distinct pairs across all entries, regardless of date.
// Membership is not a separate table: a user has no habits until at least
// one entry row exists for them.
func (s *TrackerService) ListUserHabitPairs(chatID int64) (map[int64][]string, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT user_id, habit_id
		FROM tracker_entries
		WHERE chat_id = ?
		ORDER BY user_id, habit_id
	`, chatID)
	if err != nil {
		return nil, storageErr("list user habit pairs", err)
	}
	defer rows.Close()

	pairs := make(map[int64][]string)
	for rows.Next() {
		var userID int64
		var habitID string
		if err := rows.Scan(&userID, &habitID); err != nil {
			return nil, storageErr("list user habit pairs", err)
		}
		pairs[userID] = append(pairs[userID], habitID)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list user habit pairs", err)
	}
	return pairs, nil
}

// ListUserHabits returns the distinct habit ids one user has entries for,
// sorted ascending.
func (s *TrackerService) ListUserHabits(chatID, userID int64) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT habit_id
		FROM tracker_entries
		WHERE chat_id = ? AND user_id = ?
		ORDER BY habit_id
	`, chatID, userID)
	if err != nil {
		return nil, storageErr("list user habits", err)
	}
	defer rows.Close()

	var habitIDs []string
	for rows.Next() {
		var habitID string
		if err := rows.Scan(&habitID); err != nil {
			return nil, storageErr("list user habits", err)
		}
		habitIDs = append(habitIDs, habitID)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list user habits", err)
	}
	return habitIDs, nil
}
