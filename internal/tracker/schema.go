package tracker

import (
	"time"
)

// Habit is per-chat habit metadata. HabitID is the short machine token
// ("reading"), Name the human label shown on keyboards.
type Habit struct {
	ChatID    int64     `json:"chat_id"`
	HabitID   string    `json:"habit_id"`
	Emoji     string    `json:"emoji"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// User is per-chat user metadata.
type User struct {
	ChatID    int64     `json:"chat_id"`
	UserID    int64     `json:"user_id"`
	Emoji     string    `json:"emoji"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status is the tri-state completion value of one tracker entry.
// StatusUnknown is never stored: it is represented by row absence.
type Status int

const (
	StatusUnknown Status = iota
	StatusDone
	StatusNotDone
)

func (s Status) String() string {
	switch s {
	case StatusDone:
		return "done"
	case StatusNotDone:
		return "notdone"
	default:
		return "unknown"
	}
}

// ParseStatus maps the CLI/user spelling of a status to its value.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "done":
		return StatusDone, nil
	case "notdone", "skip":
		return StatusNotDone, nil
	case "unknown", "clear":
		return StatusUnknown, nil
	}
	return StatusUnknown, invalidArgf("status %q not in done/notdone/unknown", s)
}

// Entry is one stored tracker row. Status here is always Done or NotDone;
// Unknown rows do not exist.
type Entry struct {
	UserID  int64  `json:"user_id"`
	HabitID string `json:"habit_id"`
	Date    string `json:"date"`
	Status  Status `json:"status"`
}

// DateLayout is the stored calendar-date form. Lexicographic compare on
// these strings is also chronological, which the range query relies on.
const DateLayout = "2006-01-02"

const Schema = `
CREATE TABLE IF NOT EXISTS tracker_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	chat_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	habit_id TEXT NOT NULL,
	date TEXT NOT NULL,
	status INTEGER,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(chat_id, user_id, habit_id, date)
);
CREATE INDEX IF NOT EXISTS idx_entries_chat_user_date ON tracker_entries(chat_id, user_id, date);
CREATE INDEX IF NOT EXISTS idx_entries_chat_date ON tracker_entries(chat_id, date);

CREATE TABLE IF NOT EXISTS habits (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	chat_id INTEGER NOT NULL,
	habit_id TEXT NOT NULL,
	emoji TEXT NOT NULL,
	name TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(chat_id, habit_id)
);
CREATE INDEX IF NOT EXISTS idx_habits_chat ON habits(chat_id, habit_id);

CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	chat_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	emoji TEXT NOT NULL,
	name TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(chat_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_users_chat ON users(chat_id, user_id);
`
