// Package seed installs demo tracker data for a chat.
package seed

import (
	"fmt"
	"time"

	"github.com/habitgrid/habitgrid/internal/tracker"
)

type demoHabit struct {
	ID    string
	Emoji string
	Name  string
}

type demoUser struct {
	ID     int64
	Emoji  string
	Name   string
	Habits []string
}

var demoHabits = []demoHabit{
	{"meditation", "🧎", "Stretch"},
	{"reading", "📚", "Reading"},
	{"sport", "🏋️", "Push-ups"},
	{"medicine", "💊", "Medicine"},
	{"milk", "🥛", "Water"},
	{"walk", "🚶‍♀️", "Walk"},
	{"dance", "🕺", "Breakdance"},
	{"positive", "👍", "Positivity"},
}

var demoUsers = []demoUser{
	{496486645, "👨‍💻", "Dima", []string{"meditation", "reading", "sport"}},
	{1821405712, "👩‍🎨", "Liza", []string{"medicine", "sport", "milk"}},
	{672221516, "🤱", "Mom", []string{"walk", "reading", "milk"}},
	{5812633895, "🧑‍🚀", "Sasha", []string{"reading", "sport", "dance"}},
	{1069094241, "👨‍🚒", "Dad", []string{"positive"}},
}

// Apply installs the demo habits, users and a week of NotDone entries for a
// chat so the calendar grid structure is visible. Idempotent: a chat that
// already has habits is left untouched.
func Apply(store *tracker.TrackerService, chatID int64, now time.Time) error {
	habits, err := store.ListHabits(chatID)
	if err != nil {
		return err
	}
	if len(habits) > 0 {
		return nil
	}

	for _, h := range demoHabits {
		if err := store.UpsertHabit(chatID, h.ID, h.Emoji, h.Name); err != nil {
			return fmt.Errorf("seed habit %s: %w", h.ID, err)
		}
	}
	for _, u := range demoUsers {
		if err := store.UpsertUser(chatID, u.ID, u.Emoji, u.Name); err != nil {
			return fmt.Errorf("seed user %d: %w", u.ID, err)
		}
	}

	// NotDone entries over the trailing week register each (user, habit)
	// pair without claiming anything was completed.
	dates := make([]string, 0, 7)
	for i := 6; i >= 0; i-- {
		dates = append(dates, now.AddDate(0, 0, -i).Format(tracker.DateLayout))
	}
	for _, u := range demoUsers {
		for _, habitID := range u.Habits {
			for _, date := range dates {
				if err := store.SetEntry(chatID, u.ID, habitID, date, tracker.StatusNotDone); err != nil {
					return fmt.Errorf("seed entry %d/%s/%s: %w", u.ID, habitID, date, err)
				}
			}
		}
	}
	return nil
}
