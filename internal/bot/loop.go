// Package bot implements the command loop driving the tracker from chat
// messages.
package bot

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/habitgrid/habitgrid/internal/bus"
	"github.com/habitgrid/habitgrid/internal/events"
	"github.com/habitgrid/habitgrid/internal/report"
	"github.com/habitgrid/habitgrid/internal/tracker"
)

const helpText = `commands:
/mark - pick a habit to mark done for today
mark <habit> done|skip|clear [YYYY-MM-DD] - set or reset a mark
/stats - show the calendar for the last 7 days
/chat_id - show this chat's id
/my_id - show your id`

// Loop consumes inbound chat messages and drives the tracker core.
type Loop struct {
	bus      *bus.MessageBus
	store    *tracker.TrackerService
	renderer *report.Renderer
	events   *events.Publisher
	pin      bool
	now      func() time.Time
}

// NewLoop creates a bot loop. The events publisher may be nil.
func NewLoop(b *bus.MessageBus, store *tracker.TrackerService, renderer *report.Renderer, pub *events.Publisher, pin bool) *Loop {
	return &Loop{
		bus:      b,
		store:    store,
		renderer: renderer,
		events:   pub,
		pin:      pin,
		now:      time.Now,
	}
}

// Run consumes inbound messages until the context is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		msg, err := l.bus.ConsumeInbound(ctx)
		if err != nil {
			return err
		}
		l.Handle(msg)
	}
}

// numericKey maps a transport chat or sender id to the tracker's int64 key.
// Telegram ids are already numeric; other transports (WhatsApp JIDs, Slack
// channel ids) are hashed.
func numericKey(id string) int64 {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	h := fnv.New64a()
	h.Write([]byte(id))
	return int64(h.Sum64())
}

// Handle processes a single inbound message.
func (l *Loop) Handle(msg *bus.InboundMessage) {
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return
	}
	chatID := numericKey(msg.ChatID)
	userID := numericKey(msg.SenderID)

	fields := strings.Fields(content)
	cmd := strings.ToLower(fields[0])
	// Group chats address commands as /cmd@botname.
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}

	switch cmd {
	case "/start":
		l.reply(msg, "hi, I track habits for this chat.\n\n"+helpText)
	case "/help", "help":
		l.reply(msg, helpText)
	case "/chat_id":
		l.reply(msg, "chat id: "+msg.ChatID)
	case "/my_id":
		l.reply(msg, "your id: "+msg.SenderID)
	case "/mark", "mark":
		if len(fields) == 1 {
			l.sendHabitKeyboard(msg, chatID, userID)
			return
		}
		l.handleExplicitMark(msg, chatID, userID, fields[1:])
	case "/stats", "/statistics", "stats", "statistics":
		l.sendReport(msg, chatID)
	default:
		l.tryHabitButton(msg, chatID, userID, content)
	}
}

func (l *Loop) reply(msg *bus.InboundMessage, text string) {
	l.bus.PublishOutbound(&bus.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		TraceID: msg.TraceID,
		Content: text,
	})
}

// sendHabitKeyboard offers the sender a one-time keyboard of their habits.
func (l *Loop) sendHabitKeyboard(msg *bus.InboundMessage, chatID, userID int64) {
	habitIDs, err := l.store.ListUserHabits(chatID, userID)
	if err != nil {
		l.replyError(msg, err)
		return
	}
	if len(habitIDs) == 0 {
		l.reply(msg, "you have no tracked habits in this chat yet")
		return
	}
	keyboard := make([]bus.KeyboardRow, 0, len(habitIDs))
	for _, id := range habitIDs {
		keyboard = append(keyboard, bus.KeyboardRow{l.habitLabel(chatID, id)})
	}
	l.bus.PublishOutbound(&bus.OutboundMessage{
		Channel:  msg.Channel,
		ChatID:   msg.ChatID,
		TraceID:  msg.TraceID,
		Content:  "which habit did you do today?",
		Keyboard: keyboard,
	})
}

// habitLabel renders a habit as its keyboard button text.
func (l *Loop) habitLabel(chatID int64, habitID string) string {
	habit, err := l.store.GetHabit(chatID, habitID)
	if err != nil {
		return habitID
	}
	if habit.Emoji == "" {
		return habit.Name
	}
	return habit.Emoji + " " + habit.Name
}

// tryHabitButton matches free text against the sender's habit button labels
// and marks today done on a hit. Anything else is chat noise and ignored.
func (l *Loop) tryHabitButton(msg *bus.InboundMessage, chatID, userID int64, content string) {
	habitIDs, err := l.store.ListUserHabits(chatID, userID)
	if err != nil {
		slog.Warn("list user habits", "chat", msg.ChatID, "trace", msg.TraceID, "error", err)
		return
	}
	for _, id := range habitIDs {
		habit, err := l.store.GetHabit(chatID, id)
		if err != nil {
			continue
		}
		if content != l.habitLabel(chatID, id) && !strings.EqualFold(content, habit.Name) {
			continue
		}
		today := l.now().Format(tracker.DateLayout)
		if err := l.store.SetEntry(chatID, userID, id, today, tracker.StatusDone); err != nil {
			l.replyError(msg, err)
			return
		}
		l.events.PublishMark(chatID, userID, id, today, tracker.StatusDone, msg.TraceID)
		l.bus.PublishOutbound(&bus.OutboundMessage{
			Channel:        msg.Channel,
			ChatID:         msg.ChatID,
			TraceID:        msg.TraceID,
			Content:        fmt.Sprintf("%s marked done for %s", habit.Name, today),
			RemoveKeyboard: true,
		})
		return
	}
}

// handleExplicitMark handles "mark <habit> done|skip|clear [date]".
func (l *Loop) handleExplicitMark(msg *bus.InboundMessage, chatID, userID int64, args []string) {
	if len(args) < 2 {
		l.reply(msg, "usage: mark <habit> done|skip|clear [YYYY-MM-DD]")
		return
	}
	habitID := args[0]
	status, err := tracker.ParseStatus(args[1])
	if err != nil {
		l.reply(msg, "usage: mark <habit> done|skip|clear [YYYY-MM-DD]")
		return
	}
	date := l.now().Format(tracker.DateLayout)
	if len(args) >= 3 {
		date = args[2]
	}
	if err := l.store.SetEntry(chatID, userID, habitID, date, status); err != nil {
		l.replyError(msg, err)
		return
	}
	l.events.PublishMark(chatID, userID, habitID, date, status, msg.TraceID)
	var confirmation string
	switch status {
	case tracker.StatusDone:
		confirmation = fmt.Sprintf("%s marked done for %s", habitID, date)
	case tracker.StatusNotDone:
		confirmation = fmt.Sprintf("%s marked skipped for %s", habitID, date)
	default:
		confirmation = fmt.Sprintf("%s cleared for %s", habitID, date)
	}
	l.reply(msg, confirmation)
}

// sendReport renders the trailing-week calendar and publishes it as a
// monospace message. The transport swaps it for any previous report.
func (l *Loop) sendReport(msg *bus.InboundMessage, chatID int64) {
	text, err := l.renderer.Render(chatID, l.now())
	if err != nil {
		l.replyError(msg, err)
		return
	}
	l.bus.PublishOutbound(&bus.OutboundMessage{
		Channel:   msg.Channel,
		ChatID:    msg.ChatID,
		TraceID:   msg.TraceID,
		Content:   text,
		Monospace: true,
		Pin:       l.pin,
		Silent:    true,
	})
}

// replyError translates core errors into user-visible failure texts.
func (l *Loop) replyError(msg *bus.InboundMessage, err error) {
	slog.Warn("command failed", "chat", msg.ChatID, "trace", msg.TraceID, "error", err)
	switch {
	case errors.Is(err, tracker.ErrInvalidArgument):
		l.reply(msg, "that doesn't look right: "+err.Error())
	case errors.Is(err, tracker.ErrStorageUnavailable):
		l.reply(msg, "storage is unavailable right now, try again later")
	default:
		l.reply(msg, "something went wrong, try again later")
	}
}
