// Package events publishes mark events to an optional Kafka topic.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/habitgrid/habitgrid/internal/config"
	"github.com/habitgrid/habitgrid/internal/tracker"
)

// MarkEvent is the envelope written to the topic for every successful mark.
type MarkEvent struct {
	ChatID  int64     `json:"chat_id"`
	UserID  int64     `json:"user_id"`
	HabitID string    `json:"habit_id"`
	Date    string    `json:"date"`
	Status  string    `json:"status"`
	TraceID string    `json:"trace_id"`
	At      time.Time `json:"at"`
}

// Publisher writes mark events to Kafka. A nil or disabled publisher is a
// no-op, marks never depend on the event stream.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a publisher from config. Returns nil when disabled.
func NewPublisher(cfg config.EventsConfig) *Publisher {
	if !cfg.Enabled {
		return nil
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(strings.Split(cfg.Brokers, ",")...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}
}

// PublishMark writes a mark event. Fire-and-forget: failures are logged and
// never propagated to the caller.
func (p *Publisher) PublishMark(chatID, userID int64, habitID, date string, status tracker.Status, traceID string) {
	if p == nil || p.writer == nil {
		return
	}
	evt := MarkEvent{
		ChatID:  chatID,
		UserID:  userID,
		HabitID: habitID,
		Date:    date,
		Status:  status.String(),
		TraceID: traceID,
		At:      time.Now().UTC(),
	}
	go func() {
		value, err := json.Marshal(evt)
		if err != nil {
			slog.Warn("marshal mark event", "error", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		msg := kafka.Message{
			Key:   []byte(fmt.Sprintf("%d:%d:%s", chatID, userID, habitID)),
			Value: value,
			Time:  evt.At,
		}
		if err := p.writer.WriteMessages(ctx, msg); err != nil {
			slog.Warn("publish mark event", "topic", p.writer.Topic, "trace", traceID, "error", err)
		}
	}()
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
