package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/habitgrid/habitgrid/internal/bus"
	"github.com/habitgrid/habitgrid/internal/config"
)

// TelegramChannel implements a native Telegram bot client over the HTTP API.
type TelegramChannel struct {
	BaseChannel
	config config.TelegramConfig
	client *http.Client
	offset int64
	cancel context.CancelFunc

	// lastReport maps chat id to the message id of the most recent calendar
	// report, so the old one can be removed when a fresh report is posted.
	lastReport map[string]int64
	mu         sync.Mutex
}

// NewTelegramChannel creates a new Telegram channel.
func NewTelegramChannel(cfg config.TelegramConfig, messageBus *bus.MessageBus) *TelegramChannel {
	return &TelegramChannel{
		BaseChannel: BaseChannel{Bus: messageBus},
		config:      cfg,
		client:      &http.Client{Timeout: time.Duration(cfg.PollTimeoutSecs+10) * time.Second},
		lastReport:  make(map[string]int64),
	}
}

func (c *TelegramChannel) Name() string { return "telegram" }

func (c *TelegramChannel) Start(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}
	if c.config.Token == "" {
		return fmt.Errorf("telegram channel enabled but no token configured")
	}

	pollCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.Bus.Subscribe(c.Name(), func(msg *bus.OutboundMessage) {
		sendCtx, sendCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer sendCancel()
		if err := c.Send(sendCtx, msg); err != nil {
			slog.Error("telegram send failed", "chat", msg.ChatID, "trace", msg.TraceID, "error", err)
		}
	})

	go c.pollLoop(pollCtx)
	slog.Info("telegram channel started", "poll_timeout_secs", c.config.PollTimeoutSecs)
	return nil
}

func (c *TelegramChannel) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

// tgUpdate mirrors the subset of the Bot API update object we consume.
type tgUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		MessageID int64 `json:"message_id"`
		From      *struct {
			ID        int64  `json:"id"`
			FirstName string `json:"first_name"`
			Username  string `json:"username"`
		} `json:"from"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

func (c *TelegramChannel) pollLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		updates, err := c.getUpdates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("telegram getUpdates failed", "error", err)
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}
		for _, u := range updates {
			if u.UpdateID >= c.offset {
				c.offset = u.UpdateID + 1
			}
			if u.Message == nil || u.Message.Text == "" || u.Message.From == nil {
				continue
			}
			name := u.Message.From.FirstName
			if name == "" {
				name = u.Message.From.Username
			}
			c.Bus.PublishInbound(&bus.InboundMessage{
				Channel:    c.Name(),
				SenderID:   strconv.FormatInt(u.Message.From.ID, 10),
				SenderName: name,
				ChatID:     strconv.FormatInt(u.Message.Chat.ID, 10),
				TraceID:    uuid.New().String(),
				Content:    u.Message.Text,
			})
		}
	}
}

func (c *TelegramChannel) getUpdates(ctx context.Context) ([]tgUpdate, error) {
	payload := map[string]any{
		"offset":          c.offset,
		"timeout":         c.config.PollTimeoutSecs,
		"allowed_updates": []string{"message"},
	}
	var result []tgUpdate
	if err := c.call(ctx, "getUpdates", payload, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *TelegramChannel) Send(ctx context.Context, msg *bus.OutboundMessage) error {
	if msg.DeleteMessageID != "" {
		c.deleteMessage(ctx, msg.ChatID, msg.DeleteMessageID)
	}

	payload := map[string]any{
		"chat_id": msg.ChatID,
		"text":    msg.Content,
	}
	if msg.Monospace {
		payload["text"] = "<pre>" + html.EscapeString(msg.Content) + "</pre>"
		payload["parse_mode"] = "HTML"
	}
	if msg.Silent {
		payload["disable_notification"] = true
	}
	switch {
	case len(msg.Keyboard) > 0:
		rows := make([][]map[string]string, 0, len(msg.Keyboard))
		for _, row := range msg.Keyboard {
			btns := make([]map[string]string, 0, len(row))
			for _, label := range row {
				btns = append(btns, map[string]string{"text": label})
			}
			rows = append(rows, btns)
		}
		payload["reply_markup"] = map[string]any{
			"keyboard":          rows,
			"resize_keyboard":   true,
			"one_time_keyboard": true,
			"selective":         true,
		}
	case msg.RemoveKeyboard:
		payload["reply_markup"] = map[string]any{"remove_keyboard": true}
	}

	var sent struct {
		MessageID int64 `json:"message_id"`
	}
	if err := c.call(ctx, "sendMessage", payload, &sent); err != nil {
		return err
	}

	if msg.Monospace {
		c.rotateReport(ctx, msg.ChatID, sent.MessageID)
		if msg.Pin {
			c.pinMessage(ctx, msg.ChatID, sent.MessageID)
		}
	}
	return nil
}

// rotateReport deletes the previous calendar report in the chat and remembers
// the new one.
func (c *TelegramChannel) rotateReport(ctx context.Context, chatID string, messageID int64) {
	c.mu.Lock()
	prev := c.lastReport[chatID]
	c.lastReport[chatID] = messageID
	c.mu.Unlock()
	if prev != 0 && prev != messageID {
		c.deleteMessage(ctx, chatID, strconv.FormatInt(prev, 10))
	}
}

func (c *TelegramChannel) deleteMessage(ctx context.Context, chatID, messageID string) {
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
	}
	// Deleting an already-gone message is not an error worth surfacing.
	if err := c.call(ctx, "deleteMessage", payload, nil); err != nil {
		slog.Debug("telegram deleteMessage failed", "chat", chatID, "message", messageID, "error", err)
	}
}

func (c *TelegramChannel) pinMessage(ctx context.Context, chatID string, messageID int64) {
	payload := map[string]any{
		"chat_id":              chatID,
		"message_id":           messageID,
		"disable_notification": true,
	}
	if err := c.call(ctx, "pinChatMessage", payload, nil); err != nil {
		slog.Debug("telegram pinChatMessage failed", "chat", chatID, "error", err)
	}
}

func (c *TelegramChannel) call(ctx context.Context, method string, payload map[string]any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/%s", c.config.APIBase, c.config.Token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var envelope struct {
		OK          bool            `json:"ok"`
		Description string          `json:"description"`
		Result      json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("telegram %s: decode response: %w", method, err)
	}
	if !envelope.OK {
		return fmt.Errorf("telegram %s: %s", method, envelope.Description)
	}
	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("telegram %s: decode result: %w", method, err)
		}
	}
	return nil
}
