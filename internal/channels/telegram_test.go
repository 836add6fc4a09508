package channels

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/habitgrid/habitgrid/internal/bus"
	"github.com/habitgrid/habitgrid/internal/config"
)

type tgCall struct {
	Method  string
	Payload map[string]any
}

// newTestTelegram starts a fake Bot API server and returns a channel wired to it.
func newTestTelegram(t *testing.T) (*TelegramChannel, *[]tgCall) {
	t.Helper()
	var mu sync.Mutex
	calls := &[]tgCall{}
	var nextMessageID float64 = 100

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		method := parts[len(parts)-1]
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)

		mu.Lock()
		*calls = append(*calls, tgCall{Method: method, Payload: payload})
		mu.Unlock()

		resp := map[string]any{"ok": true, "result": true}
		if method == "sendMessage" {
			mu.Lock()
			nextMessageID++
			resp["result"] = map[string]any{"message_id": nextMessageID}
			mu.Unlock()
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	cfg := config.TelegramConfig{
		Enabled:         true,
		Token:           "test-token",
		APIBase:         srv.URL,
		PollTimeoutSecs: 1,
	}
	return NewTelegramChannel(cfg, bus.NewMessageBus()), calls
}

func TestTelegramSendPlainText(t *testing.T) {
	ch, calls := newTestTelegram(t)

	err := ch.Send(context.Background(), &bus.OutboundMessage{
		ChatID:  "-100",
		Content: "hello",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(*calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(*calls))
	}
	call := (*calls)[0]
	if call.Method != "sendMessage" {
		t.Fatalf("unexpected method: %s", call.Method)
	}
	if call.Payload["text"] != "hello" {
		t.Fatalf("unexpected text: %v", call.Payload["text"])
	}
	if _, ok := call.Payload["parse_mode"]; ok {
		t.Fatal("plain text should not set parse_mode")
	}
}

func TestTelegramSendMonospaceWrapsPre(t *testing.T) {
	ch, calls := newTestTelegram(t)

	err := ch.Send(context.Background(), &bus.OutboundMessage{
		ChatID:    "-100",
		Content:   "calendar\n<grid>",
		Monospace: true,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	call := (*calls)[0]
	text, _ := call.Payload["text"].(string)
	if !strings.HasPrefix(text, "<pre>") || !strings.HasSuffix(text, "</pre>") {
		t.Fatalf("monospace text should be wrapped in pre tags: %q", text)
	}
	if !strings.Contains(text, "&lt;grid&gt;") {
		t.Fatalf("content should be html-escaped: %q", text)
	}
	if call.Payload["parse_mode"] != "HTML" {
		t.Fatalf("expected HTML parse mode, got %v", call.Payload["parse_mode"])
	}
}

func TestTelegramSendKeyboard(t *testing.T) {
	ch, calls := newTestTelegram(t)

	err := ch.Send(context.Background(), &bus.OutboundMessage{
		ChatID:   "-100",
		Content:  "pick a habit",
		Keyboard: []bus.KeyboardRow{{"water", "sport"}, {"cancel"}},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	markup, ok := (*calls)[0].Payload["reply_markup"].(map[string]any)
	if !ok {
		t.Fatal("expected reply_markup in payload")
	}
	rows, ok := markup["keyboard"].([]any)
	if !ok || len(rows) != 2 {
		t.Fatalf("expected 2 keyboard rows, got %v", markup["keyboard"])
	}
	if markup["one_time_keyboard"] != true {
		t.Fatal("keyboard should be one-time")
	}
}

func TestTelegramSendRemoveKeyboard(t *testing.T) {
	ch, calls := newTestTelegram(t)

	err := ch.Send(context.Background(), &bus.OutboundMessage{
		ChatID:         "-100",
		Content:        "done",
		RemoveKeyboard: true,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	markup, ok := (*calls)[0].Payload["reply_markup"].(map[string]any)
	if !ok || markup["remove_keyboard"] != true {
		t.Fatalf("expected remove_keyboard markup, got %v", (*calls)[0].Payload["reply_markup"])
	}
}

func TestTelegramReportRotationDeletesPrevious(t *testing.T) {
	ch, calls := newTestTelegram(t)
	report := &bus.OutboundMessage{
		ChatID:    "-100",
		Content:   "calendar",
		Monospace: true,
	}

	if err := ch.Send(context.Background(), report); err != nil {
		t.Fatalf("first Send: %v", err)
	}
	if err := ch.Send(context.Background(), report); err != nil {
		t.Fatalf("second Send: %v", err)
	}

	// First report: sendMessage only. Second: sendMessage then deleteMessage
	// of the first report's id.
	var deletes []tgCall
	for _, call := range *calls {
		if call.Method == "deleteMessage" {
			deletes = append(deletes, call)
		}
	}
	if len(deletes) != 1 {
		t.Fatalf("expected 1 deleteMessage call, got %d", len(deletes))
	}
	if deletes[0].Payload["message_id"] != "101" {
		t.Fatalf("expected first report to be deleted, got %v", deletes[0].Payload["message_id"])
	}
}

func TestTelegramSendExplicitDelete(t *testing.T) {
	ch, calls := newTestTelegram(t)

	err := ch.Send(context.Background(), &bus.OutboundMessage{
		ChatID:          "-100",
		Content:         "fresh",
		DeleteMessageID: "55",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if (*calls)[0].Method != "deleteMessage" {
		t.Fatalf("delete should precede send, first call was %s", (*calls)[0].Method)
	}
	if (*calls)[0].Payload["message_id"] != "55" {
		t.Fatalf("unexpected deleted id: %v", (*calls)[0].Payload["message_id"])
	}
}

func TestTelegramStartRequiresToken(t *testing.T) {
	cfg := config.TelegramConfig{Enabled: true, PollTimeoutSecs: 1}
	ch := NewTelegramChannel(cfg, bus.NewMessageBus())
	if err := ch.Start(context.Background()); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestTelegramStartDisabledIsNoop(t *testing.T) {
	cfg := config.TelegramConfig{Enabled: false}
	ch := NewTelegramChannel(cfg, bus.NewMessageBus())
	if err := ch.Start(context.Background()); err != nil {
		t.Fatalf("disabled Start should be a no-op, got %v", err)
	}
}
