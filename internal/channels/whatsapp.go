package channels

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	_ "modernc.org/sqlite"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"github.com/habitgrid/habitgrid/internal/bus"
	"github.com/habitgrid/habitgrid/internal/config"
)

// WhatsAppChannel implements a native WhatsApp client via whatsmeow.
type WhatsAppChannel struct {
	BaseChannel
	config    config.WhatsAppConfig
	dbPath    string
	client    *whatsmeow.Client
	container *sqlstore.Container
	allowed   map[string]bool
}

// NewWhatsAppChannel creates a new WhatsApp channel. Session state is kept in
// a dedicated sqlite database at dbPath.
func NewWhatsAppChannel(cfg config.WhatsAppConfig, messageBus *bus.MessageBus, dbPath string) *WhatsAppChannel {
	allowed := make(map[string]bool, len(cfg.Chats))
	for _, jid := range cfg.Chats {
		allowed[jid] = true
	}
	return &WhatsAppChannel{
		BaseChannel: BaseChannel{Bus: messageBus},
		config:      cfg,
		dbPath:      dbPath,
		allowed:     allowed,
	}
}

func (c *WhatsAppChannel) Name() string { return "whatsapp" }

func (c *WhatsAppChannel) Start(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	dbLog := waLog.Stdout("Database", "WARN", true)
	clientLog := waLog.Stdout("Client", "WARN", true)

	os.MkdirAll(filepath.Dir(c.dbPath), 0755)

	container, err := sqlstore.New(ctx, "sqlite", "file:"+c.dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbLog)
	if err != nil {
		return fmt.Errorf("init whatsapp session store: %w", err)
	}
	c.container = container

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return fmt.Errorf("get whatsapp device: %w", err)
	}

	c.client = whatsmeow.NewClient(deviceStore, clientLog)
	c.client.AddEventHandler(c.eventHandler)

	if c.client.Store.ID == nil {
		qrChan, _ := c.client.GetQRChannel(context.Background())
		if err := c.client.Connect(); err != nil {
			return fmt.Errorf("whatsapp connect: %w", err)
		}
		go c.handleQRLogin(qrChan)
	} else {
		if err := c.client.Connect(); err != nil {
			return fmt.Errorf("whatsapp connect: %w", err)
		}
		slog.Info("whatsapp channel connected")
	}

	c.Bus.Subscribe(c.Name(), func(msg *bus.OutboundMessage) {
		sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := c.Send(sendCtx, msg); err != nil {
			slog.Error("whatsapp send failed", "chat", msg.ChatID, "trace", msg.TraceID, "error", err)
		}
	})
	return nil
}

func (c *WhatsAppChannel) handleQRLogin(qrChan <-chan whatsmeow.QRChannelItem) {
	for evt := range qrChan {
		if evt.Event == "code" {
			qrPath := filepath.Join(filepath.Dir(c.dbPath), "whatsapp-qr.png")
			if err := qrcode.WriteFile(evt.Code, qrcode.Medium, 512, qrPath); err != nil {
				slog.Error("write whatsapp login qr", "error", err)
				continue
			}
			fmt.Printf("WhatsApp login QR code saved to %s, scan it with your phone.\n", qrPath)
		} else {
			slog.Info("whatsapp login event", "event", evt.Event)
		}
	}
}

func (c *WhatsAppChannel) Stop() error {
	if c.client != nil {
		c.client.Disconnect()
	}
	if c.container != nil {
		c.container.Close()
	}
	return nil
}

func (c *WhatsAppChannel) Send(ctx context.Context, msg *bus.OutboundMessage) error {
	if c.client == nil {
		return fmt.Errorf("whatsapp client not initialized")
	}
	jid, err := types.ParseJID(msg.ChatID)
	if err != nil {
		return fmt.Errorf("invalid JID %q: %w", msg.ChatID, err)
	}
	content := msg.Content
	if msg.Monospace {
		content = "```\n" + content + "\n```"
	}
	waMsg := &waE2E.Message{
		Conversation: proto.String(content),
	}
	_, err = c.client.SendMessage(ctx, jid, waMsg)
	return err
}

func (c *WhatsAppChannel) eventHandler(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		if v.Info.IsFromMe {
			return
		}
		content := v.Message.GetConversation()
		if content == "" {
			content = v.Message.GetExtendedTextMessage().GetText()
		}
		if content == "" {
			return
		}
		chatJID := v.Info.Chat.String()
		if len(c.allowed) > 0 && !c.allowed[chatJID] {
			return
		}
		c.Bus.PublishInbound(&bus.InboundMessage{
			Channel:    c.Name(),
			SenderID:   v.Info.Sender.User,
			SenderName: v.Info.PushName,
			ChatID:     chatJID,
			TraceID:    uuid.New().String(),
			Content:    content,
			Timestamp:  v.Info.Timestamp,
		})
	case *events.Connected:
		slog.Info("whatsapp connected")
	case *events.Disconnected:
		slog.Warn("whatsapp disconnected")
	}
}
