package channels

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/habitgrid/habitgrid/internal/bus"
	"github.com/habitgrid/habitgrid/internal/config"
)

// SlackChannel implements a Slack transport over Socket Mode.
type SlackChannel struct {
	BaseChannel
	config config.SlackConfig
	api    *slack.Client
	socket *socketmode.Client
	cancel context.CancelFunc
}

// NewSlackChannel creates a new Slack channel.
func NewSlackChannel(cfg config.SlackConfig, messageBus *bus.MessageBus) *SlackChannel {
	return &SlackChannel{
		BaseChannel: BaseChannel{Bus: messageBus},
		config:      cfg,
	}
}

func (c *SlackChannel) Name() string { return "slack" }

func (c *SlackChannel) Start(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}
	if c.config.BotToken == "" || c.config.AppToken == "" {
		return fmt.Errorf("slack channel enabled but bot or app token missing")
	}

	c.api = slack.New(c.config.BotToken, slack.OptionAppLevelToken(c.config.AppToken))
	c.socket = socketmode.New(c.api)

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.Bus.Subscribe(c.Name(), func(msg *bus.OutboundMessage) {
		sendCtx, sendCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer sendCancel()
		if err := c.Send(sendCtx, msg); err != nil {
			slog.Error("slack send failed", "chat", msg.ChatID, "trace", msg.TraceID, "error", err)
		}
	})

	go c.runSocketMode(runCtx)
	slog.Info("slack channel started")
	return nil
}

func (c *SlackChannel) runSocketMode(ctx context.Context) {
	go func() {
		for evt := range c.socket.Events {
			switch evt.Type {
			case socketmode.EventTypeEventsAPI:
				if evt.Request != nil {
					c.socket.Ack(*evt.Request)
				}
				ev, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok || ev.Type != slackevents.CallbackEvent {
					continue
				}
				in, ok := ev.InnerEvent.Data.(*slackevents.MessageEvent)
				if !ok || in == nil || in.BotID != "" || in.Text == "" {
					continue
				}
				c.Bus.PublishInbound(&bus.InboundMessage{
					Channel:  c.Name(),
					SenderID: in.User,
					ChatID:   in.Channel,
					TraceID:  uuid.New().String(),
					Content:  in.Text,
				})
			case socketmode.EventTypeConnectionError:
				slog.Warn("slack socket mode connection error")
			}
		}
	}()
	if err := c.socket.RunContext(ctx); err != nil && ctx.Err() == nil {
		slog.Error("slack socket mode stopped", "error", err)
	}
}

func (c *SlackChannel) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

func (c *SlackChannel) Send(ctx context.Context, msg *bus.OutboundMessage) error {
	if c.api == nil {
		return fmt.Errorf("slack client not initialized")
	}
	text := msg.Content
	if msg.Monospace {
		text = "```\n" + text + "\n```"
	}
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	_, ts, err := c.api.PostMessageContext(ctx, msg.ChatID, opts...)
	if err != nil {
		return err
	}
	if msg.Monospace && msg.Pin {
		if err := c.api.AddPinContext(ctx, msg.ChatID, slack.ItemRef{Channel: msg.ChatID, Timestamp: ts}); err != nil {
			slog.Debug("slack pin failed", "chat", msg.ChatID, "error", err)
		}
	}
	return nil
}
