package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"TripBot/bot/chat/telegram"
	"TripBot/bot/workflow"
	"TripBot/internal/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/message"
)

// Dispatcher routes a platform-neutral event to the flows.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev workflow.Event) *workflow.Reply
}

// UserBot is the Telegram front of the trip planner.
type UserBot struct {
	log        *slog.Logger
	api        *tgbotapi.Bot
	messenger  *telegram.Messenger
	dispatcher Dispatcher
	updater    *ext.Updater
}

// NewUserBot creates the bot and its messenger; the dispatcher is set later
// since the flows need the messenger first.
func NewUserBot(apiKey string, log *slog.Logger) (*UserBot, error) {
	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %w", err)
	}
	return &UserBot{
		log:       log.With(sl.Module("userbot")),
		api:       api,
		messenger: telegram.NewMessenger(api),
	}, nil
}

func (b *UserBot) Messenger() workflow.Messenger {
	return b.messenger
}

func (b *UserBot) SetDispatcher(d Dispatcher) {
	b.dispatcher = d
}

// Start begins polling for updates and returns once polling is running.
func (b *UserBot) Start() error {
	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(bot *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			b.log.Error("handling update", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	b.updater = ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCallback(callbackquery.All, b.handleCallback))
	dispatcher.AddHandler(handlers.NewMessage(message.All, b.handleMessage))

	err := b.updater.StartPolling(b.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	b.log.Info("user bot started", slog.String("username", b.api.User.Username))
	return nil
}

func (b *UserBot) Stop() {
	if b.updater == nil {
		return
	}
	if err := b.updater.Stop(); err != nil {
		b.log.Error("stop polling", sl.Err(err))
	}
}

func (b *UserBot) handleMessage(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if b.dispatcher == nil || ctx.EffectiveUser == nil || ctx.EffectiveMessage == nil {
		return nil
	}
	ev := messageEvent(ctx.EffectiveUser.Id, ctx.EffectiveMessage)
	b.deliver(context.Background(), b.dispatcher.Dispatch(context.Background(), ev))
	return nil
}

func (b *UserBot) handleCallback(bot *tgbotapi.Bot, ctx *ext.Context) error {
	if b.dispatcher == nil {
		return nil
	}
	cq := ctx.CallbackQuery
	reply := b.dispatcher.Dispatch(context.Background(), callbackEvent(cq))

	opts := &tgbotapi.AnswerCallbackQueryOpts{}
	if reply != nil {
		opts.Text = reply.Notice
	}
	if _, err := bot.AnswerCallbackQuery(cq.Id, opts); err != nil {
		b.log.Warn("answer callback", sl.User(cq.From.Id), sl.Err(err))
	}
	b.deliver(context.Background(), reply)
	return nil
}

func (b *UserBot) deliver(ctx context.Context, reply *workflow.Reply) {
	if reply == nil {
		return
	}
	for _, msg := range reply.Messages {
		if _, err := b.messenger.Send(ctx, msg); err != nil {
			b.log.Error("send message", slog.Int64("chat_id", msg.ChatID), sl.Err(err))
		}
	}
}
