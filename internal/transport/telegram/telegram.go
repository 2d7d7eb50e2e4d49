// Package telegram renders the demo screen as one Telegram message with an
// inline keyboard. Presses arrive as callback queries; the label is shown
// by editing the message.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	rtsup "typednotify/internal/runtime/supervisor"
	"typednotify/internal/transport"
	logx "typednotify/pkg/logx"
)

type Config struct {
	Token       string
	ChatID      int64
	PollTimeout time.Duration
	// EditsPerSec bounds message edits; <= 0 means unlimited.
	EditsPerSec int
}

type Transport struct {
	cfg     Config
	log     logx.Logger
	bot     *tele.Bot
	limiter *rate.Limiter

	out     atomic.Value // chan<- transport.Press
	dropped atomic.Uint64

	mu    sync.Mutex
	label string
	msg   *tele.Message
	dirty chan struct{}
}

func New(cfg Config, log logx.Logger) (*Transport, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	t := newTransport(cfg, log)
	t.bot = b
	t.registerHandlers()
	return t, nil
}

func newTransport(cfg Config, log logx.Logger) *Transport {
	limit := rate.Inf
	if cfg.EditsPerSec > 0 {
		limit = rate.Limit(cfg.EditsPerSec)
	}
	t := &Transport{
		cfg:     cfg,
		log:     log.With(logx.String("comp", "transport.telegram")),
		limiter: rate.NewLimiter(limit, 1),
		dirty:   make(chan struct{}, 1),
	}
	var nilOut chan<- transport.Press
	t.out.Store(nilOut)
	return t
}

func (t *Transport) Name() string { return "telegram" }

// Show records label and wakes the renderer. Labels shown faster than the
// edit rate collapse into the latest one.
func (t *Transport) Show(label string) {
	t.mu.Lock()
	t.label = label
	t.mu.Unlock()
	select {
	case t.dirty <- struct{}{}:
	default:
	}
}

func (t *Transport) current() (string, *tele.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.label, t.msg
}

func (t *Transport) registerHandlers() {
	t.bot.Handle(tele.OnCallback, func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		var chatID int64
		if m := c.Message(); m != nil && m.Chat != nil {
			chatID = m.Chat.ID
		}
		return c.Respond(&tele.CallbackResponse{Text: t.press(chatID, cb.Data)})
	})

	t.bot.Handle("/start", func(c tele.Context) error {
		if c.Chat() == nil || c.Chat().ID != t.cfg.ChatID {
			return nil
		}
		return t.sendScreen()
	})
}

// press forwards a callback and returns the toast text for the user.
func (t *Transport) press(chatID int64, data string) string {
	if chatID != t.cfg.ChatID {
		return "This chat is not connected to the demo."
	}
	b, ok := ParseCallback(data)
	if !ok {
		t.log.Debug("unknown callback", logx.String("data", data))
		return "Unknown button."
	}
	out, _ := t.out.Load().(chan<- transport.Press)
	if !transport.Forward(out, transport.Press{Button: b, Source: t.Name()}) {
		t.dropped.Add(1)
		return "Busy, try again."
	}
	return ""
}

// sendScreen posts a fresh screen message; later edits target it.
func (t *Transport) sendScreen() error {
	label, _ := t.current()
	msg, err := t.bot.Send(&tele.Chat{ID: t.cfg.ChatID}, label, &tele.SendOptions{ReplyMarkup: Keyboard()})
	if err != nil {
		return fmt.Errorf("telegram: send screen: %w", err)
	}
	t.mu.Lock()
	t.msg = msg
	t.mu.Unlock()
	return nil
}

func (t *Transport) Run(ctx context.Context, presses chan<- transport.Press) error {
	t.out.Store(presses)
	if err := t.sendScreen(); err != nil {
		return err
	}

	sup := rtsup.New(ctx,
		rtsup.WithLogger(t.log),
		rtsup.WithCancelOnError(false),
	)

	sup.Go0("presses.drop_report", func(c context.Context) {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-c.Done():
				t.reportDropped()
				return
			case <-ticker.C:
				t.reportDropped()
			}
		}
	})

	sup.Go0("telebot.stop_on_cancel", func(c context.Context) {
		<-c.Done()
		t.bot.Stop()
	})

	// Start blocks until Stop; it returning early means the poller died.
	sup.GoRestart("telebot.poll", func(c context.Context) error {
		t.log.Info("polling started")
		t.bot.Start()
		t.log.Info("polling stopped")
		if c.Err() != nil {
			return nil
		}
		return errors.New("poller exited")
	}, rtsup.WithRestartBackoff(500*time.Millisecond, 10*time.Second))

	sup.Go("screen.render", t.render)

	<-ctx.Done()
	waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return sup.Wait(waitCtx)
}

func (t *Transport) reportDropped() {
	if n := t.dropped.Swap(0); n > 0 {
		t.log.Warn("presses dropped (queue full)", logx.Uint64("count", n))
	}
}

func (t *Transport) render(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.dirty:
		}
		if err := t.limiter.Wait(ctx); err != nil {
			return nil
		}
		label, msg := t.current()
		if msg == nil {
			continue
		}
		_, err := t.bot.Edit(msg, label, &tele.SendOptions{ReplyMarkup: Keyboard()})
		if err != nil && !isNotModified(err) {
			t.log.Warn("edit screen failed", logx.Err(err))
		}
	}
}

func isNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
