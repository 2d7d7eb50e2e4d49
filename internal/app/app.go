// Package app wires the demo: config, logging, the notification center,
// the main loop, the screen, the heartbeat and the transports.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"typednotify/internal/config"
	"typednotify/internal/demo"
	"typednotify/internal/mainloop"
	"typednotify/internal/runtime/supervisor"
	"typednotify/internal/schedule"
	"typednotify/internal/transport"
	"typednotify/internal/transport/console"
	"typednotify/internal/transport/telegram"
	"typednotify/pkg/eventbus"
	logx "typednotify/pkg/logx"
)

// Options override process-level I/O; zero values mean stdin/stdout.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	LogOut io.Writer
}

type App struct {
	cfgPath string
	opts    Options

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service
	bus  *eventbus.Center

	loop       *mainloop.Loop
	screen     *demo.Screen
	heartbeat  *schedule.Heartbeat
	transports []transport.Transport
	presses    chan transport.Press

	quit atomic.Bool
}

func NewApp(cfgPath string, opts Options) (*App, error) {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logConfig(cfg, opts.LogOut))
	a := &App{
		cfgPath: cfgPath,
		opts:    opts,
		cfgm:    cfgm,
		log:     log.With(logx.String("comp", "app")),
		logs:    logSvc,
		bus:     eventbus.New(eventbus.WithLogger(log.With(logx.String("comp", "eventbus")))),
		loop:    mainloop.New(64, log.With(logx.String("comp", "mainloop"))),
		presses: make(chan transport.Press, 32),
	}

	a.screen = demo.NewScreen(a.bus, log, a.loop, demoOptions(cfg))
	a.heartbeat = schedule.NewHeartbeat(log.With(logx.String("comp", "heartbeat")), a.onTick)

	if cfg.Transport.Console {
		a.transports = append(a.transports, console.New(opts.Stdin, opts.Stdout, log, a.userQuit))
	}
	if tc := cfg.Transport.Telegram; tc.Enabled {
		tg, err := telegram.New(telegram.Config{
			Token:       tc.Token,
			ChatID:      tc.ChatID,
			PollTimeout: tc.PollTimeoutDuration(),
			EditsPerSec: tc.EditsPerSec,
		}, log)
		if err != nil {
			return nil, err
		}
		a.transports = append(a.transports, tg)
	}
	return a, nil
}

func logConfig(cfg *config.Config, out io.Writer) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Out: out,
	}
}

func demoOptions(cfg *config.Config) demo.Options {
	return demo.Options{
		Packing:     demo.PackingFromConfig(cfg.Demo.Packing),
		PeopleDelay: cfg.Demo.PeopleDelayDuration(),
	}
}

func (a *App) Screen() *demo.Screen { return a.screen }

// Done is closed when the app supervisor context is canceled (fatal error,
// user quit or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// Reason reports why Done closed.
func (a *App) Reason() StopReason {
	switch {
	case a.quit.Load():
		return StopUserQuit
	case a.Err() != nil:
		return StopFatalError
	default:
		return StopUnknown
	}
}

func (a *App) userQuit() {
	a.log.Info("quit requested")
	a.quit.Store(true)
	if a.sup != nil {
		a.sup.Cancel()
	}
}

// onTick runs on the heartbeat's goroutine and hands the post to the loop.
func (a *App) onTick(n uint64) {
	if a.sup == nil {
		return
	}
	if err := a.loop.Do(a.sup.Context(), func() { a.screen.Heartbeat(n) }); err != nil {
		a.log.Debug("heartbeat tick skipped", logx.Uint64("tick", n), logx.Err(err))
	}
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	cfg := a.cfgm.Get()

	a.sup.Go("mainloop", a.loop.Run)

	a.sup.Go0("presses.dispatch", func(c context.Context) {
		for {
			select {
			case <-c.Done():
				return
			case p := <-a.presses:
				if err := a.loop.Do(c, func() { a.screen.Press(p.Button) }); err != nil {
					return
				}
				a.log.Debug("press dispatched",
					logx.String("button", string(p.Button)),
					logx.String("source", p.Source),
					logx.Duration("queued", time.Since(p.At)),
				)
			}
		}
	})

	for _, tr := range a.transports {
		a.screen.Attach(tr)
		a.sup.Go("transport."+tr.Name(), func(c context.Context) error {
			return tr.Run(c, a.presses)
		})
	}

	if err := a.heartbeat.Reset(cfg.Demo.Heartbeat, cfg.Location()); err != nil {
		a.sup.Cancel()
		return fmt.Errorf("heartbeat: %w", err)
	}
	a.sup.Go("heartbeat", a.heartbeat.Run)
	a.logNextHeartbeat()

	// Every notification at debug level, off the synchronous delivery path.
	events, unsub := a.bus.Tap(128)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("notification", logx.String("name", e.Name), logx.Time("time", e.Time))
			}
		}
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(c, lastApplied, newCfg)
				lastApplied = newCfg
			}
		}
	})

	a.sup.Go("config.watch", a.cfgm.Watch)
	select {
	case <-a.cfgm.Watching():
		a.log.Debug("config watch armed", logx.String("path", a.cfgm.Path()))
	case <-a.sup.Context().Done():
	case <-time.After(2 * time.Second):
		a.log.Warn("config watcher not armed yet", logx.String("path", a.cfgm.Path()))
	}

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Warn("sd_notify failed", logx.Err(err))
	} else if ok {
		a.log.Debug("sd_notify sent", logx.String("state", "ready"))
	}
	a.log.Info("app started", logx.Int("transports", len(a.transports)))
	return nil
}

func (a *App) logNextHeartbeat() {
	if next := a.heartbeat.Next(); !next.IsZero() {
		a.log.Debug("next heartbeat", logx.Time("at", next))
	}
}

func (a *App) applyConfig(ctx context.Context, oldCfg, newCfg *config.Config) {
	sections, attrs := config.SummarizeChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}

	a.logs.Apply(logConfig(newCfg, a.opts.LogOut))

	for _, s := range sections {
		switch s {
		case "demo":
			opts := demoOptions(newCfg)
			if err := a.loop.Do(ctx, func() { a.screen.Reconfigure(opts) }); err != nil {
				a.log.Warn("demo reconfigure skipped", logx.Err(err))
			}
			if oldCfg.Demo.Heartbeat != newCfg.Demo.Heartbeat || oldCfg.Demo.Timezone != newCfg.Demo.Timezone {
				if err := a.heartbeat.Reset(newCfg.Demo.Heartbeat, newCfg.Location()); err != nil {
					a.log.Warn("invalid heartbeat; keeping previous", logx.Err(err))
				} else {
					a.logNextHeartbeat()
				}
			}
		case "transport":
			a.log.Warn("transport config changed; restart required for changes to take effect")
		}
	}

	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)), logx.Int("pending_delayed", a.loop.Pending()))
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	a.sup.Cancel()

	step := func(name string, fn func()) {
		start := time.Now()
		fn()
		a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
	}
	step("heartbeat", a.heartbeat.Stop)
	step("screen", a.screen.Close)
	for _, name := range a.screen.Kinds().Names() {
		if n := a.bus.Observers(name); n > 0 {
			a.log.Warn("observers left after screen close", logx.String("name", name), logx.Int("observers", n))
		}
	}

	err := a.sup.Wait(ctx)
	if err != nil {
		a.log.Warn("stop finished with error", logx.Err(err))
	}
	step("eventbus", a.bus.Close)

	st := a.bus.Stats()
	a.log.Info("stopped",
		logx.Uint64("heartbeats", a.heartbeat.Count()),
		logx.Int64("published", st.Published),
		logx.Int64("delivered", st.Delivered),
		logx.Int64("tap_dropped", st.Dropped),
		logx.Int64("observer_panics", st.Panics),
	)
	_ = a.logs.Close()
	return err
}
