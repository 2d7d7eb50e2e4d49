package schedule

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	logx "typednotify/pkg/logx"
)

// Heartbeat fires tick with an increasing count on a schedule.
//
// Counting continues across Reset so a reconfigured heartbeat does not
// restart at #1.
type Heartbeat struct {
	log  logx.Logger
	tick func(n uint64)

	mu   sync.Mutex
	c    *cron.Cron
	spec Spec
	loc  *time.Location

	count atomic.Uint64
}

func NewHeartbeat(log logx.Logger, tick func(n uint64)) *Heartbeat {
	return &Heartbeat{log: log, tick: tick}
}

// Reset stops the current schedule (if any) and starts raw in loc.
// An empty (or blank) raw leaves the heartbeat stopped.
func (h *Heartbeat) Reset(raw string, loc *time.Location) error {
	raw = strings.TrimSpace(raw)
	var (
		sp    Spec
		sched cron.Schedule
	)
	if raw != "" {
		var err error
		if sp, err = Parse(raw); err != nil {
			return err
		}
		if sched, err = sp.Schedule(); err != nil {
			return err
		}
	}
	if loc == nil {
		loc = time.Local
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopLocked()
	if raw == "" {
		h.log.Info("heartbeat disabled")
		return nil
	}
	h.spec, h.loc = sp, loc
	h.c = cron.New(cron.WithLocation(loc))
	h.c.Schedule(sched, cron.FuncJob(h.fire))
	h.c.Start()
	h.log.Info("heartbeat scheduled",
		logx.String("schedule", sp.String()),
		logx.String("source", sp.Source),
		logx.String("tz", loc.String()),
	)
	return nil
}

func (h *Heartbeat) fire() {
	n := h.count.Add(1)
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("heartbeat tick panicked", logx.Uint64("tick", n), logx.Any("panic", r))
		}
	}()
	if h.tick != nil {
		h.tick(n)
	}
}

// Next reports the next fire time, or zero when stopped.
func (h *Heartbeat) Next() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.c == nil {
		return time.Time{}
	}
	entries := h.c.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (h *Heartbeat) Count() uint64 { return h.count.Load() }

// Run blocks until ctx is done, then stops the schedule and waits for a
// running tick to finish.
func (h *Heartbeat) Run(ctx context.Context) error {
	<-ctx.Done()
	h.Stop()
	return nil
}

func (h *Heartbeat) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopLocked()
}

func (h *Heartbeat) stopLocked() {
	if h.c == nil {
		return
	}
	<-h.c.Stop().Done()
	h.c = nil
}
