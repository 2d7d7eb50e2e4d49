package schedule

import (
	"context"
	"testing"
	"time"

	logx "typednotify/pkg/logx"
)

func TestHeartbeatTicks(t *testing.T) {
	ticks := make(chan uint64, 4)
	h := NewHeartbeat(logx.Nop(), func(n uint64) { ticks <- n })
	if err := h.Reset("1s", time.UTC); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	defer h.Stop()

	if h.Next().IsZero() {
		t.Fatalf("Next should be set while scheduled")
	}
	select {
	case n := <-ticks:
		if n != 1 {
			t.Fatalf("first tick = %d", n)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no tick")
	}
}

func TestHeartbeatResetRejectsBadSchedule(t *testing.T) {
	h := NewHeartbeat(logx.Nop(), nil)
	if err := h.Reset("nope", nil); err == nil {
		t.Fatalf("expected error")
	}
	if !h.Next().IsZero() {
		t.Fatalf("failed Reset should not start a schedule")
	}
}

func TestHeartbeatDisableAndRun(t *testing.T) {
	h := NewHeartbeat(logx.Nop(), func(uint64) {})
	if err := h.Reset("@hourly", time.UTC); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := h.Reset("", nil); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if !h.Next().IsZero() {
		t.Fatalf("disabled heartbeat still scheduled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Run did not return")
	}
}

func TestHeartbeatBlankScheduleDisables(t *testing.T) {
	h := NewHeartbeat(logx.Nop(), nil)
	if err := h.Reset("   ", time.UTC); err != nil {
		t.Fatalf("blank schedule: %v", err)
	}
	if !h.Next().IsZero() {
		t.Fatalf("blank schedule should leave the heartbeat stopped")
	}
}
