package eventbus

import (
	"reflect"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	logx "typednotify/pkg/logx"
)

// Event is the untyped carrier moved by a Center.
//
// Subject usually identifies the sender and is what subject filters compare
// against. Metadata is free-form; observers must treat it as read-only since
// every observer of a publish sees the same map.
type Event struct {
	Name     string
	Subject  any
	Metadata map[string]any
	Time     time.Time
}

// Handler is invoked synchronously on the goroutine that called Publish.
type Handler func(e Event)

// Bus is the publish/subscribe contract typed layers are written against.
//
// Contract:
//   - Publish MUST invoke every matching observer before returning.
//   - Subscribe is additive: registering twice delivers twice.
//   - The returned unsubscribe func is idempotent.
type Bus interface {
	Publish(e Event)
	Subscribe(name string, fn Handler, opts ...SubscribeOption) (unsubscribe func())
}

// SubscribeOption configures a single registration.
type SubscribeOption func(o *observer)

// WithSubject restricts delivery to events whose Subject equals v.
// Values that are not comparable never match.
func WithSubject(v any) SubscribeOption {
	return func(o *observer) {
		o.subject = v
		o.filtered = true
	}
}

type Option func(c *Center)

func WithLogger(log logx.Logger) Option {
	return func(c *Center) { c.log = log }
}

// Stats are best-effort counters, not a synchronization primitive.
type Stats struct {
	Published int64 `json:"published"`
	Delivered int64 `json:"delivered"`
	Dropped   int64 `json:"dropped"`
	Panics    int64 `json:"panics"`
}

// Center is an in-process notification center.
//
// Observers are keyed by event name. Delivery is synchronous; taps get an
// asynchronous copy of every event and may drop when slow.
type Center struct {
	log logx.Logger

	topics *xsync.MapOf[string, *topic]
	seq    atomic.Uint64
	closed atomic.Bool

	tapMu sync.Mutex
	taps  map[uint64]chan Event

	published *xsync.Counter
	delivered *xsync.Counter
	dropped   *xsync.Counter
	panics    *xsync.Counter
}

// New returns an empty center. It does not own any background goroutines.
func New(opts ...Option) *Center {
	c := &Center{
		topics:    xsync.NewMapOf[string, *topic](),
		taps:      map[uint64]chan Event{},
		published: xsync.NewCounter(),
		delivered: xsync.NewCounter(),
		dropped:   xsync.NewCounter(),
		panics:    xsync.NewCounter(),
	}
	for _, o := range opts {
		if o != nil {
			o(c)
		}
	}
	return c
}

type observer struct {
	id       uint64
	fn       Handler
	subject  any
	filtered bool
	active   atomic.Bool
}

func (o *observer) matches(subject any) bool {
	if !o.filtered {
		return true
	}
	return sameSubject(o.subject, subject)
}

func sameSubject(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() || !vb.Comparable() {
		return false
	}
	return va.Equal(vb)
}

type topic struct {
	mu  sync.RWMutex
	obs []*observer
}

func (t *topic) add(o *observer) {
	t.mu.Lock()
	t.obs = append(t.obs, o)
	t.mu.Unlock()
}

func (t *topic) remove(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, o := range t.obs {
		if o.id == id {
			o.active.Store(false)
			t.obs = append(t.obs[:i:i], t.obs[i+1:]...)
			return
		}
	}
}

func (t *topic) snapshot() []*observer {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.obs) == 0 {
		return nil
	}
	return append([]*observer(nil), t.obs...)
}

func (t *topic) clear() {
	t.mu.Lock()
	for _, o := range t.obs {
		o.active.Store(false)
	}
	t.obs = nil
	t.mu.Unlock()
}

func (t *topic) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.obs)
}

func (c *Center) Publish(e Event) {
	if c.closed.Load() {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	c.published.Inc()

	// Snapshot so observers may (un)subscribe from inside a callback.
	if t, ok := c.topics.Load(e.Name); ok {
		for _, o := range t.snapshot() {
			// Skip observers removed by an earlier callback of this publish.
			if !o.active.Load() || !o.matches(e.Subject) {
				continue
			}
			c.deliver(o, e)
		}
	}
	c.fanout(e)
}

func (c *Center) deliver(o *observer, e Event) {
	defer func() {
		if r := recover(); r != nil {
			c.panics.Inc()
			c.log.Error("observer panicked",
				logx.String("name", e.Name),
				logx.Uint64("observer", o.id),
				logx.Any("panic", r),
				logx.Stack(string(debug.Stack())),
			)
		}
	}()
	o.fn(e)
	c.delivered.Inc()
}

func (c *Center) Subscribe(name string, fn Handler, opts ...SubscribeOption) func() {
	if name == "" || fn == nil || c.closed.Load() {
		return func() {}
	}
	o := &observer{id: c.seq.Add(1), fn: fn}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	o.active.Store(true)

	// Topics are never removed while the center is open, so a loaded topic
	// cannot be orphaned under a concurrent Subscribe.
	t, _ := c.topics.LoadOrCompute(name, func() *topic { return &topic{} })
	t.add(o)
	// Close sets the flag before clearing topics, so an add that raced it
	// is either cleared by Close or undone here.
	if c.closed.Load() {
		t.remove(o.id)
		return func() {}
	}

	var once sync.Once
	return func() {
		once.Do(func() { t.remove(o.id) })
	}
}

// Observers returns the number of live registrations for name.
func (c *Center) Observers(name string) int {
	t, ok := c.topics.Load(name)
	if !ok {
		return 0
	}
	return t.len()
}

func (c *Center) Stats() Stats {
	return Stats{
		Published: c.published.Value(),
		Delivered: c.delivered.Value(),
		Dropped:   c.dropped.Value(),
		Panics:    c.panics.Value(),
	}
}

// Close drops every registration and closes all taps.
// Publish and Subscribe become no-ops afterwards.
func (c *Center) Close() {
	// The flag flips under tapMu so Tap cannot register into the swapped map.
	c.tapMu.Lock()
	if c.closed.Load() {
		c.tapMu.Unlock()
		return
	}
	c.closed.Store(true)
	taps := c.taps
	c.taps = map[uint64]chan Event{}
	c.tapMu.Unlock()

	c.topics.Range(func(_ string, t *topic) bool {
		t.clear()
		return true
	})
	c.topics.Clear()

	for _, ch := range taps {
		close(ch)
	}
}
