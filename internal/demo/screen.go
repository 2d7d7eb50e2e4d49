package demo

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"typednotify/internal/transport"
	logx "typednotify/pkg/logx"
	"typednotify/pkg/notification"
)

const InitialLabel = "Press a button to post a notification"

// Deferrer runs fn after d. mainloop.Loop satisfies it.
type Deferrer interface {
	After(d time.Duration, fn func()) (cancel func())
}

type Options struct {
	Packing     notification.Packing
	PeopleDelay time.Duration
}

// Screen owns the label and the observers that update it.
//
// Press, Heartbeat and Reconfigure are expected to run on one goroutine
// (the main loop); observers then run there too. Label and Attach are safe
// from anywhere.
type Screen struct {
	bus   notification.Bus
	log   logx.Logger
	later Deferrer

	mu       sync.Mutex
	opts     Options
	kinds    Kinds
	label    string
	displays []transport.Display
	cancels  []func()
	delayed  []func()
}

func NewScreen(bus notification.Bus, log logx.Logger, d Deferrer, opts Options) *Screen {
	s := &Screen{
		bus:   bus,
		log:   log.With(logx.String("comp", "demo.screen")),
		later: d,
		opts:  opts,
		kinds: NewKinds(opts.Packing),
		label: InitialLabel,
	}
	s.register()
	return s
}

func (s *Screen) Kinds() Kinds {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kinds
}

func (s *Screen) Label() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.label
}

// Attach adds a display and shows it the current label.
func (s *Screen) Attach(d transport.Display) {
	if d == nil {
		return
	}
	s.mu.Lock()
	s.displays = append(s.displays, d)
	label := s.label
	s.mu.Unlock()
	d.Show(label)
}

func (s *Screen) setLabel(text string) {
	s.mu.Lock()
	s.label = text
	displays := append([]transport.Display(nil), s.displays...)
	s.mu.Unlock()
	for _, d := range displays {
		d.Show(text)
	}
}

func (s *Screen) register() {
	k := s.kinds
	cancels := []func(){
		notification.Register(s.bus, k.Boolean, s.onBoolean),
		notification.Register(s.bus, k.Person, s.onPerson),
		notification.Register(s.bus, k.Generic, s.onGeneric),
		notification.RegisterSignal(s.bus, k.PayloadFree, s.onPayloadFree, notification.WithSubject(s)),
		notification.RegisterSignal(s.bus, k.Heartbeat, s.onHeartbeat),
	}
	s.mu.Lock()
	s.cancels = cancels
	s.mu.Unlock()
}

func (s *Screen) unregister() {
	s.mu.Lock()
	cancels := s.cancels
	s.cancels = nil
	s.mu.Unlock()
	for _, c := range cancels {
		c()
	}
}

// Reconfigure swaps packing and delay. Observers are re-registered when
// the packing changes so poster and observers keep agreeing on it.
func (s *Screen) Reconfigure(opts Options) {
	s.mu.Lock()
	prev := s.opts
	s.opts = opts
	s.mu.Unlock()
	if prev.Packing == opts.Packing {
		return
	}
	s.unregister()
	s.mu.Lock()
	s.kinds = NewKinds(opts.Packing)
	s.mu.Unlock()
	s.register()
	s.log.Info("packing changed", logx.String("from", prev.Packing.String()), logx.String("to", opts.Packing.String()))
}

func (s *Screen) missing(c notification.Carrier) {
	s.log.Warn("could not retrieve payload", logx.String("name", c.Name))
}

func (s *Screen) onBoolean(c notification.Carrier) {
	v, ok := notification.PayloadOf(c, s.Kinds().Boolean)
	if !ok {
		s.missing(c)
		return
	}
	s.setLabel("Got our Bool payload!\n" + strconv.FormatBool(v))
}

func (s *Screen) onPerson(c notification.Carrier) {
	p, ok := s.Kinds().Person.Payload(c)
	if !ok {
		s.missing(c)
		return
	}
	s.setLabel(fmt.Sprintf("Got our Person payload!\nName: %s\nJob: %s", p.Name, p.Job.Title()))
}

func (s *Screen) onGeneric(c notification.Carrier) {
	v, ok := notification.PayloadOf(c, s.Kinds().Generic)
	if !ok {
		s.missing(c)
		return
	}
	s.setLabel("Got our generic payload!\n" + v)
}

func (s *Screen) onPayloadFree(notification.Carrier) {
	s.setLabel("Got our payload free notification!")
}

func (s *Screen) onHeartbeat(c notification.Carrier) {
	n, _ := c.Metadata[TickKey].(uint64)
	s.setLabel(fmt.Sprintf("Heartbeat #%d", n))
}

// Press performs the action of button b. Unknown buttons are ignored.
func (s *Screen) Press(b transport.Button) {
	s.log.Debug("button pressed", logx.String("button", string(b)))
	k := s.Kinds()
	switch b {
	case transport.ButtonPeople:
		s.postPeople()
	case transport.ButtonBool:
		notification.Post(s.bus, k.Boolean, true, notification.WithSender(s))
	case transport.ButtonGeneric:
		notification.Post(s.bus, k.Generic, "This is a payload", notification.WithSender(s))
	case transport.ButtonFree:
		notification.PostSignal(s.bus, k.PayloadFree, notification.WithSender(s))
	default:
		s.log.Warn("unknown button", logx.String("button", string(b)))
	}
}

var people = []Person{
	{Name: "Amanda", Job: SoftwareDeveloper},
	{Name: "Erica", Job: Designer},
	{Name: "Joe", Job: ConArtist},
}

// postPeople posts Amanda now and the others one delay apart.
func (s *Screen) postPeople() {
	s.mu.Lock()
	delay := s.opts.PeopleDelay
	s.mu.Unlock()

	var batch []func()
	for i, p := range people {
		post := func() {
			notification.Post(s.bus, s.Kinds().Person, p, notification.WithSender(s))
		}
		if i == 0 || s.later == nil {
			post()
			continue
		}
		batch = append(batch, s.later.After(time.Duration(i)*delay, post))
	}
	// Only the latest batch is tracked; earlier ones have fired or will be
	// dropped by the loop when it stops.
	s.mu.Lock()
	s.delayed = batch
	s.mu.Unlock()
}

// Heartbeat posts the heartbeat signal with tick count n.
func (s *Screen) Heartbeat(n uint64) {
	notification.PostSignal(s.bus, s.Kinds().Heartbeat, notification.WithSender(s), notification.WithMetadata(TickKey, n))
}

// Close cancels pending delayed posts and unregisters every observer.
func (s *Screen) Close() {
	s.mu.Lock()
	delayed := s.delayed
	s.delayed = nil
	s.mu.Unlock()
	for _, c := range delayed {
		c()
	}
	s.unregister()
}
