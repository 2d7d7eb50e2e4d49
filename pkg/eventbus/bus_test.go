package eventbus

import (
	"sync"
	"testing"
	"time"
)

func TestPublishDeliversSynchronously(t *testing.T) {
	c := New()
	defer c.Close()

	var got []Event
	c.Subscribe("ping", func(e Event) { got = append(got, e) })

	c.Publish(Event{Name: "ping", Subject: "sender"})
	if len(got) != 1 {
		t.Fatalf("delivered %d events before Publish returned, want 1", len(got))
	}
	if got[0].Subject != "sender" {
		t.Fatalf("subject = %v", got[0].Subject)
	}
	if got[0].Time.IsZero() {
		t.Fatalf("Publish should stamp Time")
	}
}

func TestPublishWithoutObserversIsNoop(t *testing.T) {
	c := New()
	defer c.Close()

	c.Publish(Event{Name: "nobody"})
	st := c.Stats()
	if st.Published != 1 || st.Delivered != 0 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestNamesAreIsolated(t *testing.T) {
	c := New()
	defer c.Close()

	var a, b int
	c.Subscribe("a", func(Event) { a++ })
	c.Subscribe("b", func(Event) { b++ })

	c.Publish(Event{Name: "a"})
	if a != 1 || b != 0 {
		t.Fatalf("a=%d b=%d", a, b)
	}
}

func TestDuplicateRegistrationDeliversTwice(t *testing.T) {
	c := New()
	defer c.Close()

	n := 0
	fn := func(Event) { n++ }
	c.Subscribe("x", fn)
	c.Subscribe("x", fn)

	c.Publish(Event{Name: "x"})
	if n != 2 {
		t.Fatalf("delivered %d, want 2", n)
	}
	if got := c.Observers("x"); got != 2 {
		t.Fatalf("Observers = %d, want 2", got)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	c := New()
	defer c.Close()

	n := 0
	unsub := c.Subscribe("x", func(Event) { n++ })
	unsub()
	unsub()

	c.Publish(Event{Name: "x"})
	if n != 0 {
		t.Fatalf("delivered after unsubscribe")
	}
	if got := c.Observers("x"); got != 0 {
		t.Fatalf("Observers = %d, want 0", got)
	}
}

func TestSubjectFilter(t *testing.T) {
	c := New()
	defer c.Close()

	type sender struct{ id int }
	s1, s2 := &sender{1}, &sender{2}

	var filtered, all int
	c.Subscribe("x", func(Event) { filtered++ }, WithSubject(s1))
	c.Subscribe("x", func(Event) { all++ })

	c.Publish(Event{Name: "x", Subject: s1})
	c.Publish(Event{Name: "x", Subject: s2})
	c.Publish(Event{Name: "x"})

	if filtered != 1 {
		t.Fatalf("filtered observer got %d, want 1", filtered)
	}
	if all != 3 {
		t.Fatalf("unfiltered observer got %d, want 3", all)
	}
}

func TestSameSubject(t *testing.T) {
	p := &struct{}{}
	cases := []struct {
		name string
		a, b any
		want bool
	}{
		{"both nil", nil, nil, true},
		{"nil vs value", nil, 1, false},
		{"equal ints", 1, 1, true},
		{"different types", 1, int64(1), false},
		{"same pointer", p, p, true},
		{"slices never match", []int{1}, []int{1}, false},
		{"struct holding slice", struct{ v any }{[]int{1}}, struct{ v any }{[]int{1}}, false},
	}
	for _, tc := range cases {
		if got := sameSubject(tc.a, tc.b); got != tc.want {
			t.Fatalf("%s: sameSubject = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestPanickingObserverDoesNotStopDelivery(t *testing.T) {
	c := New()
	defer c.Close()

	n := 0
	c.Subscribe("x", func(Event) { panic("boom") })
	c.Subscribe("x", func(Event) { n++ })

	c.Publish(Event{Name: "x"})
	if n != 1 {
		t.Fatalf("second observer not invoked")
	}
	if st := c.Stats(); st.Panics != 1 || st.Delivered != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestUnsubscribeDuringPublishSkipsRemovedObserver(t *testing.T) {
	c := New()
	defer c.Close()

	var second int
	var unsubSecond func()
	c.Subscribe("x", func(Event) { unsubSecond() })
	unsubSecond = c.Subscribe("x", func(Event) { second++ })

	c.Publish(Event{Name: "x"})
	if second != 0 {
		t.Fatalf("observer removed mid-publish was still invoked")
	}
}

func TestSubscribeDuringPublish(t *testing.T) {
	c := New()
	defer c.Close()

	late := 0
	once := sync.Once{}
	c.Subscribe("x", func(Event) {
		once.Do(func() { c.Subscribe("x", func(Event) { late++ }) })
	})

	c.Publish(Event{Name: "x"})
	if late != 0 {
		t.Fatalf("observer added mid-publish got the in-flight event")
	}
	c.Publish(Event{Name: "x"})
	if late != 1 {
		t.Fatalf("late observer got %d, want 1", late)
	}
}

func TestInvalidSubscriptions(t *testing.T) {
	c := New()
	defer c.Close()

	c.Subscribe("", func(Event) {})()
	c.Subscribe("x", nil)()
	if c.Observers("x") != 0 || c.Observers("") != 0 {
		t.Fatalf("invalid subscriptions were registered")
	}
}

func TestCloseDropsRegistrations(t *testing.T) {
	c := New()
	n := 0
	unsub := c.Subscribe("x", func(Event) { n++ })
	ch, unsubTap := c.Tap(1)

	c.Close()
	c.Close()
	c.Publish(Event{Name: "x"})
	unsub()
	unsubTap()

	if n != 0 {
		t.Fatalf("delivered after Close")
	}
	if _, ok := <-ch; ok {
		t.Fatalf("tap channel should be closed")
	}
	if c.Subscribe("x", func(Event) { n++ }); c.Observers("x") != 0 {
		t.Fatalf("Subscribe after Close should be a no-op")
	}
}

func TestTapReceivesEveryEventAndDrops(t *testing.T) {
	c := New()
	defer c.Close()

	ch, unsub := c.Tap(2)
	defer unsub()

	c.Publish(Event{Name: "a"})
	c.Publish(Event{Name: "b"})
	c.Publish(Event{Name: "c"}) // buffer full

	for _, want := range []string{"a", "b"} {
		select {
		case e := <-ch:
			if e.Name != want {
				t.Fatalf("tap got %q, want %q", e.Name, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("tap did not receive %q", want)
		}
	}
	if st := c.Stats(); st.Dropped != 1 {
		t.Fatalf("dropped = %d, want 1", st.Dropped)
	}
}

func TestConcurrentPublishSubscribe(t *testing.T) {
	c := New()
	defer c.Close()

	var mu sync.Mutex
	n := 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unsub := c.Subscribe("x", func(Event) {
				mu.Lock()
				n++
				mu.Unlock()
			})
			defer unsub()
			for j := 0; j < 50; j++ {
				c.Publish(Event{Name: "x"})
			}
		}()
		go func() {
			defer wg.Done()
			ch, unsub := c.Tap(4)
			defer unsub()
			for j := 0; j < 50; j++ {
				select {
				case <-ch:
				default:
				}
			}
		}()
	}
	wg.Wait()
	if c.Observers("x") != 0 {
		t.Fatalf("observers leaked: %d", c.Observers("x"))
	}
}

func TestTapAndSubscribeRacingClose(t *testing.T) {
	for i := 0; i < 50; i++ {
		c := New()
		var wg sync.WaitGroup
		taps := make([]<-chan Event, 8)
		for j := range taps {
			wg.Add(1)
			go func() {
				defer wg.Done()
				taps[j], _ = c.Tap(1)
				c.Subscribe("x", func(Event) {})
			}()
		}
		c.Close()
		wg.Wait()

		for j, ch := range taps {
			select {
			case _, ok := <-ch:
				if ok {
					t.Fatalf("round %d: tap %d delivered after Close", i, j)
				}
			case <-time.After(time.Second):
				t.Fatalf("round %d: tap %d never closed", i, j)
			}
		}
		if n := c.Observers("x"); n != 0 {
			t.Fatalf("round %d: %d observers survived Close", i, n)
		}
	}
}
