package notification_test

import (
	"testing"

	"typednotify/pkg/eventbus"
	"typednotify/pkg/notification"
)

type job int

const (
	softwareDeveloper job = iota
	designer
)

type person struct {
	Name string
	Job  job
}

var (
	personKind  = notification.NewKind[person]("test.person")
	booleanKind = notification.NewKind[bool]("test.boolean")
	freeSignal  = notification.NewSignal("test.free")
)

func TestDeliveryScenario(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()

	amanda := person{Name: "Amanda", Job: softwareDeveloper}

	var received []notification.Carrier
	notification.Register(bus, personKind, func(c notification.Carrier) {
		received = append(received, c)
	})

	notification.Post(bus, personKind, amanda)

	if len(received) != 1 {
		t.Fatalf("observer invoked %d times, want 1", len(received))
	}
	got, ok := notification.PayloadOf(received[0], personKind)
	if !ok || got != amanda {
		t.Fatalf("payload = (%+v, %v), want (%+v, true)", got, ok, amanda)
	}
}

func TestPostWithoutObservers(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()

	notification.Post(bus, personKind, person{Name: "Nobody"})
	notification.PostSignal(bus, freeSignal)

	if st := bus.Stats(); st.Published != 2 || st.Delivered != 0 || st.Panics != 0 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestNilBusIsNoop(t *testing.T) {
	notification.Post(nil, booleanKind, true)
	notification.PostSignal(nil, freeSignal)
	notification.Register(nil, booleanKind, func(notification.Carrier) {})()
	notification.RegisterSignal(nil, freeSignal, func(notification.Carrier) {})()
}

func TestBooleanOrdering(t *testing.T) {
	for _, p := range []notification.Packing{notification.PackMetadata, notification.PackSubject} {
		bus := eventbus.New()
		kind := notification.NewKind[bool]("test.boolean", notification.WithPacking(p))

		var got []bool
		notification.Observe(bus, kind, func(v bool, _ notification.Carrier) {
			got = append(got, v)
		})

		notification.Post(bus, kind, true)
		notification.Post(bus, kind, false)
		bus.Close()

		if len(got) != 2 || got[0] != true || got[1] != false {
			t.Fatalf("%v: received %v, want [true false]", p, got)
		}
	}
}

func TestObserveSkipsAbsentPayloads(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()

	calls := 0
	notification.Observe(bus, booleanKind, func(bool, notification.Carrier) { calls++ })

	// Same name, different payload shape.
	reused := notification.NewKind[string]("test.boolean")
	notification.Post(bus, reused, "not a bool")
	if calls != 0 {
		t.Fatalf("typed observer saw a mismatched payload")
	}

	notification.Post(bus, booleanKind, true)
	if calls != 1 {
		t.Fatalf("typed observer calls = %d, want 1", calls)
	}
}

func TestSignalDelivery(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()

	var got []notification.Carrier
	notification.RegisterSignal(bus, freeSignal, func(c notification.Carrier) { got = append(got, c) })

	notification.PostSignal(bus, freeSignal, notification.WithMetadata("n", 3))
	if len(got) != 1 {
		t.Fatalf("signal delivered %d times", len(got))
	}
	if got[0].Metadata["n"] != 3 {
		t.Fatalf("metadata = %v", got[0].Metadata)
	}
	if _, ok := notification.PayloadOf(got[0], booleanKind); ok {
		t.Fatalf("signal carried a payload")
	}
}

func TestRegisterWithSubjectFilter(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()

	type screen struct{ name string }
	left, right := &screen{"left"}, &screen{"right"}

	var fromLeft []bool
	notification.Observe(bus, booleanKind, func(v bool, _ notification.Carrier) {
		fromLeft = append(fromLeft, v)
	}, notification.WithSubject(left))

	notification.Post(bus, booleanKind, true, notification.WithSender(right))
	notification.Post(bus, booleanKind, false, notification.WithSender(left))

	if len(fromLeft) != 1 || fromLeft[0] != false {
		t.Fatalf("filtered observer received %v, want [false]", fromLeft)
	}
}

func TestDuplicateRegistrationAndCancel(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()

	n := 0
	fn := func(notification.Carrier) { n++ }
	cancelA := notification.Register(bus, booleanKind, fn)
	cancelB := notification.Register(bus, booleanKind, fn)

	notification.Post(bus, booleanKind, true)
	if n != 2 {
		t.Fatalf("duplicate registration delivered %d, want 2", n)
	}

	cancelA()
	cancelA()
	notification.Post(bus, booleanKind, true)
	if n != 3 {
		t.Fatalf("after one cancel delivered total %d, want 3", n)
	}

	cancelB()
	notification.Post(bus, booleanKind, true)
	if n != 3 {
		t.Fatalf("delivered after all cancels")
	}
}

type generic[T any] struct{ payload T }

func TestGenericKindsStayApart(t *testing.T) {
	stringKind := notification.KindFor[generic[string], string]()
	intKind := notification.KindFor[generic[int], int]()
	if stringKind.Name() == intKind.Name() {
		t.Fatalf("generic instantiations share name %q", stringKind.Name())
	}

	bus := eventbus.New()
	defer bus.Close()

	var strs []string
	ints := 0
	notification.Observe(bus, stringKind, func(s string, _ notification.Carrier) { strs = append(strs, s) })
	notification.Observe(bus, intKind, func(int, notification.Carrier) { ints++ })

	notification.Post(bus, stringKind, "This is a payload")
	if len(strs) != 1 || strs[0] != "This is a payload" || ints != 0 {
		t.Fatalf("strs=%v ints=%d", strs, ints)
	}
}
