package notification

import "testing"

var packings = []Packing{PackMetadata, PackSubject}

func TestPayloadRoundTrip(t *testing.T) {
	for _, p := range packings {
		boolKind := NewKind[bool]("test.bool", WithPacking(p))
		for _, v := range []bool{true, false} {
			got, ok := PayloadOf(boolKind.Carrier(v), boolKind)
			if !ok || got != v {
				t.Fatalf("%v: bool round trip = (%v, %v), want (%v, true)", p, got, ok, v)
			}
		}

		personKind := NewKind[person]("test.person", WithPacking(p))
		amanda := person{Name: "Amanda", Job: "Software Developer"}
		got, ok := personKind.Payload(personKind.Carrier(amanda))
		if !ok || got != amanda {
			t.Fatalf("%v: person round trip = (%+v, %v)", p, got, ok)
		}

		anyKind := NewKind[any]("test.any", WithPacking(p))
		v, ok := PayloadOf(anyKind.Carrier(42), anyKind)
		if !ok || v != 42 {
			t.Fatalf("%v: any round trip = (%v, %v)", p, v, ok)
		}
	}
}

func TestPayloadTypeMismatchIsAbsent(t *testing.T) {
	for _, p := range packings {
		boolKind := NewKind[bool]("test.bool", WithPacking(p))
		stringKind := NewKind[string]("test.string", WithPacking(p))
		c := boolKind.Carrier(true)

		if v, ok := PayloadOf(c, stringKind); ok || v != "" {
			t.Fatalf("%v: unrelated kind got (%q, %v)", p, v, ok)
		}

		// Same name, different payload shape: deliberate reuse still fails soft.
		reused := NewKind[string]("test.bool", WithPacking(p))
		if v, ok := PayloadOf(c, reused); ok || v != "" {
			t.Fatalf("%v: reused name got (%q, %v)", p, v, ok)
		}
	}
}

func TestPayloadFreeCarrierHasNoPayload(t *testing.T) {
	sig := NewSignal("test.signal")
	c := sig.Carrier(WithSender("someone"), WithMetadata("k", "v"))
	for _, p := range packings {
		other := NewKind[string]("test.other", WithPacking(p))
		if v, ok := PayloadOf(c, other); ok {
			t.Fatalf("%v: signal carrier yielded payload %q", p, v)
		}
	}

	// Even under a shared name the metadata slot stays empty.
	sameName := NewKind[any]("test.signal")
	if v, ok := PayloadOf(c, sameName); ok {
		t.Fatalf("signal carrier yielded payload %v", v)
	}
	bare := NewKind[any]("test.signal", WithPacking(PackSubject))
	if v, ok := PayloadOf(sig.Carrier(), bare); ok {
		t.Fatalf("sender-less signal carrier yielded payload %v", v)
	}

	if c.Subject != "someone" || c.Metadata["k"] != "v" {
		t.Fatalf("signal carrier = %+v", c)
	}
}

func TestSignalSenderIsNotASubjectPayload(t *testing.T) {
	type screen struct{ id int }
	sender := &screen{1}
	c := NewSignal("test.shared").Carrier(WithSender(sender))

	subj := NewKind[*screen]("test.shared", WithPacking(PackSubject))
	if v, ok := PayloadOf(c, subj); ok {
		t.Fatalf("payload-free carrier yielded payload %v (the sender)", v)
	}
	anySubj := NewKind[any]("test.shared", WithPacking(PackSubject))
	if v, ok := PayloadOf(c, anySubj); ok {
		t.Fatalf("payload-free carrier yielded payload %v", v)
	}

	// The marker of a subject-packed carrier is not a metadata payload either.
	packed := anySubj.Carrier(sender)
	if v, ok := PayloadOf(packed, NewKind[any]("test.shared")); ok {
		t.Fatalf("subject-packed carrier yielded metadata payload %v", v)
	}
}

func TestPackingMismatchIsAbsent(t *testing.T) {
	meta := NewKind[bool]("test.bool")
	subj := NewKind[bool]("test.bool", WithPacking(PackSubject))
	if _, ok := PayloadOf(meta.Carrier(true), subj); ok {
		t.Fatalf("subject reader found payload in metadata-packed carrier")
	}
	if _, ok := PayloadOf(subj.Carrier(true), meta); ok {
		t.Fatalf("metadata reader found payload in subject-packed carrier")
	}
}

func TestMetadataPackingKeepsSender(t *testing.T) {
	k := NewKind[int]("test.int")
	sender := &struct{ id int }{1}
	c := k.Carrier(7, WithSender(sender), WithMetadata("trace", "abc"))

	if s, ok := k.Sender(c); !ok || s != sender {
		t.Fatalf("Sender = (%v, %v)", s, ok)
	}
	if c.Metadata["trace"] != "abc" {
		t.Fatalf("caller metadata lost: %v", c.Metadata)
	}
	if v, ok := k.Payload(c); !ok || v != 7 {
		t.Fatalf("payload = (%v, %v)", v, ok)
	}
}

func TestSubjectPackingHasNoSender(t *testing.T) {
	k := NewKind[int]("test.int", WithPacking(PackSubject))
	c := k.Carrier(7, WithSender("ignored"))
	if c.Subject != 7 {
		t.Fatalf("subject = %v, want payload", c.Subject)
	}
	if _, ok := k.Sender(c); ok {
		t.Fatalf("subject-packed kind reported a sender")
	}
}

func TestCallerMetadataCannotShadowPayload(t *testing.T) {
	k := NewKind[int]("test.int")
	c := k.Carrier(7, WithMetadata(payloadKey, "evil"), WithMetadata("", "dropped"))
	if v, ok := k.Payload(c); !ok || v != 7 {
		t.Fatalf("payload = (%v, %v)", v, ok)
	}
	if _, ok := c.Metadata[""]; ok {
		t.Fatalf("empty metadata key should be ignored")
	}
}

func TestNilInterfacePayloadIsAbsent(t *testing.T) {
	for _, p := range packings {
		k := NewKind[error]("test.err", WithPacking(p))
		if _, ok := k.Payload(k.Carrier(nil)); ok {
			t.Fatalf("%v: nil interface payload should be absent", p)
		}
	}
}

func TestZeroKindNeverMatches(t *testing.T) {
	var k Kind[bool]
	if _, ok := PayloadOf(Carrier{}, k); ok {
		t.Fatalf("zero kind matched empty carrier")
	}
}
