package notification

import (
	"reflect"

	"typednotify/pkg/eventbus"
)

// Carrier is the untyped envelope handed to observers.
type Carrier = eventbus.Event

// Bus is the subset of eventbus.Center the typed layer needs.
type Bus = eventbus.Bus

// Packing selects where a kind stores its payload inside a Carrier.
type Packing int

const (
	// PackMetadata stores the payload under a reserved metadata key and
	// leaves Subject free for the sender.
	PackMetadata Packing = iota
	// PackSubject stores the payload in Subject. Senders cannot be attached.
	PackSubject
)

func (p Packing) String() string {
	switch p {
	case PackMetadata:
		return "metadata"
	case PackSubject:
		return "subject"
	default:
		return "unknown"
	}
}

// payloadKey is never exposed; callers cannot collide with it.
const payloadKey = "\x00typednotify.payload"

// subjectPacked marks a carrier whose Subject holds the payload, so a
// payload-free carrier's sender is never read back as one.
type subjectPacked struct{}

// Kind is a payload-bearing notification kind whose payload has type P.
type Kind[P any] struct {
	name    string
	packing Packing
}

type KindOption func(*kindOptions)

type kindOptions struct {
	packing Packing
}

// WithPacking overrides the default PackMetadata strategy.
func WithPacking(p Packing) KindOption {
	return func(o *kindOptions) { o.packing = p }
}

// NewKind declares a kind with an explicit name. It panics on an empty name.
func NewKind[P any](name string, opts ...KindOption) Kind[P] {
	if name == "" {
		panic("notification: empty kind name")
	}
	var ko kindOptions
	for _, o := range opts {
		if o != nil {
			o(&ko)
		}
	}
	return Kind[P]{name: name, packing: ko.packing}
}

// KindFor declares a kind named after the Go type T.
func KindFor[T, P any](opts ...KindOption) Kind[P] {
	return NewKind[P](NameOf[T](), opts...)
}

func (k Kind[P]) Name() string { return k.name }
func (k Kind[P]) Packing() Packing { return k.packing }
func (k Kind[P]) String() string { return k.name }
func (k Kind[P]) IsZero() bool { return k.name == "" }

// Signal is a payload-free notification kind.
type Signal struct {
	name string
}

// NewSignal declares a signal with an explicit name. It panics on an empty name.
func NewSignal(name string) Signal {
	if name == "" {
		panic("notification: empty signal name")
	}
	return Signal{name: name}
}

// SignalFor declares a signal named after the Go type T.
func SignalFor[T any]() Signal {
	return NewSignal(NameOf[T]())
}

func (s Signal) Name() string { return s.name }
func (s Signal) String() string { return s.name }
func (s Signal) IsZero() bool { return s.name == "" }

// NameOf derives a stable identifier from the type T.
//
// Named types render as "<import path>.<name>"; generic instantiations keep
// their type arguments fully qualified, so GenericNotification[string] and
// GenericNotification[int] never collide. Pointers are prefixed with "*".
// Unnamed types fall back to their type literal.
func NameOf[T any]() string {
	return typeName(reflect.TypeFor[T]())
}

func typeName(t reflect.Type) string {
	if t.Kind() == reflect.Pointer && t.Name() == "" {
		return "*" + typeName(t.Elem())
	}
	if t.Name() == "" {
		return t.String()
	}
	if pkg := t.PkgPath(); pkg != "" {
		return pkg + "." + t.Name()
	}
	return t.Name()
}
