// Package demo is the example screen: a label, four buttons and the
// notification kinds they post.
package demo

import (
	"typednotify/pkg/notification"
)

type Job int

const (
	SoftwareDeveloper Job = iota
	Designer
	ConArtist
)

func (j Job) Title() string {
	switch j {
	case SoftwareDeveloper:
		return "Software Developer"
	case Designer:
		return "Designer"
	case ConArtist:
		return "Con Artist"
	default:
		return "Unknown"
	}
}

func (j Job) String() string { return j.Title() }

type Person struct {
	Name string
	Job  Job
}

// Marker types for reflected kind names.
type (
	PersonNotification         struct{}
	HeartbeatNotification      struct{}
	GenericNotification[T any] struct{}
)

// Kinds groups the kinds the screen posts and observes.
//
// Boolean and PayloadFree use explicit names; Person, Generic and Heartbeat
// derive theirs from the marker types above.
type Kinds struct {
	Boolean     notification.Kind[bool]
	Person      notification.Kind[Person]
	Generic     notification.Kind[string]
	PayloadFree notification.Signal
	Heartbeat   notification.Signal
}

// Names lists every kind name, payload-free ones included.
func (k Kinds) Names() []string {
	return []string{k.Boolean.Name(), k.Person.Name(), k.Generic.Name(), k.PayloadFree.Name(), k.Heartbeat.Name()}
}

// TickKey is the heartbeat metadata key holding the tick count (uint64).
const TickKey = "tick"

func NewKinds(p notification.Packing) Kinds {
	opt := notification.WithPacking(p)
	return Kinds{
		Boolean:     notification.NewKind[bool]("demo.BooleanNotification", opt),
		Person:      notification.KindFor[PersonNotification, Person](opt),
		Generic:     notification.KindFor[GenericNotification[string], string](opt),
		PayloadFree: notification.NewSignal("demo.PayloadFreeNotification"),
		Heartbeat:   notification.SignalFor[HeartbeatNotification](),
	}
}

// PackingFromConfig maps the demo.packing config value. Anything but
// "subject" means metadata.
func PackingFromConfig(s string) notification.Packing {
	if s == "subject" {
		return notification.PackSubject
	}
	return notification.PackMetadata
}
