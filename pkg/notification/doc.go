// Package notification is a typed layer over an eventbus.Bus.
//
// A notification kind is declared once, as a value:
//
//	var PersonChanged = notification.NewKind[Person]("people.changed")
//	var Refreshed = notification.NewSignal("feed.refreshed")
//
// Posters and observers only ever agree through the kind's name:
//
//	notification.Post(bus, PersonChanged, amanda)
//	notification.Observe(bus, PersonChanged, func(p Person, _ notification.Carrier) { ... })
//
// Raw observers registered with Register receive the untyped Carrier and
// recover the payload with PayloadOf, which reports absence instead of
// failing when the carrier holds something else.
//
// Names may also be derived from a Go type (KindFor, SignalFor). Explicit
// names are preferred: they survive renames and read well in logs.
package notification
