package notification

import "typednotify/pkg/eventbus"

// RegisterOption configures a single registration.
type RegisterOption = eventbus.SubscribeOption

// WithSubject delivers only carriers whose Subject equals v.
// For PackSubject kinds the subject is the payload itself.
func WithSubject(v any) RegisterOption {
	return eventbus.WithSubject(v)
}

func noop() {}

// Register subscribes fn to every carrier posted under kind k.
//
// Registering the same callback twice delivers twice. The returned func is
// the bus's unsubscribe and is safe to call more than once.
func Register[P any](bus Bus, k Kind[P], fn func(Carrier), opts ...RegisterOption) (cancel func()) {
	if bus == nil || fn == nil {
		return noop
	}
	return bus.Subscribe(k.name, eventbus.Handler(fn), opts...)
}

// RegisterSignal subscribes fn to a payload-free signal.
func RegisterSignal(bus Bus, s Signal, fn func(Carrier), opts ...RegisterOption) (cancel func()) {
	if bus == nil || fn == nil {
		return noop
	}
	return bus.Subscribe(s.name, eventbus.Handler(fn), opts...)
}

// Observe is Register plus PayloadOf: fn only sees carriers whose payload
// is present and of type P.
func Observe[P any](bus Bus, k Kind[P], fn func(payload P, c Carrier), opts ...RegisterOption) (cancel func()) {
	if fn == nil {
		return noop
	}
	return Register(bus, k, func(c Carrier) {
		p, ok := PayloadOf(c, k)
		if !ok {
			return
		}
		fn(p, c)
	}, opts...)
}
