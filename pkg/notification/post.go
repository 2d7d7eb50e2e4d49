package notification

// PostOption configures a single post.
type PostOption func(*postOptions)

type postOptions struct {
	sender any
	meta   map[string]any
}

// WithSender attaches the posting object as the carrier's Subject.
// Kinds packed with PackSubject ignore it since Subject holds the payload.
func WithSender(v any) PostOption {
	return func(o *postOptions) { o.sender = v }
}

// WithMetadata adds a free-form metadata entry to the carrier.
func WithMetadata(key string, v any) PostOption {
	return func(o *postOptions) {
		if key == "" {
			return
		}
		if o.meta == nil {
			o.meta = map[string]any{}
		}
		o.meta[key] = v
	}
}

func collectPostOptions(opts []PostOption) postOptions {
	var po postOptions
	for _, o := range opts {
		if o != nil {
			o(&po)
		}
	}
	return po
}

// Carrier packs payload the way this kind's packing strategy says,
// without publishing it.
func (k Kind[P]) Carrier(payload P, opts ...PostOption) Carrier {
	po := collectPostOptions(opts)
	c := Carrier{Name: k.name, Metadata: po.meta}
	if c.Metadata == nil {
		c.Metadata = make(map[string]any, 1)
	}
	// Written last so caller metadata can never shadow the payload slot.
	switch k.packing {
	case PackSubject:
		c.Subject = payload
		c.Metadata[payloadKey] = subjectPacked{}
	default:
		c.Subject = po.sender
		c.Metadata[payloadKey] = payload
	}
	return c
}

// Carrier builds the payload-free carrier for this signal.
func (s Signal) Carrier(opts ...PostOption) Carrier {
	po := collectPostOptions(opts)
	return Carrier{Name: s.name, Subject: po.sender, Metadata: po.meta}
}

// Post publishes payload on bus under kind k.
//
// Every observer registered for k runs before Post returns. Having no
// observers is not an error.
func Post[P any](bus Bus, k Kind[P], payload P, opts ...PostOption) {
	if bus == nil {
		return
	}
	bus.Publish(k.Carrier(payload, opts...))
}

// PostSignal publishes a payload-free notification.
func PostSignal(bus Bus, s Signal, opts ...PostOption) {
	if bus == nil {
		return
	}
	bus.Publish(s.Carrier(opts...))
}
