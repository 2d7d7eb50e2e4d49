package notification

// PayloadOf extracts k's payload from c.
//
// It reports false, never panics, when c was posted under another name,
// when c carries no payload (signals, even with a sender attached), when c
// was packed the other way, or when the stored value is not a P.
// A nil payload of an interface type P also reads as absent.
func PayloadOf[P any](c Carrier, k Kind[P]) (P, bool) {
	var zero P
	if k.name == "" || c.Name != k.name {
		return zero, false
	}

	slot, ok := c.Metadata[payloadKey]
	if !ok {
		return zero, false
	}
	_, marked := slot.(subjectPacked)

	var raw any
	switch k.packing {
	case PackSubject:
		if !marked {
			return zero, false
		}
		raw = c.Subject
	default:
		if marked {
			return zero, false
		}
		raw = slot
	}

	p, ok := raw.(P)
	if !ok {
		return zero, false
	}
	return p, true
}

// Payload is PayloadOf with the kind as receiver.
func (k Kind[P]) Payload(c Carrier) (P, bool) {
	return PayloadOf(c, k)
}

// Sender returns the Subject attached with WithSender. PackSubject kinds
// have no sender slot and always report false.
func (k Kind[P]) Sender(c Carrier) (any, bool) {
	if k.packing == PackSubject || c.Subject == nil {
		return nil, false
	}
	return c.Subject, true
}
