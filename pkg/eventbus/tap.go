package eventbus

import "sync"

// Tap returns a buffered channel that receives a copy of every published
// event regardless of name.
//
// Contract:
//   - Delivery to taps never blocks Publish.
//   - Slow taps drop events (counted in Stats().Dropped).
//   - The channel is closed by unsubscribe or by Close.
func (c *Center) Tap(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)
	id := c.seq.Add(1)

	c.tapMu.Lock()
	if c.closed.Load() {
		c.tapMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.taps[id] = ch
	c.tapMu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			c.tapMu.Lock()
			cur, ok := c.taps[id]
			delete(c.taps, id)
			c.tapMu.Unlock()
			// Close already closed it if it is gone from the map.
			if ok {
				close(cur)
			}
		})
	}
	return ch, unsub
}

func (c *Center) fanout(e Event) {
	c.tapMu.Lock()
	if len(c.taps) == 0 {
		c.tapMu.Unlock()
		return
	}
	chs := make([]chan Event, 0, len(c.taps))
	for _, ch := range c.taps {
		chs = append(chs, ch)
	}
	c.tapMu.Unlock()

	for _, ch := range chs {
		// A tap closed concurrently turns the send into a panic; treat it as a drop.
		func() {
			defer func() {
				if recover() != nil {
					c.dropped.Inc()
				}
			}()
			select {
			case ch <- e:
			default:
				c.dropped.Inc()
			}
		}()
	}
}
