package transport

import (
	"context"
	"strings"
	"time"
)

// Button is one of the demo screen's actions.
type Button string

const (
	ButtonPeople  Button = "people"
	ButtonBool    Button = "bool"
	ButtonGeneric Button = "generic"
	ButtonFree    Button = "free"
)

// Buttons returns the screen's buttons in display order.
func Buttons() []Button {
	return []Button{ButtonPeople, ButtonBool, ButtonGeneric, ButtonFree}
}

// ParseButton accepts a button name in any case.
func ParseButton(s string) (Button, bool) {
	b := Button(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Buttons() {
		if b == known {
			return b, true
		}
	}
	return "", false
}

func (b Button) Title() string {
	switch b {
	case ButtonPeople:
		return "Post People"
	case ButtonBool:
		return "Post Bool"
	case ButtonGeneric:
		return "Post Generic"
	case ButtonFree:
		return "Post Payload Free"
	default:
		return string(b)
	}
}

// Press is a button press coming from a transport.
type Press struct {
	Button Button
	Source string // transport name
	At     time.Time
}

// Display shows the screen label.
//
// Show is called from the main loop and must not block; transports that do
// I/O keep only the latest label and render it on their own goroutine.
type Display interface {
	Show(label string)
}

// Transport reads presses and renders the label.
type Transport interface {
	Display
	Name() string
	// Run blocks until ctx is done. Presses that cannot be forwarded
	// immediately are dropped.
	Run(ctx context.Context, presses chan<- Press) error
}

// Forward sends p without blocking and reports whether it was accepted.
func Forward(presses chan<- Press, p Press) bool {
	if presses == nil {
		return false
	}
	if p.At.IsZero() {
		p.At = time.Now()
	}
	select {
	case presses <- p:
		return true
	default:
		return false
	}
}
