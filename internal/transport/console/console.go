// Package console drives the demo screen from a terminal: one command per
// line on the input, the label printed on the output whenever it changes.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"typednotify/internal/transport"
	logx "typednotify/pkg/logx"
)

type Transport struct {
	in  io.Reader
	log logx.Logger

	mu   sync.Mutex
	out  io.Writer
	last string

	quit func()
}

// New reads commands from in and writes labels to out. quit, if set, is
// called on the "quit" command or when the input ends.
func New(in io.Reader, out io.Writer, log logx.Logger, quit func()) *Transport {
	return &Transport{in: in, out: out, log: log.With(logx.String("comp", "transport.console")), quit: quit}
}

func (t *Transport) Name() string { return "console" }

// Show prints label unless it is the one printed last.
func (t *Transport) Show(label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if label == t.last {
		return
	}
	t.last = label
	fmt.Fprintf(t.out, "\n%s\n> ", label)
}

func (t *Transport) help() {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, 4)
	for _, b := range transport.Buttons() {
		names = append(names, string(b))
	}
	fmt.Fprintf(t.out, "commands: %s, help, quit\n> ", strings.Join(names, ", "))
}

// Run returns when ctx is done or the input ends. A blocked read on a
// terminal is left behind when ctx is canceled.
func (t *Transport) Run(ctx context.Context, presses chan<- transport.Press) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		sc := bufio.NewScanner(t.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-stop:
				return
			}
		}
		errc <- sc.Err()
	}()

	t.help()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			if t.quit != nil {
				t.quit()
			}
			if err != nil {
				return fmt.Errorf("console: read input: %w", err)
			}
			return nil
		case line := <-lines:
			if t.handle(line, presses) {
				if t.quit != nil {
					t.quit()
				}
				return nil
			}
		}
	}
}

// handle reports whether the line asked to quit.
func (t *Transport) handle(line string, presses chan<- transport.Press) bool {
	cmd := strings.ToLower(strings.TrimSpace(line))
	switch cmd {
	case "":
		return false
	case "quit", "exit", "q":
		return true
	case "help", "?":
		t.help()
		return false
	}
	b, ok := transport.ParseButton(cmd)
	if !ok {
		t.log.Warn("unknown command", logx.String("cmd", cmd))
		t.help()
		return false
	}
	if !transport.Forward(presses, transport.Press{Button: b, Source: t.Name()}) {
		t.log.Warn("press dropped (queue full)", logx.String("button", string(b)))
	}
	return false
}
