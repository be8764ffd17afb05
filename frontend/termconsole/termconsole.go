// Package termconsole implements frontend.InputBackend by reading raw
// stdin, grounded on the teacher's TerminalHost (terminal_host.go):
// term.MakeRaw plus a non-blocking read loop on its own goroutine,
// generalized from feeding one MMIO device's byte queue into dispatching
// frontend.InputEvent{Kind: EventKeyboard} to every registered listener.
package termconsole

import (
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/intuitionamiga/emux/frontend"
)

// Backend is a terminal-raw-mode frontend.InputBackend.
type Backend struct {
	fd           int
	oldTermState *term.State
	nonblockSet  bool

	stopCh  chan struct{}
	done    chan struct{}
	stopped sync.Once

	mu        sync.Mutex
	listeners []frontend.InputConfig
	pending   []frontend.InputEvent
}

// New constructs an unopened Backend.
func New() *Backend {
	return &Backend{stopCh: make(chan struct{}), done: make(chan struct{})}
}

// Init implements frontend.InputBackend. window is unused: a terminal
// has no window handle, but the parameter is part of the shared
// contract every backend implements.
func (b *Backend) Init(window any) error {
	b.fd = int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(b.fd)
	if err != nil {
		return err
	}
	b.oldTermState = oldState

	if err := syscall.SetNonblock(b.fd, true); err != nil {
		_ = term.Restore(b.fd, b.oldTermState)
		b.oldTermState = nil
		return err
	}
	b.nonblockSet = true

	go b.readLoop()
	return nil
}

func (b *Backend) readLoop() {
	defer close(b.done)
	buf := make([]byte, 1)
	for {
		select {
		case <-b.stopCh:
			return
		default:
		}
		n, err := syscall.Read(b.fd, buf)
		if n > 0 {
			c := buf[0]
			if c == '\r' {
				c = '\n'
			}
			if c == 0x7F {
				c = 0x08
			}
			b.queue(c)
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return
		}
		if n == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func (b *Backend) queue(c byte) {
	ev := frontend.InputEvent{Kind: frontend.EventKeyboard, Key: string(c)}
	if c == 0x03 { // Ctrl+C
		ev = frontend.InputEvent{Kind: frontend.EventQuit}
	}
	b.mu.Lock()
	b.pending = append(b.pending, ev)
	b.mu.Unlock()
}

// Update implements frontend.InputBackend: dispatches every event queued
// since the last call to every listener whose Events include that
// event's kind.
func (b *Backend) Update() {
	b.mu.Lock()
	events := b.pending
	b.pending = nil
	listeners := append([]frontend.InputConfig(nil), b.listeners...)
	b.mu.Unlock()

	for _, ev := range events {
		for _, l := range listeners {
			if l.Callback == nil {
				continue
			}
			for _, want := range l.Events {
				if want == ev.Kind {
					l.Callback(ev)
					break
				}
			}
		}
	}
}

// Register implements frontend.InputBackend.
func (b *Backend) Register(cfg frontend.InputConfig) {
	b.mu.Lock()
	b.listeners = append(b.listeners, cfg)
	b.mu.Unlock()
}

// Close restores the terminal to its original mode and stops the read
// goroutine.
func (b *Backend) Close() {
	b.stopped.Do(func() { close(b.stopCh) })
	<-b.done
	if b.nonblockSet {
		_ = syscall.SetNonblock(b.fd, false)
		b.nonblockSet = false
	}
	if b.oldTermState != nil {
		_ = term.Restore(b.fd, b.oldTermState)
		b.oldTermState = nil
	}
}
