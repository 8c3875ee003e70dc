package tui

import (
	"github.com/pennypal/pennypal/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

// sessionMsg delivers a session change to the program.
type sessionMsg struct {
	ev session.Event
}

// sessionBridge moves session events from the Manager's publishing
// goroutine into the program. It holds at most one pending event and a
// newer event replaces an undelivered older one, so the program always
// converges on the latest session.
type sessionBridge struct {
	ch   chan session.Event
	done chan struct{}
}

func newSessionBridge() *sessionBridge {
	return &sessionBridge{
		ch:   make(chan session.Event, 1),
		done: make(chan struct{}),
	}
}

// publish is the session.Listener. It never blocks.
func (b *sessionBridge) publish(ev session.Event) {
	for {
		select {
		case b.ch <- ev:
			return
		default:
		}
		select {
		case <-b.ch:
		default:
		}
	}
}

// wait blocks until the next event or until the bridge is closed.
func (b *sessionBridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-b.ch:
			return sessionMsg{ev: ev}
		case <-b.done:
			return nil
		}
	}
}

func (b *sessionBridge) close() {
	close(b.done)
}
