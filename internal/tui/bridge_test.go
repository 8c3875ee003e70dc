package tui

import (
	"testing"
	"time"

	"github.com/pennypal/pennypal/internal/session"
)

func TestBridgeKeepsNewestEvent(t *testing.T) {
	b := newSessionBridge()
	defer b.close()

	b.publish(session.Event{Seq: 1, Type: session.EventSignedIn})
	b.publish(session.Event{Seq: 2, Type: session.EventTokenRefreshed})
	b.publish(session.Event{Seq: 3, Type: session.EventSignedOut})

	msg, ok := b.wait()().(sessionMsg)
	if !ok {
		t.Fatal("wait did not return a session message")
	}
	if msg.ev.Seq != 3 || msg.ev.Type != session.EventSignedOut {
		t.Fatalf("got event %+v, want seq 3 SIGNED_OUT", msg.ev)
	}
}

func TestBridgePublishNeverBlocks(t *testing.T) {
	b := newSessionBridge()
	defer b.close()

	done := make(chan struct{})
	go func() {
		for i := range 1000 {
			b.publish(session.Event{Seq: int64(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked without a reader")
	}
}

func TestBridgeWaitReturnsAfterClose(t *testing.T) {
	b := newSessionBridge()
	got := make(chan any, 1)
	go func() { got <- b.wait()() }()

	b.close()
	select {
	case msg := <-got:
		if msg != nil {
			t.Fatalf("wait after close returned %v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("wait did not return after close")
	}
}
