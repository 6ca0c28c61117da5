package ws

import (
	"context"
	"testing"
	"time"

	"github.com/RonaldHZzzz/project-predict-traffic/internal/domain"
)

func TestAddAndRemoveThroughHubLoop(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	c := &client{id: "c1", send: make(chan []byte, 1)}
	if !h.add(c) {
		t.Fatal("add failed on a running hub")
	}

	h.BroadcastScene(domain.Scene{Loading: true})
	select {
	case <-c.send:
	case <-time.After(time.Second):
		t.Fatal("registered client received no frame")
	}

	h.remove(c)
	select {
	case _, open := <-c.send:
		if open {
			t.Fatal("expected send channel closed on removal")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed on removal")
	}
}

func TestAddAfterShutdownFailsFast(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	cancel()

	select {
	case <-h.done:
	case <-time.After(time.Second):
		t.Fatal("hub did not shut down")
	}

	// a late upgrade must not hang on the register channel
	result := make(chan bool, 1)
	go func() {
		result <- h.add(&client{id: "late", send: make(chan []byte, 1)})
	}()

	select {
	case ok := <-result:
		if ok {
			t.Error("add reported success on a stopped hub")
		}
	case <-time.After(time.Second):
		t.Fatal("add blocked on a stopped hub")
	}

	// removal after shutdown must not block either
	removed := make(chan struct{})
	go func() {
		h.remove(&client{id: "gone", send: make(chan []byte, 1)})
		close(removed)
	}()
	select {
	case <-removed:
	case <-time.After(time.Second):
		t.Fatal("remove blocked on a stopped hub")
	}
}
