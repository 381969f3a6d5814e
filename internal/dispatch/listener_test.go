package dispatch

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/smukkama/ftp-core/internal/corelog"
	"github.com/smukkama/ftp-core/internal/session"
	"github.com/smukkama/ftp-core/internal/transport"
	"github.com/smukkama/ftp-core/internal/workerpool"
)

func TestListener_AcceptsAndDispatches(t *testing.T) {
	log := corelog.New("error")
	pool := workerpool.New(2, log)
	defer pool.Close()

	registry := session.NewRegistry(10)

	handled := make(chan string, 1)
	handler := func(ctx HandlerContext) error {
		handled <- ctx.ConnectionID
		ctx.Descriptor.Close()
		return nil
	}

	ln, err := New(Config{Port: 0, MaxQueueSize: 100}, pool,
		transport.NewConnectionContext(transport.NewPlainOptions()),
		registry, nil, nil, func(string, string, string) {}, log, handler)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go ln.Run(ctx)

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	select {
	case id := <-handled:
		if id == "" {
			t.Error("expected a non-empty connection id")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handler to run")
	}
}

func TestListener_RunReturnsOnCancel(t *testing.T) {
	// Nothing to dial; this test only exercises construction and the
	// immediate-cancel shutdown path (Run must return promptly once its
	// context is cancelled, with no connections ever accepted).
	log := corelog.New("error")
	pool := workerpool.New(1, log)
	defer pool.Close()

	registry := session.NewRegistry(10)

	ln, err := New(Config{Port: 0}, pool,
		transport.NewConnectionContext(transport.NewPlainOptions()),
		registry, nil, nil, func(string, string, string) {}, log,
		func(ctx HandlerContext) error { return nil })
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ln.Run(ctx) }()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
