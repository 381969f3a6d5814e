package session

import (
	"errors"
	"testing"
	"time"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(10)

	if err := r.Register("conn1", "127.0.0.1:4000"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if r.Count() != 1 {
		t.Errorf("expected 1 connection, got %d", r.Count())
	}

	info, ok := r.Get("conn1")
	if !ok {
		t.Fatal("expected connection to be found")
	}
	if info.RemoteAddr != "127.0.0.1:4000" {
		t.Errorf("unexpected remote addr: %s", info.RemoteAddr)
	}
}

func TestRegistry_RegisterMaxConnections(t *testing.T) {
	r := NewRegistry(1)
	r.Register("conn1", "a")

	err := r.Register("conn2", "b")
	if !errors.Is(err, ErrMaxConnectionsReached) {
		t.Errorf("expected ErrMaxConnectionsReached, got %v", err)
	}
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry(10)
	r.Register("conn1", "a")

	if err := r.Unregister("conn1"); err != nil {
		t.Fatalf("Unregister failed: %v", err)
	}
	if r.Count() != 0 {
		t.Errorf("expected 0 connections, got %d", r.Count())
	}
}

func TestRegistry_UpdateActivity(t *testing.T) {
	r := NewRegistry(10)
	r.Register("conn1", "a")

	info, _ := r.Get("conn1")
	first := info.GetLastHeardFrom()

	time.Sleep(5 * time.Millisecond)
	if err := r.UpdateActivity("conn1"); err != nil {
		t.Fatalf("UpdateActivity failed: %v", err)
	}

	info, _ = r.Get("conn1")
	if !info.GetLastHeardFrom().After(first) {
		t.Error("expected LastHeardFrom to advance")
	}
}

func TestRegistry_InactiveSince(t *testing.T) {
	r := NewRegistry(10)
	r.Register("conn1", "a")

	info, _ := r.Get("conn1")
	info.mu.Lock()
	info.LastHeardFrom = time.Now().Add(-5 * time.Minute)
	info.mu.Unlock()

	inactive := r.InactiveSince(2 * time.Minute)
	if len(inactive) != 1 || inactive[0] != "conn1" {
		t.Errorf("expected conn1 to be inactive, got %v", inactive)
	}
}

func TestRegistry_OnChangeHook(t *testing.T) {
	r := NewRegistry(10)

	var lastCount int
	r.OnChange(func(count int) { lastCount = count })

	r.Register("conn1", "a")
	if lastCount != 1 {
		t.Errorf("expected hook to observe count 1, got %d", lastCount)
	}

	r.Unregister("conn1")
	if lastCount != 0 {
		t.Errorf("expected hook to observe count 0, got %d", lastCount)
	}
}
