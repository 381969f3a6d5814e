package transport

import (
	"net"
	"testing"
)

func TestConnectionContext_PlainAccept(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	ctx := NewConnectionContext(NewPlainOptions())
	descriptor, err := ctx.Accept(server)
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	defer descriptor.Close()

	if descriptor.IsSecure() {
		t.Error("expected a plain descriptor")
	}

	go func() {
		client.Write([]byte("hello"))
	}()

	buf := make([]byte, 5)
	n, err := descriptor.Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Errorf("expected 'hello', got %q", buf[:n])
	}
}

func TestNewSecureOptions_MissingFiles(t *testing.T) {
	_, err := NewSecureOptions("/nonexistent/cert.pem", "/nonexistent/key.pem")
	if err == nil {
		t.Error("expected error loading nonexistent certificate pair")
	}
}

func TestSecureOptions_IsSecure(t *testing.T) {
	plain := NewPlainOptions()
	if plain.IsSecure() {
		t.Error("plain options should not be secure")
	}

	var nilOpts *SecureOptions
	if nilOpts.IsSecure() {
		t.Error("nil options should report not secure")
	}
}
