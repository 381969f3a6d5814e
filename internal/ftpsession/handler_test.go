package ftpsession

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/smukkama/ftp-core/internal/dispatch"
	"github.com/smukkama/ftp-core/internal/ftp"
	"github.com/smukkama/ftp-core/internal/session"
	"github.com/smukkama/ftp-core/internal/transport"
)

func TestHandler_GreetingAndQuit(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	registry := session.NewRegistry(10)
	connCtx := transport.NewConnectionContext(transport.NewPlainOptions())

	descriptor, err := connCtx.Accept(serverConn)
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	handler := NewHandler(Config{}, NoopCommandHandler{})

	done := make(chan error, 1)
	go func() {
		done <- handler(dispatch.HandlerContext{
			ConnectionID: "conn1",
			Descriptor:   descriptor,
			Registry:     registry,
			Publish:      func(string, string, string) {},
		})
	}()

	clientReader := bufio.NewReader(clientConn)

	greeting, err := clientReader.ReadString('\n')
	if err != nil {
		t.Fatalf("reading greeting failed: %v", err)
	}
	if greeting != ftp.Greeting {
		t.Errorf("unexpected greeting: %q", greeting)
	}

	clientConn.Write([]byte("QUIT\r\n"))

	reply, err := clientReader.ReadString('\n')
	if err != nil {
		t.Fatalf("reading reply failed: %v", err)
	}
	if reply != "221 Goodbye.\r\n" {
		t.Errorf("unexpected reply: %q", reply)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("handler returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after QUIT")
	}

	if registry.Count() != 0 {
		t.Errorf("expected connection to be unregistered, got count %d", registry.Count())
	}
}

func TestHandler_SyntaxErrorReply(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	registry := session.NewRegistry(10)
	connCtx := transport.NewConnectionContext(transport.NewPlainOptions())
	descriptor, _ := connCtx.Accept(serverConn)

	handler := NewHandler(Config{}, NoopCommandHandler{})
	go handler(dispatch.HandlerContext{
		ConnectionID: "conn1",
		Descriptor:   descriptor,
		Registry:     registry,
		Publish:      func(string, string, string) {},
	})

	clientReader := bufio.NewReader(clientConn)
	clientReader.ReadString('\n') // greeting

	clientConn.Write([]byte("AB\r\n"))
	reply, err := clientReader.ReadString('\n')
	if err != nil {
		t.Fatalf("reading reply failed: %v", err)
	}
	if reply != ftp.SyntaxErrorReply {
		t.Errorf("expected syntax error reply, got %q", reply)
	}
}
