// Package transport provides a plaintext-or-TLS transport ladder:
// SecureOptions configures whether and how TLS is used, ConnectionContext
// holds the TLS configuration handed to every accepted connection (one
// context can be shared by all workers), and ConnectionDescriptor wraps one accepted socket, completing
// the TLS handshake on construction when secure mode is enabled.
package transport

import (
	"crypto/tls"
	"fmt"
	"net"
	"time"
)

// SecureOptions describes whether connections are served over TLS and, if
// so, holds the long-lived TLS configuration built from the configured
// certificate and key.
type SecureOptions struct {
	enabled bool
	tlsCfg  *tls.Config
}

// NewPlainOptions returns options for an unencrypted server.
func NewPlainOptions() *SecureOptions {
	return &SecureOptions{enabled: false}
}

// NewSecureOptions loads the certificate/key pair at certPath/keyPath and
// returns options for a TLS-enabled server. It fails fast, mirroring the
// original's load-cert/load-key/check-match sequence: LoadX509KeyPair itself
// verifies that the private key matches the certificate.
func NewSecureOptions(certPath, keyPath string) (*SecureOptions, error) {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("transport: loading certificate pair: %w", err)
	}

	return &SecureOptions{
		enabled: true,
		tlsCfg: &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		},
	}, nil
}

// IsSecure reports whether TLS is enabled.
func (o *SecureOptions) IsSecure() bool {
	return o != nil && o.enabled
}

// ConnectionContext is the handle used to wrap accepted sockets. Go's
// tls.Config is safe for concurrent use by multiple goroutines, so unlike the
// original's per-worker SSL context object, a ConnectionContext here carries
// no mutable state of its own — it just remembers which SecureOptions it was
// built from — and cmd/server shares a single one across all workers.
type ConnectionContext struct {
	opts *SecureOptions
}

// NewConnectionContext builds a context from shared options.
func NewConnectionContext(opts *SecureOptions) *ConnectionContext {
	return &ConnectionContext{opts: opts}
}

// ConnectionDescriptor is a polymorphic, plaintext-or-TLS handle for one
// accepted connection.
type ConnectionDescriptor struct {
	conn   net.Conn
	secure bool
}

// Accept wraps an accepted net.Conn, completing a server-side TLS handshake
// when the context is secure. The returned descriptor is only observable
// once any handshake has succeeded.
func (c *ConnectionContext) Accept(conn net.Conn) (*ConnectionDescriptor, error) {
	if !c.opts.IsSecure() {
		return &ConnectionDescriptor{conn: conn, secure: false}, nil
	}

	tlsConn := tls.Server(conn, c.opts.tlsCfg)
	if err := tlsConn.Handshake(); err != nil {
		tlsConn.Close()
		return nil, fmt.Errorf("transport: TLS handshake: %w", err)
	}

	return &ConnectionDescriptor{conn: tlsConn, secure: true}, nil
}

// Read reads from the underlying connection, TLS-decrypting transparently
// when secure.
func (d *ConnectionDescriptor) Read(buf []byte) (int, error) {
	return d.conn.Read(buf)
}

// Write writes to the underlying connection, TLS-encrypting transparently
// when secure.
func (d *ConnectionDescriptor) Write(buf []byte) (int, error) {
	return d.conn.Write(buf)
}

// Close tears the connection down. For a secure descriptor this drives the
// TLS close_notify exchange; a half-closed peer is treated as a clean
// teardown rather than an error, since Close's own contract only promises
// "no further I/O", not peer acknowledgement.
func (d *ConnectionDescriptor) Close() error {
	return d.conn.Close()
}

// IsSecure reports whether this descriptor is TLS-wrapped.
func (d *ConnectionDescriptor) IsSecure() bool {
	return d.secure
}

// RemoteAddr returns the descriptor's peer address.
func (d *ConnectionDescriptor) RemoteAddr() net.Addr {
	return d.conn.RemoteAddr()
}

// SetReadDeadline forwards to the underlying connection, bounding how long a
// read may block.
func (d *ConnectionDescriptor) SetReadDeadline(t time.Time) error {
	return d.conn.SetReadDeadline(t)
}
