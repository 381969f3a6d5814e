// Package dispatch owns the listening socket: it accepts connections,
// submits per-connection handling to the worker pool, applies back-pressure
// when the pool falls behind, and supplies the listener's part of shutdown:
// Run stops when its context is cancelled and DrainAll awaits in-flight
// connections. Signal handling itself lives in the caller.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/google/uuid"

	"github.com/smukkama/ftp-core/internal/audit"
	"github.com/smukkama/ftp-core/internal/corelog"
	"github.com/smukkama/ftp-core/internal/idletimer"
	"github.com/smukkama/ftp-core/internal/session"
	"github.com/smukkama/ftp-core/internal/transport"
	"github.com/smukkama/ftp-core/internal/workerpool"
)

// Handler processes one accepted connection to completion. It is supplied by
// the caller (e.g. the FTP session package) so dispatch itself stays
// protocol-agnostic.
type Handler func(ctx HandlerContext) error

// HandlerContext bundles everything a per-connection handler needs.
type HandlerContext struct {
	ConnectionID string
	Descriptor   *transport.ConnectionDescriptor
	Registry     *session.Registry
	IdleTimer    *idletimer.Manager
	Audit        *audit.Log
	Publish      func(connectionID, kind, detail string)
	Logger       *corelog.Logger
}

// Listener accepts connections on a TCP socket and dispatches them to a
// worker pool.
type Listener struct {
	listener net.Listener
	pool     *workerpool.Pool
	connCtx  *transport.ConnectionContext
	handler  Handler

	registry  *session.Registry
	idleTimer *idletimer.Manager
	auditLog  *audit.Log
	publish   func(connectionID, kind, detail string)
	log       *corelog.Logger

	maxQueueSize int
	inflight     []*workerpool.JobHandle
}

// Config configures a Listener.
type Config struct {
	Port         int
	MaxQueueSize int
}

// New creates a Listener bound to cfg.Port. The socket is not yet accepting
// connections until Run is called.
func New(cfg Config, pool *workerpool.Pool, connCtx *transport.ConnectionContext,
	registry *session.Registry, idleTimer *idletimer.Manager, auditLog *audit.Log,
	publish func(connectionID, kind, detail string), log *corelog.Logger, handler Handler) (*Listener, error) {

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("dispatch: binding listener: %w", err)
	}

	maxQueue := cfg.MaxQueueSize
	if maxQueue <= 0 {
		maxQueue = 100
	}

	return &Listener{
		listener:     ln,
		pool:         pool,
		connCtx:      connCtx,
		handler:      handler,
		registry:     registry,
		idleTimer:    idleTimer,
		auditLog:     auditLog,
		publish:      publish,
		log:          log,
		maxQueueSize: maxQueue,
	}, nil
}

// Addr returns the listener's bound address.
func (l *Listener) Addr() net.Addr {
	return l.listener.Addr()
}

// Run accepts connections until ctx is cancelled. On cancellation it closes
// the listening socket (unblocking any in-flight Accept) and returns. It
// never returns on a single failed Accept — only ctx cancellation or an
// unrecoverable listener error ends the loop.
func (l *Listener) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		l.listener.Close()
	}()

	for {
		conn, err := l.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			l.log.WithError(err).Warn("accept failed, continuing")
			continue
		}

		l.dispatch(conn)
	}
}

func (l *Listener) dispatch(conn net.Conn) {
	connectionID := uuid.New().String()

	handle, err := l.pool.Submit(func(info workerpool.WorkerInfo, arg any) (any, error) {
		return nil, l.handleConnection(connectionID, conn)
	}, nil)
	if err != nil {
		l.log.WithError(err).Error("submit failed, dropping connection")
		conn.Close()
		return
	}

	l.inflight = append(l.inflight, handle)
	l.drainIfOverloaded()
}

// drainIfOverloaded synchronously awaits the oldest in-flight handles when
// the queue has grown past maxQueueSize, halving it back down — the same
// back-pressure policy the reference listener applies at FTP_MAX_QUEUE_SIZE.
func (l *Listener) drainIfOverloaded() {
	if len(l.inflight) <= l.maxQueueSize {
		return
	}

	boundary := len(l.inflight) / 2
	for len(l.inflight) > boundary {
		h := l.inflight[0]
		l.inflight = l.inflight[1:]
		if _, err := workerpool.Await(h); err != nil {
			l.log.WithError(err).Warn("connection handler returned an error during drain")
		}
	}
}

// DrainAll awaits every remaining in-flight handle; called during shutdown
// before the pool itself is closed.
func (l *Listener) DrainAll() {
	for _, h := range l.inflight {
		if _, err := workerpool.Await(h); err != nil {
			l.log.WithError(err).Warn("connection handler returned an error during shutdown drain")
		}
	}
	l.inflight = nil
}

func (l *Listener) handleConnection(connectionID string, conn net.Conn) error {
	descriptor, err := l.connCtx.Accept(conn)
	if err != nil {
		if l.auditLog != nil {
			l.auditLog.Record(audit.Record{
				ConnectionID: connectionID,
				RemoteAddr:   conn.RemoteAddr().String(),
				Kind:         audit.EventHandshakeFailed,
				Detail:       err.Error(),
			})
		}
		conn.Close()
		return err
	}

	return l.handler(HandlerContext{
		ConnectionID: connectionID,
		Descriptor:   descriptor,
		Registry:     l.registry,
		IdleTimer:    l.idleTimer,
		Audit:        l.auditLog,
		Publish:      l.publish,
		Logger:       l.log,
	})
}

// Close closes the listening socket directly, without waiting for ctx
// cancellation; used when Run was never started.
func (l *Listener) Close() error {
	return l.listener.Close()
}

