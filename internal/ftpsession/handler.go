// Package ftpsession implements the per-connection FTP control-channel
// handler: it writes the greeting, reads and parses command lines, and
// drives a pluggable CommandHandler for command semantics (out of the
// core's scope). It plugs into dispatch.Listener as a dispatch.Handler.
package ftpsession

import (
	"errors"
	"io"
	"time"

	"github.com/smukkama/ftp-core/internal/audit"
	"github.com/smukkama/ftp-core/internal/corelog"
	"github.com/smukkama/ftp-core/internal/dispatch"
	"github.com/smukkama/ftp-core/internal/ftp"
	"github.com/smukkama/ftp-core/internal/linereader"
)

// CommandHandler executes the semantics of a recognized command; the core
// only classifies and parses commands, it never implements transfer or
// file-system behavior itself.
type CommandHandler interface {
	Handle(connectionID string, cmd *ftp.Command) (reply string, quit bool)
}

// NoopCommandHandler acknowledges every command generically and quits on
// QUIT; it exists so the core is runnable standalone without a full FTP
// command-semantics implementation wired in.
type NoopCommandHandler struct{}

// Handle implements CommandHandler.
func (NoopCommandHandler) Handle(_ string, cmd *ftp.Command) (string, bool) {
	switch cmd.Code {
	case ftp.CodeQuit:
		return "221 Goodbye.\r\n", true
	case ftp.CodeNoop:
		return "200 NOOP ok.\r\n", false
	case ftp.CodePwd:
		return "257 \"/\" is the current directory.\r\n", false
	case ftp.CodeSyst:
		return "215 UNIX Type: L8\r\n", false
	default:
		return "202 Command recognized but not implemented.\r\n", false
	}
}

// Config controls per-connection behavior.
type Config struct {
	InactivityTimeout time.Duration
}

// NewHandler returns a dispatch.Handler driving the FTP control-channel
// state machine over cmds.
func NewHandler(cfg Config, cmds CommandHandler) dispatch.Handler {
	return func(hctx dispatch.HandlerContext) error {
		return run(hctx, cfg, cmds)
	}
}

func run(hctx dispatch.HandlerContext, cfg Config, cmds CommandHandler) error {
	remoteAddr := hctx.Descriptor.RemoteAddr().String()

	if err := hctx.Registry.Register(hctx.ConnectionID, remoteAddr); err != nil {
		hctx.Descriptor.Close()
		return err
	}
	hctx.Publish(hctx.ConnectionID, "connection_opened", remoteAddr)
	if hctx.Audit != nil {
		hctx.Audit.Record(audit.Record{
			ConnectionID: hctx.ConnectionID,
			RemoteAddr:   remoteAddr,
			Kind:         audit.EventConnectionOpened,
		})
	}
	if hctx.Logger != nil {
		corelog.ForConnection(hctx.Logger, hctx.ConnectionID).WithField("remote_addr", remoteAddr).Info("connection opened")
	}

	defer func() {
		hctx.Registry.Unregister(hctx.ConnectionID)
		if hctx.IdleTimer != nil {
			hctx.IdleTimer.Cancel(hctx.ConnectionID)
		}
		hctx.Publish(hctx.ConnectionID, "connection_closed", remoteAddr)
		if hctx.Audit != nil {
			hctx.Audit.Record(audit.Record{
				ConnectionID: hctx.ConnectionID,
				RemoteAddr:   remoteAddr,
				Kind:         audit.EventConnectionClosed,
			})
		}
		if hctx.Logger != nil {
			corelog.ForConnection(hctx.Logger, hctx.ConnectionID).Info("connection closed")
		}
		hctx.Descriptor.Close()
	}()

	if _, err := hctx.Descriptor.Write([]byte(ftp.Greeting)); err != nil {
		return err
	}

	if hctx.IdleTimer != nil && cfg.InactivityTimeout > 0 {
		rearmIdleTimer(hctx, cfg)
	}

	reader := linereader.New(hctx.Descriptor)

	for {
		line, err := reader.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				hctx.Descriptor.Write([]byte(ftp.ReadErrorReply))
			}
			return nil
		}

		hctx.Registry.UpdateActivity(hctx.ConnectionID)
		if hctx.IdleTimer != nil && cfg.InactivityTimeout > 0 {
			rearmIdleTimer(hctx, cfg)
		}

		cmd, err := ftp.Parse(line)
		if err != nil {
			hctx.Descriptor.Write([]byte(ftp.SyntaxErrorReply))
			if hctx.Audit != nil {
				hctx.Audit.Record(audit.Record{
					ConnectionID: hctx.ConnectionID,
					RemoteAddr:   remoteAddr,
					Kind:         audit.EventCommandMalformed,
					Detail:       err.Error(),
				})
			}
			if hctx.Logger != nil {
				corelog.ForConnection(hctx.Logger, hctx.ConnectionID).WithError(err).Warn("malformed command, terminating connection")
			}
			return nil
		}

		reply, quit := cmds.Handle(hctx.ConnectionID, cmd)
		if reply != "" {
			if _, err := hctx.Descriptor.Write([]byte(reply)); err != nil {
				return nil
			}
		}
		if quit {
			return nil
		}
	}
}

func rearmIdleTimer(hctx dispatch.HandlerContext, cfg Config) {
	hctx.IdleTimer.Schedule(hctx.ConnectionID, time.Now().Add(cfg.InactivityTimeout), func() {
		hctx.Descriptor.Close()
	})
}
