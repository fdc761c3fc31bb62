package sshdriver

import (
	"errors"
	"fmt"
	"io"

	"github.com/hpg-dev/hpg/internal/events"
	"github.com/hpg-dev/hpg/internal/transport"
	hpgerrors "github.com/hpg-dev/hpg/pkg/errors"
)

// InvokeOptions mirrors executor.Options for the parts that cross the wire.
type InvokeOptions struct {
	ConfigPath     string
	Targets        []string
	Vars           map[string]interface{}
	Show           bool
	List           bool
	DefaultTargets bool
}

// Handshake exchanges Hello/HelloAck and fails fast on a protocol version
// mismatch (§6 "Wire protocol": "a major-version mismatch is fatal").
func Handshake(sess *Session) error {
	if err := transport.WriteFrame(sess, transport.Frame{Kind: transport.KindHello, Version: transport.ProtocolVersion}); err != nil {
		return err
	}
	reply, err := transport.ReadFrame(sess)
	if err != nil {
		return err
	}
	switch reply.Kind {
	case transport.KindHelloAck:
		if reply.Version[0] != transport.ProtocolVersion[0] {
			return hpgerrors.NewSshError("", "protocol handshake",
				fmt.Errorf("agent speaks protocol v%d, driver speaks v%d", reply.Version[0], transport.ProtocolVersion[0]))
		}
		return nil
	case transport.KindError:
		return hpgerrors.NewSshError("", "protocol handshake", fmt.Errorf("%s", reply.Message))
	default:
		return hpgerrors.NewSshError("", "protocol handshake", fmt.Errorf("unexpected reply kind %s", reply.Kind))
	}
}

// Invoke sends the Invoke frame and streams Event frames to sink until a
// Done or Error frame ends the run, returning the remote exit code.
func Invoke(sess *Session, opts InvokeOptions, sink events.Sink) (int, error) {
	err := transport.WriteFrame(sess, transport.Frame{
		Kind:           transport.KindInvoke,
		ConfigPath:     opts.ConfigPath,
		Targets:        opts.Targets,
		Vars:           opts.Vars,
		ShowOnly:       opts.Show,
		ListOnly:       opts.List,
		DefaultTargets: opts.DefaultTargets,
	})
	if err != nil {
		return 0, err
	}

	for {
		frame, err := transport.ReadFrame(sess)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return 0, hpgerrors.NewAgentCrashedError("remote host", "channel closed before Done frame")
			}
			return 0, err
		}
		switch frame.Kind {
		case transport.KindEvent:
			if frame.Event != nil {
				sink.Emit(*frame.Event)
			}
		case transport.KindDone:
			return frame.ExitCode, nil
		case transport.KindError:
			return 0, hpgerrors.NewSshError("", "remote run", fmt.Errorf("%s", frame.Message))
		default:
			return 0, hpgerrors.NewSshError("", "remote run", fmt.Errorf("unexpected frame kind %s", frame.Kind))
		}
	}
}
