package sshdriver

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"

	hpgerrors "github.com/hpg-dev/hpg/pkg/errors"
)

// Dial opens an SSH connection to t, authenticating with its identity file
// (falling back to $HOME/.ssh/id_rsa when none is given). Host key
// verification is intentionally skipped: §4.6's Non-goals exclude
// known_hosts management, so every connection trusts whatever key the
// target presents.
func Dial(t Target) (*ssh.Client, error) {
	keyPath := t.IdentityFile
	if keyPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, hpgerrors.NewSshError(t.Address, "resolve default identity file", err)
		}
		keyPath = home + "/.ssh/id_rsa"
	}

	keyBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, hpgerrors.NewSshError(t.Address, fmt.Sprintf("read identity file %s", keyPath), err)
	}
	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, hpgerrors.NewSshError(t.Address, "parse identity file", err)
	}

	cfg := &ssh.ClientConfig{
		User:            t.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	addr := fmt.Sprintf("%s:%d", t.Address, t.Port)
	client, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, hpgerrors.NewSshError(t.Address, "dial", err)
	}
	return client, nil
}

// UploadAgent streams agentBinary's content to remotePath over its own
// session (`cat > path && chmod +x path`), so the driver never assumes the
// agent is pre-installed on the target.
func UploadAgent(client *ssh.Client, agentBinary []byte, remotePath string) error {
	session, err := client.NewSession()
	if err != nil {
		return hpgerrors.NewSshError(client.RemoteAddr().String(), "open upload session", err)
	}
	defer session.Close()

	session.Stdin = bytes.NewReader(agentBinary)
	cmd := fmt.Sprintf("cat > %s && chmod +x %s", shellQuote(remotePath), shellQuote(remotePath))
	if err := session.Run(cmd); err != nil {
		return hpgerrors.NewSshError(client.RemoteAddr().String(), "upload agent", err)
	}
	return nil
}

// Session wraps a running remote agent's stdio: Read/Write carry transport
// frames over the session's stdout/stdin, while the session's stderr is
// forwarded live to errOut (the operator's terminal), grounded on the
// teacher's RunStreaming fan-out of a subprocess's stderr.
type Session struct {
	session *ssh.Session
	stdin   io.WriteCloser
	stdout  io.Reader
}

func (s *Session) Read(p []byte) (int, error)  { return s.stdout.Read(p) }
func (s *Session) Write(p []byte) (int, error) { return s.stdin.Write(p) }
func (s *Session) Close() error {
	s.stdin.Close()
	return s.session.Close()
}

// StartAgent execs remotePath on the target, wiring stdin/stdout for the
// transport frame stream and stderr to errOut.
func StartAgent(client *ssh.Client, remotePath string, errOut io.Writer) (*Session, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, hpgerrors.NewSshError(client.RemoteAddr().String(), "open agent session", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, hpgerrors.NewSshError(client.RemoteAddr().String(), "open agent stdin", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, hpgerrors.NewSshError(client.RemoteAddr().String(), "open agent stdout", err)
	}
	session.Stderr = errOut

	if err := session.Start(remotePath); err != nil {
		session.Close()
		return nil, hpgerrors.NewSshError(client.RemoteAddr().String(), "start agent", err)
	}

	return &Session{session: session, stdin: stdin, stdout: stdout}, nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}
