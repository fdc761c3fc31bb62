// Package sshdriver implements the driver side of §4.6's remote execution
// mode: dial a target over SSH, upload the agent binary, exchange
// transport frames over the session's stdio, and forward its Event stream
// to the operator. Grounded structurally on the teacher's
// internal/plugins/internalexec (stream stdout/stderr while also capturing
// it) for the stdio fan-out shape; the SSH handshake and inventory file
// format have no pack counterpart and are written directly from
// golang.org/x/crypto/ssh's and BurntSushi/toml's own documented APIs.
package sshdriver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// HostEntry is one named target's connection defaults, read from an
// inventory file (§6 "Inventory file"): `-i inventory.toml` maps target
// names to connection details so the CLI's positional target can be a
// short name instead of a full user@host:port string.
type HostEntry struct {
	Address      string `toml:"address"`
	User         string `toml:"user"`
	Port         int    `toml:"port"`
	IdentityFile string `toml:"identity_file"`
}

// Inventory is the parsed inventory file: a flat table of name -> HostEntry.
type Inventory struct {
	Hosts map[string]HostEntry `toml:"hosts"`
}

// LoadInventory parses an inventory TOML file. A missing path is not an
// error here — ssh.go treats an empty inventory as "resolve the target
// string standalone" rather than failing the run.
func LoadInventory(path string) (*Inventory, error) {
	if path == "" {
		return &Inventory{}, nil
	}
	var inv Inventory
	if _, err := toml.DecodeFile(path, &inv); err != nil {
		return nil, fmt.Errorf("sshdriver: load inventory %s: %w", path, err)
	}
	return &inv, nil
}

// Target is a fully-resolved connection target after merging the CLI's
// positional argument with any inventory override.
type Target struct {
	User         string
	Address      string
	Port         int
	IdentityFile string
}

// ResolveTarget resolves a positional target argument. If the whole
// argument names an inventory entry, that entry is returned as it is (a
// zero port becomes 22). Otherwise the argument is parsed as
// `[user@]host[:port]` (port 22 when absent) with no inventory lookup; the
// two sources are never combined.
func ResolveTarget(arg string, inv *Inventory) (Target, error) {
	if arg == "" {
		return Target{}, fmt.Errorf("sshdriver: empty target")
	}

	t := Target{Port: 22}
	if inv != nil {
		if entry, ok := inv.Hosts[arg]; ok {
			t.User = entry.User
			t.Address = entry.Address
			t.Port = entry.Port
			t.IdentityFile = entry.IdentityFile
			if t.Port == 0 {
				t.Port = 22
			}
			return t, nil
		}
	}

	rest := arg
	if user, host, ok := strings.Cut(rest, "@"); ok {
		t.User = user
		rest = host
	}
	if host, port, ok := strings.Cut(rest, ":"); ok {
		t.Address = host
		p, err := strconv.Atoi(port)
		if err != nil {
			return Target{}, fmt.Errorf("sshdriver: invalid port in %q: %w", arg, err)
		}
		t.Port = p
	} else {
		t.Address = rest
	}
	return t, nil
}

func (t Target) String() string {
	return fmt.Sprintf("%s@%s:%d", t.User, t.Address, t.Port)
}
