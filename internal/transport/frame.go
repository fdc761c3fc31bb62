// Package transport implements HPG's wire protocol (§4.4): a length-prefixed
// stream of msgpack-encoded frames exchanged between the SSH driver and the
// remote agent. Grounded structurally on the RPC framing shape found in
// hashicorp-nomad's plugin driver stack (length-prefixed, tagged-union
// payloads over a byte stream) — no pack file's framing code literally calls
// vmihailenco/msgpack, so the payload codec itself is written from that
// library's own documented API (see DESIGN.md).
package transport

import "github.com/hpg-dev/hpg/internal/events"

// Kind discriminates the tagged union making up a Frame (§4.4's frame kind
// table).
type Kind string

const (
	KindHello        Kind = "hello"
	KindHelloAck     Kind = "hello_ack"
	KindSyncStart    Kind = "sync_start"
	KindSyncNeed     Kind = "sync_need"
	KindDeltaRequest Kind = "delta_request"
	KindSignature    Kind = "signature"
	KindPatch        Kind = "patch"
	KindFullFile     Kind = "full_file"
	KindDelete       Kind = "delete"
	KindSyncEnd      Kind = "sync_end"
	KindInvoke       Kind = "invoke"
	KindEvent        Kind = "event"
	KindDone         Kind = "done"
	KindError        Kind = "error"
)

// ProtocolVersion is the semver-compatible triple exchanged in Hello/
// HelloAck; a major-version mismatch is fatal (§6 "Wire protocol").
var ProtocolVersion = [3]int{1, 0, 0}

// FileEntry names one project file plus its content hash and mode, used by
// SyncStart (driver's known tree) and implicitly by FullFile/Patch targets.
type FileEntry struct {
	Path     string `msgpack:"path"`
	Hash     string `msgpack:"hash"`
	Mode     uint32 `msgpack:"mode"`
	Symlink  string `msgpack:"symlink,omitempty"` // target, if this entry is a symlink
}

// Frame is the single wire shape every frame kind is carried in; fields
// irrelevant to a given Kind are left zero. One struct keeps the codec a
// single msgpack.Marshal/Unmarshal call regardless of kind, at the cost of
// an unused-field allowance the Kind discriminant resolves at the call site.
type Frame struct {
	Kind Kind `msgpack:"kind"`

	// Hello / HelloAck
	Version [3]int `msgpack:"version,omitempty"`

	// SyncStart
	Files []FileEntry `msgpack:"files,omitempty"`

	// SyncNeed
	Paths []string `msgpack:"paths,omitempty"`

	// DeltaRequest / Signature / Patch / FullFile / Delete
	Path       string `msgpack:"path,omitempty"`
	SignatureBytes []byte `msgpack:"sig_bytes,omitempty"`
	DeltaBytes     []byte `msgpack:"delta_bytes,omitempty"`
	Bytes      []byte `msgpack:"bytes,omitempty"`
	Mode       uint32 `msgpack:"mode,omitempty"`
	Symlink    string `msgpack:"symlink,omitempty"`
	Compressed bool   `msgpack:"compressed,omitempty"`

	// Invoke
	ConfigPath string                 `msgpack:"cfg_path,omitempty"`
	Targets    []string               `msgpack:"targets,omitempty"`
	Vars       map[string]interface{} `msgpack:"vars,omitempty"`
	ShowOnly   bool                   `msgpack:"show_only,omitempty"`
	ListOnly   bool                   `msgpack:"list_only,omitempty"`
	DefaultTargets bool               `msgpack:"default_targets,omitempty"`

	// Event
	Event *events.Event `msgpack:"event,omitempty"`

	// Done
	ExitCode int `msgpack:"exit_code,omitempty"`

	// Error
	Message string `msgpack:"message,omitempty"`
}
