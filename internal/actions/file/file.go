// Package file implements the "file" action: write, copy, or idempotently
// append a marked block to a file. Change detection hashes content with
// SHA-256 rather than relying on mtimes, grounded on the teacher's copy
// plugin's Check/Apply split.
package file

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hpg-dev/hpg/internal/actions"
	"github.com/hpg-dev/hpg/pkg/diff"
)

// Options are the recognized keys for the "file" action. The operation
// follows from which key is set: Block (append-with-marker) wins over Source
// (copy), which wins over Content (write); setting more than one is not
// rejected.
type Options struct {
	actions.CommonOptions `mapstructure:",squash"`
	Path    string `mapstructure:"path" validate:"required"`
	Content string `mapstructure:"content"`
	Source  string `mapstructure:"source"`
	Block   string `mapstructure:"block"`
	Marker  string `mapstructure:"marker"`
	Mode    string `mapstructure:"mode"`
}

// Action implements write/copy/append-with-marker file operations.
type Action struct{}

func (Action) Name() string { return "file" }

func (Action) Run(ctx context.Context, opts actions.Options) (*actions.Result, error) {
	var o Options
	if err := actions.Decode(opts, &o); err != nil {
		return nil, err
	}

	mode, err := parseMode(o.Mode)
	if err != nil {
		return nil, err
	}

	switch {
	case o.Block != "":
		return appendMarkedBlock(o.Path, o.Block, markerOrDefault(o.Marker), mode)
	case o.Source != "":
		return copyFile(o.Source, o.Path, mode)
	default:
		return writeContent(o.Path, []byte(o.Content), mode)
	}
}

func parseMode(s string) (os.FileMode, error) {
	if s == "" {
		return 0o644, nil
	}
	var m uint32
	if _, err := fmt.Sscanf(s, "%o", &m); err != nil {
		return 0, fmt.Errorf("file: invalid mode %q: %w", s, err)
	}
	return os.FileMode(m), nil
}

func markerOrDefault(m string) string {
	if m == "" {
		return "hpg-managed"
	}
	return m
}

func writeContent(path string, content []byte, mode os.FileMode) (*actions.Result, error) {
	existing, readErr := os.ReadFile(path)
	if readErr == nil && bytes.Equal(existing, content) {
		return &actions.Result{Changed: false, Detail: "content already matches"}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("file: mkdir parent: %w", err)
	}
	if err := os.WriteFile(path, content, mode); err != nil {
		return nil, fmt.Errorf("file: write %s: %w", path, err)
	}
	detail := fmt.Sprintf("wrote %s", path)
	if readErr == nil {
		if rendered := diff.RenderChangeDetail(existing, content, path); rendered != "" {
			detail = rendered
		}
	}
	return &actions.Result{Changed: true, Detail: detail}, nil
}

func copyFile(src, dst string, mode os.FileMode) (*actions.Result, error) {
	srcHash, err := hashFile(src)
	if err != nil {
		return nil, fmt.Errorf("file: hash source %s: %w", src, err)
	}
	if dstHash, err := hashFile(dst); err == nil && dstHash == srcHash {
		return &actions.Result{Changed: false, Detail: "destination already matches source"}, nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("file: mkdir parent: %w", err)
	}
	in, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("file: open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_RDWR|os.O_TRUNC, mode)
	if err != nil {
		return nil, fmt.Errorf("file: open destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return nil, fmt.Errorf("file: copy: %w", err)
	}
	return &actions.Result{Changed: true, Detail: fmt.Sprintf("copied %s -> %s", src, dst)}, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// appendMarkedBlock implements the append-with-marker protocol (§4.2): the
// block is wrapped between "<marker> BEGIN <hash>" and "<marker> END
// <hash>" lines, where hash is the SHA-256 of the block content. On re-run
// the region is located by marker *prefix* (the hash suffix may differ
// from a stale prior run); the hash is compared and the region rewritten
// only on mismatch. Distinct markers coexist untouched in the same file.
func appendMarkedBlock(path, block, marker string, mode os.FileMode) (*actions.Result, error) {
	body := []byte(block)
	if len(body) == 0 || body[len(body)-1] != '\n' {
		body = append(body, '\n')
	}
	hash := fmt.Sprintf("%x", sha256.Sum256(body))
	beginPrefix := []byte(fmt.Sprintf("%s BEGIN ", marker))
	endPrefix := []byte(fmt.Sprintf("%s END ", marker))
	begin := []byte(fmt.Sprintf("%s BEGIN %s\n", marker, hash))
	end := []byte(fmt.Sprintf("%s END %s\n", marker, hash))
	managed := append(append(append([]byte{}, begin...), body...), end...)

	existing, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("file: read %s: %w", path, err)
		}
		existing = nil
	}

	beginIdx := indexLineWithPrefix(existing, beginPrefix)
	endIdx := indexLineWithPrefix(existing, endPrefix)
	var next []byte
	if beginIdx >= 0 && endIdx > beginIdx {
		endLineEnd := endIdx + bytes.IndexByte(existing[endIdx:], '\n') + 1
		if bytes.Equal(existing[beginIdx:endLineEnd], managed) {
			return &actions.Result{Changed: false, Detail: "marked block already up to date"}, nil
		}
		next = append(append([]byte{}, existing[:beginIdx]...), managed...)
		next = append(next, existing[endLineEnd:]...)
	} else {
		next = append(append([]byte{}, existing...), managed...)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("file: mkdir parent: %w", err)
	}
	if err := os.WriteFile(path, next, mode); err != nil {
		return nil, fmt.Errorf("file: write %s: %w", path, err)
	}
	return &actions.Result{Changed: true, Detail: fmt.Sprintf("updated marked block %q in %s", marker, path)}, nil
}

// indexLineWithPrefix returns the byte offset of the start of the first
// line in data beginning with prefix, or -1.
func indexLineWithPrefix(data, prefix []byte) int {
	offset := 0
	for {
		idx := bytes.Index(data[offset:], prefix)
		if idx < 0 {
			return -1
		}
		pos := offset + idx
		if pos == 0 || data[pos-1] == '\n' {
			return pos
		}
		offset = pos + 1
	}
}
