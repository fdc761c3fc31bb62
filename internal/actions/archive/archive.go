// Package archive implements the "archive" action: fetch (or read locally)
// an archive and extract it into an install directory, short-circuiting
// re-extraction via a ".hpg-hash" sentinel file (§6 Persisted state).
package archive

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hpg-dev/hpg/internal/actions"
	"github.com/mholt/archiver/v3"
)

const sentinelName = ".hpg-hash"

// Options are the recognized keys for the "archive" action.
type Options struct {
	actions.CommonOptions `mapstructure:",squash"`
	Source string `mapstructure:"source" validate:"required"`
	Dest   string `mapstructure:"dest" validate:"required"`
}

// Action fetches (if Source is a URL) or reads (if a local path) an
// archive and extracts it into Dest.
type Action struct{}

func (Action) Name() string { return "archive" }

func (Action) Run(ctx context.Context, opts actions.Options) (*actions.Result, error) {
	var o Options
	if err := actions.Decode(opts, &o); err != nil {
		return nil, err
	}

	localPath, cleanup, err := materialize(ctx, o.Source)
	if err != nil {
		return nil, fmt.Errorf("archive: fetch %s: %w", o.Source, err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	hash, err := hashFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("archive: hash %s: %w", localPath, err)
	}

	sentinelPath := filepath.Join(o.Dest, sentinelName)
	if existing, err := os.ReadFile(sentinelPath); err == nil && string(existing) == hash {
		return &actions.Result{Changed: false, Detail: "already extracted at matching hash"}, nil
	}

	if err := os.MkdirAll(o.Dest, 0o755); err != nil {
		return nil, fmt.Errorf("archive: mkdir dest: %w", err)
	}
	if err := archiver.Unarchive(localPath, o.Dest); err != nil {
		return nil, fmt.Errorf("archive: extract %s: %w", localPath, err)
	}
	if err := os.WriteFile(sentinelPath, []byte(hash), 0o644); err != nil {
		return nil, fmt.Errorf("archive: write sentinel: %w", err)
	}
	return &actions.Result{Changed: true, Detail: fmt.Sprintf("extracted %s into %s", o.Source, o.Dest)}, nil
}

// materialize returns a local filesystem path for src, downloading it to a
// temp file first when it looks like an HTTP(S) URL. The returned cleanup
// func removes any temp file created; it is nil for local sources.
func materialize(ctx context.Context, src string) (string, func(), error) {
	if len(src) < 7 || (src[:7] != "http://" && (len(src) < 8 || src[:8] != "https://")) {
		return src, nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", nil, fmt.Errorf("http status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "hpg-archive-*")
	if err != nil {
		return "", nil, err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, err
	}
	tmp.Close()
	return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil
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
