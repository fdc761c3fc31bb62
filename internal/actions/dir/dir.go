// Package dir implements the "dir" action: ensure a directory exists with
// the given mode, or ensure a symlink points at a target. Grounded on the
// teacher's copyDirectory mode-preservation logic generalized to a
// stand-alone directory/symlink operation.
package dir

import (
	"context"
	"fmt"
	"os"

	"github.com/hpg-dev/hpg/internal/actions"
)

// Options are the recognized keys for the "dir" action. Setting Symlink
// makes Path a symlink pointing at Symlink instead of creating a plain
// directory.
type Options struct {
	actions.CommonOptions `mapstructure:",squash"`
	Path    string `mapstructure:"path" validate:"required"`
	Mode    string `mapstructure:"mode"`
	Symlink string `mapstructure:"symlink"`
}

// Action ensures a directory or symlink exists.
type Action struct{}

func (Action) Name() string { return "dir" }

func (Action) Run(ctx context.Context, opts actions.Options) (*actions.Result, error) {
	var o Options
	if err := actions.Decode(opts, &o); err != nil {
		return nil, err
	}
	if o.Symlink != "" {
		return ensureSymlink(o.Path, o.Symlink)
	}
	return ensureDir(o.Path, o.Mode)
}

func ensureDir(path, modeStr string) (*actions.Result, error) {
	mode := os.FileMode(0o755)
	if modeStr != "" {
		var m uint32
		if _, err := fmt.Sscanf(modeStr, "%o", &m); err != nil {
			return nil, fmt.Errorf("dir: invalid mode %q: %w", modeStr, err)
		}
		mode = os.FileMode(m)
	}

	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return nil, fmt.Errorf("dir: %s exists and is not a directory", path)
		}
		if info.Mode().Perm() == mode.Perm() {
			return &actions.Result{Changed: false, Detail: "directory already present"}, nil
		}
		if err := os.Chmod(path, mode); err != nil {
			return nil, fmt.Errorf("dir: chmod %s: %w", path, err)
		}
		return &actions.Result{Changed: true, Detail: fmt.Sprintf("chmod %s to %o", path, mode.Perm())}, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("dir: stat %s: %w", path, err)
	}
	if err := os.MkdirAll(path, mode); err != nil {
		return nil, fmt.Errorf("dir: mkdir %s: %w", path, err)
	}
	return &actions.Result{Changed: true, Detail: fmt.Sprintf("created %s", path)}, nil
}

func ensureSymlink(path, target string) (*actions.Result, error) {
	current, err := os.Readlink(path)
	if err == nil {
		if current == target {
			return &actions.Result{Changed: false, Detail: "symlink already correct"}, nil
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("dir: replace existing symlink: %w", err)
		}
	} else if _, statErr := os.Lstat(path); statErr == nil {
		return nil, fmt.Errorf("dir: %s exists and is not a symlink", path)
	}
	if err := os.Symlink(target, path); err != nil {
		return nil, fmt.Errorf("dir: symlink %s -> %s: %w", path, target, err)
	}
	return &actions.Result{Changed: true, Detail: fmt.Sprintf("linked %s -> %s", path, target)}, nil
}
