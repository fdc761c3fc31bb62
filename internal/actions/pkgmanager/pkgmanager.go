// Package pkgmanager implements the "pkg" action: install packages and
// refresh the package manager's repository index, with the index refresh
// memoized per-process (§4.2 "Repo update memoization") so a config that
// calls pkg{packages=..., update=true} multiple times doesn't re-run
// `apt update` every time.
package pkgmanager

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/hpg-dev/hpg/internal/actions"
	"golang.org/x/sync/singleflight"
)

// Options are the recognized keys for the "pkg" action.
type Options struct {
	actions.CommonOptions `mapstructure:",squash"`
	Packages []string `mapstructure:"packages" validate:"required,min=1"`
	Update   bool     `mapstructure:"update"`
	Force    bool     `mapstructure:"force"`
}

// updateGroup and updateDone implement the per-process memoization table:
// the first call to refresh the repo index in a run wins; later calls in
// the same process no-op unless Force is set.
var (
	updateGroup singleflight.Group
	updateDone  bool
	updateMu    sync.Mutex
)

// Action installs packages via the system package manager, optionally
// refreshing the repository index first.
type Action struct {
	// Manager is the system package manager binary to invoke; defaults to
	// "apt-get" when empty. Overridable for tests.
	Manager string
}

func (Action) Name() string { return "pkg" }

func (a Action) Run(ctx context.Context, opts actions.Options) (*actions.Result, error) {
	var o Options
	if err := actions.Decode(opts, &o); err != nil {
		return nil, err
	}

	manager := a.Manager
	if manager == "" {
		manager = "apt-get"
	}

	var updateDetail string
	if o.Update {
		detail, err := refreshIndex(ctx, manager, o.Force)
		if err != nil {
			return nil, err
		}
		updateDetail = detail
	}

	installCmd := exec.CommandContext(ctx, manager, append([]string{"install", "-y"}, o.Packages...)...)
	out, err := installCmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pkg: install %s: %s: %w", strings.Join(o.Packages, ","), strings.TrimSpace(string(out)), err)
	}

	detail := fmt.Sprintf("installed %s", strings.Join(o.Packages, ","))
	if updateDetail != "" {
		detail = updateDetail + "; " + detail
	}
	return &actions.Result{Changed: true, Detail: detail}, nil
}

func refreshIndex(ctx context.Context, manager string, force bool) (string, error) {
	updateMu.Lock()
	alreadyDone := updateDone && !force
	updateMu.Unlock()
	if alreadyDone {
		return "repo index already refreshed this run", nil
	}

	v, err, _ := updateGroup.Do("refresh", func() (interface{}, error) {
		cmd := exec.CommandContext(ctx, manager, "update")
		out, err := cmd.CombinedOutput()
		if err != nil {
			return nil, fmt.Errorf("pkg: %s update: %s: %w", manager, strings.TrimSpace(string(out)), err)
		}
		updateMu.Lock()
		updateDone = true
		updateMu.Unlock()
		return "refreshed repo index", nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// ResetMemoization clears the per-process update-done flag; exposed for
// tests that need a clean slate across cases.
func ResetMemoization() {
	updateMu.Lock()
	defer updateMu.Unlock()
	updateDone = false
}
