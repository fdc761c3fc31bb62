// Package repo implements the "repo" action: clone a git repository if
// absent, or update it (a pull into the existing worktree; no checkout is
// made) if present — grounded on the teacher's repo plugin's Evaluate/Apply split,
// collapsed into HPG's single Run-returns-idempotent-report contract.
package repo

import (
	"context"
	"fmt"
	"os"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/hpg-dev/hpg/internal/actions"
)

// Options are the recognized keys for the "repo" action.
type Options struct {
	actions.CommonOptions `mapstructure:",squash"`
	URL         string `mapstructure:"url" validate:"required"`
	Destination string `mapstructure:"destination" validate:"required"`
	Branch      string `mapstructure:"branch"`
	Depth       int    `mapstructure:"depth"`
}

// Action clones or updates a git working copy.
type Action struct{}

func (Action) Name() string { return "repo" }

func (Action) Run(ctx context.Context, opts actions.Options) (*actions.Result, error) {
	var o Options
	if err := actions.Decode(opts, &o); err != nil {
		return nil, err
	}

	if _, err := os.Stat(o.Destination); os.IsNotExist(err) {
		return clone(ctx, o)
	} else if err != nil {
		return nil, fmt.Errorf("repo: stat %s: %w", o.Destination, err)
	}

	r, err := git.PlainOpen(o.Destination)
	if err != nil {
		return nil, fmt.Errorf("repo: %s exists but is not a git repository: %w", o.Destination, err)
	}
	return update(ctx, r, o)
}

func clone(ctx context.Context, o Options) (*actions.Result, error) {
	cloneOpts := &git.CloneOptions{URL: o.URL}
	if o.Depth > 0 {
		cloneOpts.Depth = o.Depth
	}
	if o.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(o.Branch)
		cloneOpts.SingleBranch = true
	}
	if _, err := git.PlainCloneContext(ctx, o.Destination, false, cloneOpts); err != nil {
		return nil, fmt.Errorf("repo: clone %s: %w", o.URL, err)
	}
	return &actions.Result{Changed: true, Detail: fmt.Sprintf("cloned %s into %s", o.URL, o.Destination)}, nil
}

func update(ctx context.Context, r *git.Repository, o Options) (*actions.Result, error) {
	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("repo: worktree: %w", err)
	}

	before, _ := r.Head()

	pullOpts := &git.PullOptions{RemoteName: "origin"}
	if o.Branch != "" {
		pullOpts.ReferenceName = plumbing.NewBranchReferenceName(o.Branch)
		pullOpts.SingleBranch = true
	}
	err = wt.PullContext(ctx, pullOpts)
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return nil, fmt.Errorf("repo: pull %s: %w", o.Destination, err)
	}

	after, _ := r.Head()
	if before != nil && after != nil && before.Hash() == after.Hash() {
		return &actions.Result{Changed: false, Detail: "already up to date"}, nil
	}
	return &actions.Result{Changed: true, Detail: fmt.Sprintf("updated %s", o.Destination)}, nil
}
