// Package useraction implements the "user" action: create a system user
// account if it does not exist, or modify an existing one, by shelling out
// to the standard POSIX account-management tools (useradd/usermod) —
// grounded on the same subprocess-capture pattern as internal/actions/exec,
// since no pack library wraps /etc/passwd editing directly. An existing
// account is reported unchanged only when neither shell nor groups is
// given; otherwise usermod runs (groups with --append) and the result
// reports a change without comparing the account's current shell or
// groups. Groups themselves are not created: groupadd is never run.
package useraction

import (
	"context"
	"fmt"
	"os/exec"
	"os/user"
	"strings"

	"github.com/hpg-dev/hpg/internal/actions"
)

// Options are the recognized keys for the "user" action.
type Options struct {
	actions.CommonOptions `mapstructure:",squash"`
	Name   string   `mapstructure:"name" validate:"required"`
	Group  string   `mapstructure:"group"`
	Groups []string `mapstructure:"groups"`
	Shell  string   `mapstructure:"shell"`
	Home   string   `mapstructure:"home"`
	System bool     `mapstructure:"system"`
}

// Action creates or updates a user account.
type Action struct{}

func (Action) Name() string { return "user" }

func (Action) Run(ctx context.Context, opts actions.Options) (*actions.Result, error) {
	var o Options
	if err := actions.Decode(opts, &o); err != nil {
		return nil, err
	}

	_, lookupErr := user.Lookup(o.Name)
	exists := lookupErr == nil

	if !exists {
		args := []string{}
		if o.System {
			args = append(args, "--system")
		}
		if o.Group != "" {
			args = append(args, "--gid", o.Group)
		}
		if o.Shell != "" {
			args = append(args, "--shell", o.Shell)
		}
		if o.Home != "" {
			args = append(args, "--home-dir", o.Home, "--create-home")
		}
		if len(o.Groups) > 0 {
			args = append(args, "--groups", strings.Join(o.Groups, ","))
		}
		args = append(args, o.Name)

		if err := runQuiet(ctx, "useradd", args...); err != nil {
			return nil, fmt.Errorf("user: useradd %s: %w", o.Name, err)
		}
		return &actions.Result{Changed: true, Detail: fmt.Sprintf("created user %s", o.Name)}, nil
	}

	if len(o.Groups) == 0 && o.Shell == "" {
		return &actions.Result{Changed: false, Detail: "user already present, nothing to modify"}, nil
	}

	args := []string{}
	if o.Shell != "" {
		args = append(args, "--shell", o.Shell)
	}
	if len(o.Groups) > 0 {
		args = append(args, "--groups", strings.Join(o.Groups, ","), "--append")
	}
	args = append(args, o.Name)
	if err := runQuiet(ctx, "usermod", args...); err != nil {
		return nil, fmt.Errorf("user: usermod %s: %w", o.Name, err)
	}
	return &actions.Result{Changed: true, Detail: fmt.Sprintf("updated user %s", o.Name)}, nil
}

func runQuiet(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}
