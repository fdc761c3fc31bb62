// Package httpaction implements the "http" action: an HTTP GET whose
// result is captured as a body string, a parsed JSON value, or written to
// a destination path, per §4.2's minimum action surface.
package httpaction

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hpg-dev/hpg/internal/actions"
)

// Options are the recognized keys for the "http" action. With Save set the
// body is written to that path; otherwise, with Json set, the body is parsed
// into the result's Data; otherwise the body text is returned as both Detail
// and Data. Save takes precedence over Json.
type Options struct {
	actions.CommonOptions `mapstructure:",squash"`
	URL  string `mapstructure:"url" validate:"required"`
	Save string `mapstructure:"save"`
	JSON bool   `mapstructure:"json"`
}

// Action performs an HTTP GET.
type Action struct{}

func (Action) Name() string { return "http" }

func (Action) Run(ctx context.Context, opts actions.Options) (*actions.Result, error) {
	var o Options
	if err := actions.Decode(opts, &o); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: get %s: %w", o.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("http: %s returned status %d", o.URL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("http: read body: %w", err)
	}

	if o.Save != "" {
		if err := os.MkdirAll(filepath.Dir(o.Save), 0o755); err != nil {
			return nil, fmt.Errorf("http: mkdir parent: %w", err)
		}
		existing, readErr := os.ReadFile(o.Save)
		if readErr == nil && string(existing) == string(body) {
			return &actions.Result{Changed: false, Detail: "saved content already matches"}, nil
		}
		if err := os.WriteFile(o.Save, body, 0o644); err != nil {
			return nil, fmt.Errorf("http: write %s: %w", o.Save, err)
		}
		return &actions.Result{Changed: true, Detail: fmt.Sprintf("saved %s -> %s", o.URL, o.Save)}, nil
	}

	if o.JSON {
		var parsed interface{}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("http: parse json from %s: %w", o.URL, err)
		}
		return &actions.Result{
			Changed: true,
			Detail:  fmt.Sprintf("fetched %d bytes of json", len(body)),
			Data:    parsed,
		}, nil
	}

	return &actions.Result{Changed: true, Detail: string(body), Data: string(body)}, nil
}
