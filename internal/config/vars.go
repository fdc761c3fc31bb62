// Package config resolves the -v/--vars CLI inputs into the mapping the
// script host pre-populates its `vars` global with (§6). Action-option
// validation lives in internal/actions (Decode), grounded directly on the
// teacher's internal/config.validatorInstance singleton pattern there, so
// this package carries no validator of its own.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	hpgerrors "github.com/hpg-dev/hpg/pkg/errors"
)

// ParseVarFlags turns repeated -v/--var KEY=VALUE flags into a mapping.
// Every value is a string; a config that needs a richer type should use
// --vars FILE instead (§6).
func ParseVarFlags(flags []string) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(flags))
	for _, flag := range flags {
		key, value, ok := strings.Cut(flag, "=")
		if !ok || key == "" {
			return nil, hpgerrors.NewConfigParseError(flag, 0, fmt.Errorf("-v/--var must be KEY=VALUE"))
		}
		out[key] = value
	}
	return out, nil
}

// LoadVarsFile reads a --vars FILE as JSON into a mapping.
func LoadVarsFile(path string) (map[string]interface{}, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, hpgerrors.NewConfigParseError(path, 0, err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, hpgerrors.NewConfigParseError(path, 0, err)
	}
	return out, nil
}

// MergeVars combines --vars FILE values and -v flag values into the single
// mapping the script host pre-populates `vars` with, in the precedence
// order §6 requires: CLI -v overrides --vars file values. In-config
// defaults are lower precedence still: the merged mapping is installed as
// the `vars` global before the script loads, and the script fills in its
// own defaults only for keys still unset (`vars.x = vars.x or "default"`).
func MergeVars(fileVars, flagVars map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fileVars)+len(flagVars))
	for k, v := range fileVars {
		out[k] = v
	}
	for k, v := range flagVars {
		out[k] = v
	}
	return out
}
