// Package systemdaction implements the "systemd" action: start/stop/enable/
// disable a unit by calling systemd's D-Bus manager interface directly,
// rather than shelling out to systemctl.
package systemdaction

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/hpg-dev/hpg/internal/actions"
)

const (
	busName        = "org.freedesktop.systemd1"
	objectPath     = dbus.ObjectPath("/org/freedesktop/systemd1")
	managerIface   = "org.freedesktop.systemd1.Manager"
	unitIface      = "org.freedesktop.systemd1.Unit"
	propertiesFace = "org.freedesktop.DBus.Properties"
)

// Options are the recognized keys for the "systemd" action.
type Options struct {
	actions.CommonOptions `mapstructure:",squash"`
	Unit    string `mapstructure:"unit" validate:"required"`
	State   string `mapstructure:"state" validate:"omitempty,oneof=started stopped restarted"`
	Enabled *bool  `mapstructure:"enabled"`
}

// Action controls a systemd unit's run state and enablement.
type Action struct{}

func (Action) Name() string { return "systemd" }

func (Action) Run(ctx context.Context, opts actions.Options) (*actions.Result, error) {
	var o Options
	if err := actions.Decode(opts, &o); err != nil {
		return nil, err
	}

	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("systemd: connect system bus: %w", err)
	}
	defer conn.Close()

	manager := conn.Object(busName, objectPath)

	changed := false
	var details []string

	if o.State != "" {
		didChange, detail, err := applyState(conn, manager, o.Unit, o.State)
		if err != nil {
			return nil, err
		}
		changed = changed || didChange
		details = append(details, detail)
	}

	if o.Enabled != nil {
		didChange, detail, err := applyEnablement(manager, o.Unit, *o.Enabled)
		if err != nil {
			return nil, err
		}
		changed = changed || didChange
		details = append(details, detail)
	}

	detail := "no change requested"
	if len(details) > 0 {
		detail = details[0]
		for _, d := range details[1:] {
			detail += "; " + d
		}
	}
	return &actions.Result{Changed: changed, Detail: detail}, nil
}

func applyState(conn *dbus.Conn, manager dbus.BusObject, unit, state string) (bool, string, error) {
	currentState, err := activeState(conn, manager, unit)
	if err != nil {
		return false, "", fmt.Errorf("systemd: query %s state: %w", unit, err)
	}

	switch state {
	case "started":
		if currentState == "active" {
			return false, fmt.Sprintf("%s already active", unit), nil
		}
		return callUnit(manager, "StartUnit", unit)
	case "stopped":
		if currentState == "inactive" || currentState == "failed" {
			return false, fmt.Sprintf("%s already stopped", unit), nil
		}
		return callUnit(manager, "StopUnit", unit)
	case "restarted":
		return callUnit(manager, "RestartUnit", unit)
	default:
		return false, "", fmt.Errorf("systemd: unknown state %q", state)
	}
}

func callUnit(manager dbus.BusObject, method, unit string) (bool, string, error) {
	call := manager.Call("org.freedesktop.systemd1.Manager."+method, 0, unit, "replace")
	if call.Err != nil {
		return false, "", fmt.Errorf("systemd: %s %s: %w", method, unit, call.Err)
	}
	return true, fmt.Sprintf("%s %s", method, unit), nil
}

// activeState resolves a unit's real run state via its ActiveState D-Bus
// property, rather than treating a successful GetUnit lookup (which only
// confirms the unit is loaded, not running) as "active".
func activeState(conn *dbus.Conn, manager dbus.BusObject, unit string) (string, error) {
	var unitPath dbus.ObjectPath
	if err := manager.Call(managerIface+".GetUnit", 0, unit).Store(&unitPath); err != nil {
		return "inactive", nil
	}

	unitObj := conn.Object(busName, unitPath)
	var variant dbus.Variant
	if err := unitObj.Call(propertiesFace+".Get", 0, unitIface, "ActiveState").Store(&variant); err != nil {
		return "", fmt.Errorf("systemd: query %s ActiveState: %w", unit, err)
	}
	state, ok := variant.Value().(string)
	if !ok {
		return "", fmt.Errorf("systemd: unexpected ActiveState value %v for %s", variant.Value(), unit)
	}
	return state, nil
}

func applyEnablement(manager dbus.BusObject, unit string, enabled bool) (bool, string, error) {
	method := "DisableUnitFiles"
	args := []interface{}{[]string{unit}, false}
	if enabled {
		method = "EnableUnitFiles"
		args = []interface{}{[]string{unit}, false, true}
	}
	call := manager.Call("org.freedesktop.systemd1.Manager."+method, 0, args...)
	if call.Err != nil {
		return false, "", fmt.Errorf("systemd: %s %s: %w", method, unit, call.Err)
	}
	return true, fmt.Sprintf("%s %s", method, unit), nil
}
