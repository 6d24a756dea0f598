package service

import (
	"context"
	"time"

	"fermenstation/internal/logger"
	"fermenstation/internal/models"
	"fermenstation/internal/remote"
)

// RemoteController is the backend the remote control path talks to.
type RemoteController interface {
	ValidateDevice(ctx context.Context, deviceID string) (remote.Validation, error)
	GetActiveProcess(ctx context.Context, deviceID string) (remote.ActiveProcess, error)
	ControlFermentation(ctx context.Context, req remote.ControlRequest) (remote.ControlDecision, error)
}

// UsesRemote reports whether a control cycle is decided by the backend: only
// in Station with an active binding to a non-empty process.
func UsesRemote(mode models.NetworkMode, b models.ProcessBinding) bool {
	return mode == models.ModeStation && b.Active && b.ProcessID != ""
}

// Arbiter picks the control path for each cycle and hands the result to the
// actuator. It never writes relays itself.
type Arbiter struct {
	state    *DeviceState
	remote   RemoteController
	actuator *Actuator
	keeper   *configKeeper
	rec      recorder
	metrics  Metrics
	log      *logger.Logger
	now      func() time.Time
}

// RunCycle decides and applies one cycle's relay state. On a remote failure
// the relays keep their current state until the next cycle.
func (a *Arbiter) RunCycle(ctx context.Context, r models.SensorReadings) models.ControlPath {
	cfg := a.state.Config()
	b := a.state.Binding()
	mode := a.state.Network().Mode
	before := a.state.Relays()

	var (
		path   models.ControlPath
		action string
		next   models.RelayState
	)
	if UsesRemote(mode, b) {
		path = models.PathRemote
		d, err := a.controlRemote(ctx, cfg, b, r)
		if err != nil {
			a.log.Errorw("remote_control_failed", "process_id", b.ProcessID, "error", err)
			a.metrics.ErrorCounter("remote")
			a.rec.record(ctx, a.now(), models.EventRemote, "remote control failed", map[string]any{"error": err.Error()})
			a.state.setDecision(path, "")
			a.metrics.Cycle(path)
			return path
		}
		next = models.RelayState{Heating: d.Heating, Cooling: d.Cooling, Defrost: d.Defrost}
		action = d.Action
	} else {
		path = models.PathLocal
		next, action = LocalDecision(r, cfg)
	}

	applied := a.actuator.Apply(next)
	a.state.setDecision(path, action)
	a.metrics.Cycle(path)
	a.log.Infow("control_cycle", "path", string(path), "action", action,
		"heating", applied.Heating, "cooling", applied.Cooling, "defrost", applied.Defrost)

	if applied != before {
		a.rec.record(ctx, a.now(), models.EventRelay, action, map[string]any{
			"path":    string(path),
			"heating": applied.Heating,
			"cooling": applied.Cooling,
			"defrost": applied.Defrost,
		})
	}
	return path
}

func (a *Arbiter) controlRemote(ctx context.Context, cfg models.DeviceConfig, b models.ProcessBinding,
	r models.SensorReadings) (remote.ControlDecision, error) {
	start := time.Now()
	defer a.metrics.Timing(start, "rpc_controlar_fermentacao")
	return a.remote.ControlFermentation(ctx, remote.ControlRequest{
		DeviceID:  cfg.DeviceID,
		ProcessID: b.ProcessID,
		Fermenter: r.Fermenter,
		Ambient:   r.Ambient,
		Defrost:   r.Defrost,
		Gravity:   r.Gravity,
	})
}

// Discover validates the device and looks up its active process. It runs once
// per entry into Station.
func (a *Arbiter) Discover(ctx context.Context) {
	cfg := a.state.Config()
	if cfg.DeviceID == "" {
		a.log.Warnw("discovery_skipped", "reason", "device id not configured")
		a.deactivate()
		return
	}

	v, err := a.remote.ValidateDevice(ctx, cfg.DeviceID)
	if err != nil {
		a.log.Errorw("device_validation_failed", "device_id", cfg.DeviceID, "error", err)
		a.metrics.ErrorCounter("remote")
		a.deactivate()
		return
	}
	if !v.Valid {
		a.log.Warnw("device_rejected", "device_id", cfg.DeviceID, "message", v.Message)
		a.deactivate()
		return
	}
	a.log.Infow("device_validated", "device_id", cfg.DeviceID)

	p, err := a.remote.GetActiveProcess(ctx, cfg.DeviceID)
	if err != nil {
		a.log.Errorw("process_discovery_failed", "device_id", cfg.DeviceID, "error", err)
		a.metrics.ErrorCounter("remote")
		a.deactivate()
		return
	}

	if !p.Found {
		a.log.Infow("process_not_found", "message", p.Message)
		cfg.ProcessID = ""
		a.keeper.save(ctx, cfg, "process unbound")
		a.state.SetBinding(models.ProcessBinding{})
		return
	}

	cfg.ProcessID = p.ProcessID
	cfg.LocalTargetTemperature = p.TargetTemperature
	cfg.LocalVariance = p.Variance
	a.keeper.save(ctx, cfg, "process bound")
	a.state.SetBinding(models.ProcessBinding{ProcessID: p.ProcessID, Active: true})
	a.log.Infow("process_bound", "process_id", p.ProcessID,
		"target", p.TargetTemperature, "variance", p.Variance)
	a.rec.record(ctx, a.now(), models.EventRemote, "process bound", map[string]any{"process_id": p.ProcessID})
}

func (a *Arbiter) deactivate() {
	b := a.state.Binding()
	b.Active = false
	a.state.SetBinding(b)
}
