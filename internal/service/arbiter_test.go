package service

import (
	"context"
	"fmt"
	"testing"

	"fermenstation/internal/hardware"
	"fermenstation/internal/models"
	"fermenstation/internal/remote"
)

type arbiterFixture struct {
	state   *DeviceState
	relays  *hardware.SimulatedRelays
	remote  *fakeRemote
	configs *fakeConfigRepo
	events  *fakeEventRepo
	arbiter *Arbiter
}

func newArbiterFixture(cfg models.DeviceConfig) *arbiterFixture {
	clock := newFakeClock()
	log := ringLogger()
	f := &arbiterFixture{
		state:   NewDeviceState(cfg),
		relays:  hardware.NewSimulatedRelays(),
		remote:  &fakeRemote{},
		configs: &fakeConfigRepo{},
		events:  &fakeEventRepo{},
	}
	rec := recorder{repo: f.events, log: log}
	f.arbiter = &Arbiter{
		state:    f.state,
		remote:   f.remote,
		actuator: NewActuator(f.relays, f.state, log),
		keeper:   &configKeeper{state: f.state, repo: f.configs, rec: rec, log: log, now: clock.now},
		rec:      rec,
		metrics:  nopMetrics{},
		log:      log,
		now:      clock.now,
	}
	return f
}

func (f *arbiterFixture) setMode(m models.NetworkMode) {
	f.state.setNetwork(models.NetworkStatus{Mode: m})
}

func TestUsesRemote_ExhaustiveCombinations(t *testing.T) {
	modes := []models.NetworkMode{
		models.ModeDisconnected, models.ModeConnecting, models.ModeStation, models.ModeAccessPoint,
	}
	for _, mode := range modes {
		for _, active := range []bool{false, true} {
			for _, pid := range []string{"", "p-1"} {
				want := mode == models.ModeStation && active && pid != ""
				name := fmt.Sprintf("%s/active=%v/pid=%q", mode, active, pid)
				t.Run(name, func(t *testing.T) {
					got := UsesRemote(mode, models.ProcessBinding{ProcessID: pid, Active: active})
					if got != want {
						t.Fatalf("UsesRemote = %v, want %v", got, want)
					}
				})
			}
		}
	}
}

func TestArbiter_RunCycle_PathFollowsPredicates(t *testing.T) {
	readings := models.SensorReadings{Fermenter: 19.0, Ambient: 22, Defrost: 8, Gravity: models.GravityAbsent}
	for _, mode := range []models.NetworkMode{models.ModeDisconnected, models.ModeStation, models.ModeAccessPoint} {
		for _, active := range []bool{false, true} {
			for _, pid := range []string{"", "p-1"} {
				t.Run(fmt.Sprintf("%s/%v/%q", mode, active, pid), func(t *testing.T) {
					f := newArbiterFixture(models.DefaultDeviceConfig())
					f.setMode(mode)
					f.state.SetBinding(models.ProcessBinding{ProcessID: pid, Active: active})
					f.remote.decision = remote.ControlDecision{Cooling: true, Action: "remote cooling"}

					path := f.arbiter.RunCycle(context.Background(), readings)

					if UsesRemote(mode, f.state.Binding()) {
						if path != models.PathRemote || len(f.remote.controlCalls) != 1 {
							t.Fatalf("expected remote path, got %s with %d calls", path, len(f.remote.controlCalls))
						}
						if f.relays.State() != (models.RelayState{Cooling: true}) {
							t.Fatalf("remote directive not applied: %+v", f.relays.State())
						}
						return
					}
					if path != models.PathLocal || len(f.remote.controlCalls) != 0 {
						t.Fatalf("expected local path, got %s with %d calls", path, len(f.remote.controlCalls))
					}
					if f.relays.State() != (models.RelayState{Heating: true}) {
						t.Fatalf("local decision not applied: %+v", f.relays.State())
					}
				})
			}
		}
	}
}

func TestArbiter_RemoteRequestCarriesReadings(t *testing.T) {
	cfg := models.DefaultDeviceConfig()
	cfg.DeviceID = "dev-1"
	f := newArbiterFixture(cfg)
	f.setMode(models.ModeStation)
	f.state.SetBinding(models.ProcessBinding{ProcessID: "p-1", Active: true})

	f.arbiter.RunCycle(context.Background(), models.SensorReadings{Fermenter: 18, Ambient: 21, Defrost: 3, Gravity: -1})

	want := remote.ControlRequest{DeviceID: "dev-1", ProcessID: "p-1", Fermenter: 18, Ambient: 21, Defrost: 3, Gravity: -1}
	if got := f.remote.controlCalls[0]; got != want {
		t.Fatalf("request = %+v, want %+v", got, want)
	}
}

func TestArbiter_RemoteFailureLeavesRelaysUnchanged(t *testing.T) {
	f := newArbiterFixture(models.DefaultDeviceConfig())
	f.setMode(models.ModeStation)
	f.state.SetBinding(models.ProcessBinding{ProcessID: "p-1", Active: true})

	f.remote.decision = remote.ControlDecision{Heating: true}
	f.arbiter.RunCycle(context.Background(), models.SensorReadings{Fermenter: 30})
	writes := f.relays.Writes()

	f.remote.controlErr = errBackendDown
	path := f.arbiter.RunCycle(context.Background(), models.SensorReadings{Fermenter: 40})

	if path != models.PathRemote {
		t.Fatalf("path = %s", path)
	}
	if f.relays.Writes() != writes {
		t.Fatalf("relays must not be written on remote failure")
	}
	if f.relays.State() != (models.RelayState{Heating: true}) {
		t.Fatalf("relays changed: %+v", f.relays.State())
	}
	if len(f.events.ofType(models.EventRemote)) != 1 {
		t.Fatalf("expected one REMOTE event, got %+v", f.events.appended)
	}
}

func TestArbiter_RemoteInvalidDirectiveIsNormalized(t *testing.T) {
	f := newArbiterFixture(models.DefaultDeviceConfig())
	f.setMode(models.ModeStation)
	f.state.SetBinding(models.ProcessBinding{ProcessID: "p-1", Active: true})
	f.remote.decision = remote.ControlDecision{Heating: true, Cooling: true, Defrost: true}

	f.arbiter.RunCycle(context.Background(), models.SensorReadings{})

	if got := f.relays.State(); got != (models.RelayState{Defrost: true}) {
		t.Fatalf("got %+v", got)
	}
}

func TestArbiter_RelayEventOnlyOnChange(t *testing.T) {
	f := newArbiterFixture(models.DefaultDeviceConfig())
	r := models.SensorReadings{Fermenter: 19.0, Defrost: 10}

	f.arbiter.RunCycle(context.Background(), r)
	f.arbiter.RunCycle(context.Background(), r)

	if n := len(f.events.ofType(models.EventRelay)); n != 1 {
		t.Fatalf("expected one RELAY event, got %d", n)
	}
}

func TestArbiter_Discover_FoundBindsAndPersists(t *testing.T) {
	cfg := models.DefaultDeviceConfig()
	cfg.DeviceID = "dev-1"
	f := newArbiterFixture(cfg)
	f.remote.validation = remote.Validation{Valid: true}
	f.remote.process = remote.ActiveProcess{Found: true, ProcessID: "p-7", TargetTemperature: 18.5, Variance: 0.25}

	f.arbiter.Discover(context.Background())

	if b := f.state.Binding(); b != (models.ProcessBinding{ProcessID: "p-7", Active: true}) {
		t.Fatalf("binding = %+v", b)
	}
	got := f.state.Config()
	if got.ProcessID != "p-7" || got.LocalTargetTemperature != 18.5 || got.LocalVariance != 0.25 {
		t.Fatalf("config not updated: %+v", got)
	}
	if len(f.configs.saved) != 1 || f.configs.saved[0] != got {
		t.Fatalf("config not persisted: %+v", f.configs.saved)
	}
}

func TestArbiter_Discover_NotFoundClearsProcess(t *testing.T) {
	cfg := models.DefaultDeviceConfig()
	cfg.DeviceID = "dev-1"
	cfg.ProcessID = "p-old"
	f := newArbiterFixture(cfg)
	f.state.SetBinding(models.ProcessBinding{ProcessID: "p-old", Active: true})
	f.remote.validation = remote.Validation{Valid: true}
	f.remote.process = remote.ActiveProcess{Found: false}

	f.arbiter.Discover(context.Background())

	if f.state.Binding().Bound() || f.state.Config().ProcessID != "" {
		t.Fatalf("binding not cleared: %+v / %+v", f.state.Binding(), f.state.Config())
	}
	if len(f.configs.saved) != 1 || f.configs.saved[0].ProcessID != "" {
		t.Fatalf("cleared process not persisted: %+v", f.configs.saved)
	}
}

func TestArbiter_Discover_FailuresDeactivateWithoutTouchingConfig(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *fakeRemote)
	}{
		{"validation transport error", func(r *fakeRemote) { r.validateErr = errBackendDown }},
		{"device rejected", func(r *fakeRemote) { r.validation = remote.Validation{Valid: false, Message: "unknown"} }},
		{"discovery malformed", func(r *fakeRemote) {
			r.validation = remote.Validation{Valid: true}
			r.processErr = remote.ErrMalformedResponse
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := models.DefaultDeviceConfig()
			cfg.DeviceID = "dev-1"
			cfg.ProcessID = "p-1"
			f := newArbiterFixture(cfg)
			f.state.SetBinding(models.ProcessBinding{ProcessID: "p-1", Active: true})
			tc.setup(f.remote)

			f.arbiter.Discover(context.Background())

			if f.state.Binding().Active {
				t.Fatalf("binding should be inactive")
			}
			if f.state.Config() != cfg || len(f.configs.saved) != 0 {
				t.Fatalf("config must be untouched")
			}
		})
	}
}

func TestArbiter_Discover_SkipsWithoutDeviceID(t *testing.T) {
	f := newArbiterFixture(models.DefaultDeviceConfig())
	f.arbiter.Discover(context.Background())
	if f.remote.validateCalls != 0 {
		t.Fatalf("backend should not be called without a device id")
	}
}
