package service

import (
	"context"
	"errors"
	"time"

	"fermenstation/internal/config"
	"fermenstation/internal/logger"
	"fermenstation/internal/models"
	"fermenstation/internal/remote"
)

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testNetworkSettings() config.NetworkSettings {
	return config.NetworkSettings{
		ConnectTimeout:       30 * time.Second,
		HealthCheckInterval:  15 * time.Second,
		OfflineRetryInterval: 60 * time.Second,
		RetryBackoff:         config.BackoffConstant,
		MaxFailures:          5,
		APSSIDPrefix:         "FermenStation_",
	}
}

// ringLogger returns a logger whose entries can be inspected.
func ringLogger() *logger.Logger {
	return logger.New(logger.DebugLevel, logger.NewRing(500))
}

func countMessages(l *logger.Logger, msg string) int {
	n := 0
	for _, e := range l.Entries() {
		if e.Message == msg {
			n++
		}
	}
	return n
}

type fakeConfigRepo struct {
	saved   []models.DeviceConfig
	cleared int
	saveErr error
}

func (f *fakeConfigRepo) Load(context.Context) (models.DeviceConfig, error) {
	if len(f.saved) == 0 {
		return models.DefaultDeviceConfig(), nil
	}
	return f.saved[len(f.saved)-1], nil
}

func (f *fakeConfigRepo) Save(_ context.Context, c models.DeviceConfig) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, c)
	return nil
}

func (f *fakeConfigRepo) Clear(context.Context) error {
	f.cleared++
	f.saved = nil
	return nil
}

type fakeStateRepo struct {
	saves   []models.Snapshot
	loadRes models.Snapshot
	loadErr error
}

func (f *fakeStateRepo) Save(_ context.Context, s models.Snapshot) error {
	f.saves = append(f.saves, s)
	return nil
}

func (f *fakeStateRepo) Load(context.Context) (models.Snapshot, error) {
	return f.loadRes, f.loadErr
}

// fakeRemote is a scripted backend.
type fakeRemote struct {
	validation    remote.Validation
	validateErr   error
	process       remote.ActiveProcess
	processErr    error
	decision      remote.ControlDecision
	controlErr    error
	controlCalls  []remote.ControlRequest
	validateCalls int
}

var errBackendDown = errors.New("backend down")

func (f *fakeRemote) ValidateDevice(context.Context, string) (remote.Validation, error) {
	f.validateCalls++
	return f.validation, f.validateErr
}

func (f *fakeRemote) GetActiveProcess(context.Context, string) (remote.ActiveProcess, error) {
	return f.process, f.processErr
}

func (f *fakeRemote) ControlFermentation(_ context.Context, req remote.ControlRequest) (remote.ControlDecision, error) {
	f.controlCalls = append(f.controlCalls, req)
	return f.decision, f.controlErr
}
