package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fermenstation/internal/models"
)

type fakeLogs []models.LogEntry

func (f fakeLogs) Entries() []models.LogEntry { return f }

func TestMonitoring_GetStatePrefersLiveSnapshot(t *testing.T) {
	state := NewDeviceState(models.DefaultDeviceConfig())
	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	state.setReadings(models.SensorReadings{Fermenter: 19.5, Ambient: 21, Defrost: 4, Gravity: -1}, at)
	repo := &fakeStateRepo{loadRes: models.Snapshot{ID: 1, Readings: models.SensorReadings{Fermenter: 1}}}

	got, err := NewMonitoringService(state, repo, nil).GetState(context.Background())
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if got.Readings.Fermenter != 19.5 || !got.UpdatedAt.Equal(at) {
		t.Fatalf("expected live snapshot, got %+v", got)
	}
}

func TestMonitoring_GetStateFallsBackToPersisted(t *testing.T) {
	state := NewDeviceState(models.DefaultDeviceConfig())
	saved := time.Date(2025, 2, 28, 23, 0, 0, 0, time.FixedZone("UTC-3", -3*3600))
	repo := &fakeStateRepo{loadRes: models.Snapshot{
		ID:        1,
		Readings:  models.SensorReadings{Fermenter: 18},
		UpdatedAt: saved,
	}}

	got, err := NewMonitoringService(state, repo, nil).GetState(context.Background())
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if got.Readings.Fermenter != 18 {
		t.Fatalf("expected persisted snapshot, got %+v", got)
	}
	if got.UpdatedAt.Location() != time.UTC || !got.UpdatedAt.Equal(saved) {
		t.Fatalf("UpdatedAt = %v, want %v in UTC", got.UpdatedAt, saved)
	}
}

func TestMonitoring_GetStateBaselineWhenNothingStored(t *testing.T) {
	state := NewDeviceState(models.DefaultDeviceConfig())

	got, err := NewMonitoringService(state, &fakeStateRepo{}, nil).GetState(context.Background())
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if got.Network.Mode != models.ModeDisconnected || got.Readings.Fermenter != models.SensorError {
		t.Fatalf("unexpected baseline: %+v", got)
	}
}

func TestMonitoring_GetStatePropagatesStoreError(t *testing.T) {
	state := NewDeviceState(models.DefaultDeviceConfig())
	boom := errors.New("db locked")

	_, err := NewMonitoringService(state, &fakeStateRepo{loadErr: boom}, nil).GetState(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestMonitoring_Logs(t *testing.T) {
	state := NewDeviceState(models.DefaultDeviceConfig())
	if got := NewMonitoringService(state, &fakeStateRepo{}, nil).Logs(); got != nil {
		t.Fatalf("nil source should yield nil, got %v", got)
	}

	entries := fakeLogs{{Message: "a"}, {Message: "b"}}
	got := NewMonitoringService(state, &fakeStateRepo{}, entries).Logs()
	if len(got) != 2 || got[0].Message != "a" {
		t.Fatalf("got %v", got)
	}
}
