package service

import (
	"context"
	"time"

	"fermenstation/internal/models"
	"fermenstation/internal/repository"
)

// LogSource is the rolling log buffer.
type LogSource interface {
	Entries() []models.LogEntry
}

type MonitoringService struct {
	state     *DeviceState
	stateRepo repository.StateRepo
	logs      LogSource
}

func NewMonitoringService(state *DeviceState, stateRepo repository.StateRepo, logs LogSource) *MonitoringService {
	return &MonitoringService{state: state, stateRepo: stateRepo, logs: logs}
}

// GetState returns the live snapshot once the loop has read the sensors.
// Before that it falls back to the snapshot persisted by the previous run.
func (s *MonitoringService) GetState(ctx context.Context) (models.Snapshot, error) {
	live := s.state.Snapshot()
	if !live.UpdatedAt.IsZero() {
		return live, nil
	}
	persisted, err := s.stateRepo.Load(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}
	if persisted.ID == 0 {
		return live, nil
	}
	persisted.UpdatedAt = toUTC(persisted.UpdatedAt)
	return persisted, nil
}

// Logs returns the buffered log entries, oldest first.
func (s *MonitoringService) Logs() []models.LogEntry {
	if s.logs == nil {
		return nil
	}
	return s.logs.Entries()
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
