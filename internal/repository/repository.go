package repository

import (
	"context"
	"database/sql"
	"time"

	"fermenstation/internal/models"
)

// ConfigRepo is the durable key/value record of the device configuration.
type ConfigRepo interface {
	Load(ctx context.Context) (models.DeviceConfig, error)
	Save(ctx context.Context, c models.DeviceConfig) error
	Clear(ctx context.Context) error
}

// StateRepo keeps the latest controller snapshot across restarts.
type StateRepo interface {
	Save(ctx context.Context, s models.Snapshot) error
	Load(ctx context.Context) (models.Snapshot, error)
}

// EventRepo is the append-only control event history.
type EventRepo interface {
	Append(ctx context.Context, e models.ControlEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.ControlEvent, error)
}

type Repository struct {
	ConfigRepo ConfigRepo
	StateRepo  StateRepo
	EventRepo  EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		ConfigRepo: NewConfigSQLite(db),
		StateRepo:  NewStateSQLite(db),
		EventRepo:  NewEventSQLite(db),
	}
}
