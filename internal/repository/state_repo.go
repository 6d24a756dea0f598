package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"fermenstation/internal/models"
)

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

// constants and helpers for clarity and reuse
const (
	snapshotRowID = 1

	insertOrUpdateSnapshotSQL = `
		INSERT INTO device_snapshot (id, mode, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mode=excluded.mode,
			payload=excluded.payload,
			updated_at=excluded.updated_at
	`

	selectSnapshotSQL = `
		SELECT id, mode, payload, updated_at
		FROM device_snapshot WHERE id=?
	`
)

// Save updates or inserts the device_snapshot row (id always 1).
func (r *StateSQLite) Save(ctx context.Context, s models.Snapshot) error {
	// ensure UpdatedAt is always persisted as UTC; set if zero
	tsUTC := s.UpdatedAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}
	s.ID = snapshotRowID
	s.UpdatedAt = tsUTC

	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, insertOrUpdateSnapshotSQL,
		snapshotRowID,
		string(s.Network.Mode),
		string(payload),
		tsUTC,
	)
	return err
}

// Load fetches the single device_snapshot row. A missing row yields the zero
// snapshot (ID 0) and no error.
func (r *StateSQLite) Load(ctx context.Context) (models.Snapshot, error) {
	row := r.db.QueryRowContext(ctx, selectSnapshotSQL, snapshotRowID)

	var (
		s         models.Snapshot
		id        int
		mode      string
		payload   string
		updatedAt time.Time
	)
	if err := row.Scan(&id, &mode, &payload, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Snapshot{}, nil // nothing saved yet
		}
		return models.Snapshot{}, err
	}
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return models.Snapshot{}, err
	}
	s.ID = id
	s.Network.Mode = models.NetworkMode(mode)
	s.UpdatedAt = updatedAt.UTC()
	return s, nil
}
