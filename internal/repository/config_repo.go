package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"fermenstation/internal/models"
)

// Stored key names of the device configuration.
const (
	KeySSID                     = "ssid"
	KeyPassword                 = "password"
	KeyDeviceID                 = "device_id"
	KeyProcessID                = "process_id"
	KeyDefrostMode              = "defrost_mode"
	KeyDefrostSchedule          = "defrost_schedule"
	KeyDefrostTargetTemperature = "defrost_target_temperature"
	KeySafetyMinTemperature     = "safety_min_temperature"
	KeySafetyMaxTemperature     = "safety_max_temperature"
	KeyLocalTargetTemperature   = "local_target_temperature"
	KeyLocalVariance            = "local_variance"
)

// configKeys fixes the write order of Save.
var configKeys = []string{
	KeySSID,
	KeyPassword,
	KeyDeviceID,
	KeyProcessID,
	KeyDefrostMode,
	KeyDefrostSchedule,
	KeyDefrostTargetTemperature,
	KeySafetyMinTemperature,
	KeySafetyMaxTemperature,
	KeyLocalTargetTemperature,
	KeyLocalVariance,
}

const (
	upsertConfigSQL = `INSERT INTO device_config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`
	selectConfigSQL = `SELECT key, value FROM device_config`
	clearConfigSQL  = `DELETE FROM device_config`
)

type ConfigSQLite struct {
	db *sql.DB
}

func NewConfigSQLite(db *sql.DB) *ConfigSQLite {
	return &ConfigSQLite{db: db}
}

var _ ConfigRepo = (*ConfigSQLite)(nil)

// Load returns the stored configuration. Keys that were never saved keep
// their factory default.
func (r *ConfigSQLite) Load(ctx context.Context) (models.DeviceConfig, error) {
	cfg := models.DefaultDeviceConfig()

	rows, err := r.db.QueryContext(ctx, selectConfigSQL)
	if err != nil {
		return cfg, fmt.Errorf("select device config: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return cfg, fmt.Errorf("scan device config: %w", err)
		}
		if err := setField(&cfg, key, value); err != nil {
			return cfg, err
		}
	}
	if err := rows.Err(); err != nil {
		return cfg, fmt.Errorf("iterate device config: %w", err)
	}
	return cfg, nil
}

// Save writes every key in a single transaction.
func (r *ConfigSQLite) Save(ctx context.Context, c models.DeviceConfig) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin config transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	values := fieldValues(c)
	for _, key := range configKeys {
		if _, err := tx.ExecContext(ctx, upsertConfigSQL, key, values[key]); err != nil {
			return fmt.Errorf("save config key %q: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit config transaction: %w", err)
	}
	return nil
}

// Clear removes all stored keys.
func (r *ConfigSQLite) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, clearConfigSQL); err != nil {
		return fmt.Errorf("clear device config: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fieldValues(c models.DeviceConfig) map[string]string {
	return map[string]string{
		KeySSID:                     c.SSID,
		KeyPassword:                 c.Password,
		KeyDeviceID:                 c.DeviceID,
		KeyProcessID:                c.ProcessID,
		KeyDefrostMode:              string(c.DefrostMode),
		KeyDefrostSchedule:          c.DefrostSchedule,
		KeyDefrostTargetTemperature: formatFloat(c.DefrostTargetTemperature),
		KeySafetyMinTemperature:     formatFloat(c.SafetyMinTemperature),
		KeySafetyMaxTemperature:     formatFloat(c.SafetyMaxTemperature),
		KeyLocalTargetTemperature:   formatFloat(c.LocalTargetTemperature),
		KeyLocalVariance:            formatFloat(c.LocalVariance),
	}
}

// setField assigns one stored value. Unknown keys are ignored.
func setField(c *models.DeviceConfig, key, value string) error {
	var dst *float64
	switch key {
	case KeySSID:
		c.SSID = value
	case KeyPassword:
		c.Password = value
	case KeyDeviceID:
		c.DeviceID = value
	case KeyProcessID:
		c.ProcessID = value
	case KeyDefrostMode:
		c.DefrostMode = models.DefrostMode(value)
	case KeyDefrostSchedule:
		c.DefrostSchedule = value
	case KeyDefrostTargetTemperature:
		dst = &c.DefrostTargetTemperature
	case KeySafetyMinTemperature:
		dst = &c.SafetyMinTemperature
	case KeySafetyMaxTemperature:
		dst = &c.SafetyMaxTemperature
	case KeyLocalTargetTemperature:
		dst = &c.LocalTargetTemperature
	case KeyLocalVariance:
		dst = &c.LocalVariance
	}
	if dst == nil {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse config key %q=%q: %w", key, value, err)
	}
	*dst = f
	return nil
}
