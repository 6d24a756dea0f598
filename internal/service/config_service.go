package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fermenstation/internal/models"
)

// ErrInvalidConfig wraps every validation failure of a configuration update.
var ErrInvalidConfig = errors.New("invalid configuration")

type submitter interface {
	Submit(ctx context.Context, fn func(ctx context.Context) error) error
}

type ConfigService struct {
	state  *DeviceState
	keeper *configKeeper
	conn   *ConnectivityManager
	loop   submitter
}

func (s *ConfigService) Get(_ context.Context) models.DeviceConfig {
	return s.state.Config()
}

// Update merges p into the current configuration inside the control loop and
// persists the result. Changed credentials start a new connection attempt.
func (s *ConfigService) Update(ctx context.Context, p ConfigPatch) (models.DeviceConfig, error) {
	if _, err := merge(s.state.Config(), p); err != nil {
		return models.DeviceConfig{}, err
	}

	var out models.DeviceConfig
	err := s.loop.Submit(ctx, func(ctx context.Context) error {
		cur := s.state.Config()
		next, err := merge(cur, p)
		if err != nil {
			return err
		}
		s.keeper.save(ctx, next, "configuration updated")
		if next.SSID != cur.SSID || next.Password != cur.Password {
			s.conn.Restart(ctx, next, "credentials changed")
		}
		out = next
		return nil
	})
	if err != nil {
		return models.DeviceConfig{}, err
	}
	return out, nil
}

// Reset clears the stored configuration and returns the cache to defaults.
func (s *ConfigService) Reset(ctx context.Context) error {
	return s.loop.Submit(ctx, func(ctx context.Context) error {
		s.keeper.reset(ctx, "api request")
		return nil
	})
}

func merge(c models.DeviceConfig, p ConfigPatch) (models.DeviceConfig, error) {
	setString(&c.SSID, p.SSID)
	setString(&c.Password, p.Password)
	setString(&c.DeviceID, p.DeviceID)
	setString(&c.ProcessID, p.ProcessID)
	setString(&c.DefrostSchedule, p.DefrostSchedule)
	if p.DefrostMode != nil {
		c.DefrostMode = models.DefrostMode(*p.DefrostMode)
	}
	setFloat(&c.DefrostTargetTemperature, p.DefrostTargetTemperature)
	setFloat(&c.SafetyMinTemperature, p.SafetyMinTemperature)
	setFloat(&c.SafetyMaxTemperature, p.SafetyMaxTemperature)
	setFloat(&c.LocalTargetTemperature, p.LocalTargetTemperature)
	setFloat(&c.LocalVariance, p.LocalVariance)
	return c, validateConfig(c)
}

func validateConfig(c models.DeviceConfig) error {
	switch c.DefrostMode {
	case models.DefrostDisabled, models.DefrostByTemperature:
	default:
		return fmt.Errorf("%w: defrost_mode must be %q or %q", ErrInvalidConfig, models.DefrostDisabled, models.DefrostByTemperature)
	}
	if _, err := time.Parse("15:04", c.DefrostSchedule); err != nil || len(c.DefrostSchedule) != 5 {
		return fmt.Errorf("%w: defrost_schedule must be HH:MM", ErrInvalidConfig)
	}
	if c.SafetyMinTemperature > c.SafetyMaxTemperature {
		return fmt.Errorf("%w: safety_min_temperature %.2f exceeds safety_max_temperature %.2f",
			ErrInvalidConfig, c.SafetyMinTemperature, c.SafetyMaxTemperature)
	}
	if c.LocalVariance < 0 {
		return fmt.Errorf("%w: local_variance must be >= 0", ErrInvalidConfig)
	}
	return nil
}

func setString(dst, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// NetworkService exposes the manual reconnect trigger.
type NetworkService struct {
	state *DeviceState
	conn  *ConnectivityManager
	loop  submitter
}

// Reconnect starts a new connection attempt from AccessPoint or Disconnected.
// It reports false when the device is already connecting or connected.
func (s *NetworkService) Reconnect(ctx context.Context) (models.NetworkStatus, bool, error) {
	var started bool
	err := s.loop.Submit(ctx, func(ctx context.Context) error {
		_, started = s.conn.Reconnect(ctx, s.state.Config())
		return nil
	})
	if err != nil {
		return models.NetworkStatus{}, false, err
	}
	return s.state.Network(), started, nil
}
