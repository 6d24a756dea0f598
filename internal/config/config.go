// Package config loads infrastructure settings from configs/config.yml,
// FERMENSTATION_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix  = "FERMENSTATION"
	configName = "config"
)

// Driver names accepted by the hardware and network sections.
const (
	DriverSimulated = "simulated"
	DriverRaspi     = "raspi"
	DriverNMCLI     = "nmcli"
)

// Retry backoff policies for offline reconnects.
const (
	BackoffConstant    = "constant"
	BackoffExponential = "exponential"
)

// Settings is the typed view of the loaded configuration.
type Settings struct {
	Port     string
	LogLevel string
	DBPath   string

	Backend   BackendSettings
	Network   NetworkSettings
	Control   ControlSettings
	Hardware  HardwareSettings
	Telemetry TelemetrySettings
}

type BackendSettings struct {
	URL         string
	APIKey      string
	Timeout     time.Duration
	BreakerFail int
	BreakerOpen time.Duration
}

type NetworkSettings struct {
	Driver               string
	Interface            string
	ConnectTimeout       time.Duration
	HealthCheckInterval  time.Duration
	OfflineRetryInterval time.Duration
	RetryBackoff         string
	MaxFailures          int
	APSSIDPrefix         string
}

type ControlSettings struct {
	Interval       time.Duration
	LoopDelay      time.Duration
	ResetHold      time.Duration
	LogBufferSize  int
	CommandTimeout time.Duration
}

type HardwareSettings struct {
	Driver         string
	RelayActiveLow bool
	HeatingPin     string
	CoolingPin     string
	DefrostPin     string
	ResetPin       string
	W1Dir          string
	FermenterProbe string
	AmbientProbe   string
	DefrostProbe   string
}

type TelemetrySettings struct {
	MQTTBroker   string
	MQTTClientID string
	MQTTTopic    string
	MQTTUser     string
	MQTTPassword string
	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string
}

var errInvalidDuration = errors.New("interval must be positive")

// setDefaults registers the built-in values; the yaml file and env override them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("db.path", "fermenstation.db")

	v.SetDefault("backend.url", "")
	v.SetDefault("backend.api_key", "")
	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("backend.breaker_failures", 5)
	v.SetDefault("backend.breaker_open", 60*time.Second)

	v.SetDefault("network.driver", DriverSimulated)
	v.SetDefault("network.interface", "wlan0")
	v.SetDefault("network.connect_timeout", 30*time.Second)
	v.SetDefault("network.health_check_interval", 15*time.Second)
	v.SetDefault("network.offline_retry_interval", 60*time.Second)
	v.SetDefault("network.retry_backoff", BackoffConstant)
	v.SetDefault("network.max_failures", 5)
	v.SetDefault("network.ap_ssid_prefix", "FermenStation_")

	v.SetDefault("control.interval", 30*time.Second)
	v.SetDefault("control.loop_delay", time.Second)
	v.SetDefault("control.reset_hold", 5*time.Second)
	v.SetDefault("control.log_buffer", 60)
	v.SetDefault("control.command_timeout", 15*time.Second)

	v.SetDefault("hardware.driver", DriverSimulated)
	v.SetDefault("hardware.relay_active_low", false)
	v.SetDefault("hardware.pins.heating", "13")
	v.SetDefault("hardware.pins.cooling", "15")
	v.SetDefault("hardware.pins.defrost", "16")
	v.SetDefault("hardware.pins.reset", "11")
	v.SetDefault("hardware.w1_dir", "/sys/bus/w1/devices")

	v.SetDefault("telemetry.mqtt.client_id", "fermenstation")
	v.SetDefault("telemetry.mqtt.topic", "fermenstation/%s/state")
}

// Flags returns the command-line flag set bound into the loader.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("fermenstation", pflag.ContinueOnError)
	fs.String("config-dir", "configs", "directory holding config.yml")
	fs.String("log-level", "", "override log level (debug, info, warn, error)")
	return fs
}

// Load reads config.yml from the directory named by --config-dir. A missing
// file is not an error; defaults and environment still apply.
func Load(fs *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	dir := "configs"
	if fs != nil {
		if d, err := fs.GetString("config-dir"); err == nil && d != "" {
			dir = d
		}
		if f := fs.Lookup("log-level"); f != nil && f.Changed {
			if err := v.BindPFlag("log_level", f); err != nil {
				return nil, fmt.Errorf("bind log-level flag: %w", err)
			}
		}
	}

	v.AddConfigPath(dir)
	v.SetConfigName(configName)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config in %q: %w", dir, err)
		}
	}

	s := fromViper(v)
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func fromViper(v *viper.Viper) *Settings {
	return &Settings{
		Port:     v.GetString("port"),
		LogLevel: v.GetString("log_level"),
		DBPath:   v.GetString("db.path"),
		Backend: BackendSettings{
			URL:         strings.TrimRight(v.GetString("backend.url"), "/"),
			APIKey:      v.GetString("backend.api_key"),
			Timeout:     v.GetDuration("backend.timeout"),
			BreakerFail: v.GetInt("backend.breaker_failures"),
			BreakerOpen: v.GetDuration("backend.breaker_open"),
		},
		Network: NetworkSettings{
			Driver:               v.GetString("network.driver"),
			Interface:            v.GetString("network.interface"),
			ConnectTimeout:       v.GetDuration("network.connect_timeout"),
			HealthCheckInterval:  v.GetDuration("network.health_check_interval"),
			OfflineRetryInterval: v.GetDuration("network.offline_retry_interval"),
			RetryBackoff:         v.GetString("network.retry_backoff"),
			MaxFailures:          v.GetInt("network.max_failures"),
			APSSIDPrefix:         v.GetString("network.ap_ssid_prefix"),
		},
		Control: ControlSettings{
			Interval:       v.GetDuration("control.interval"),
			LoopDelay:      v.GetDuration("control.loop_delay"),
			ResetHold:      v.GetDuration("control.reset_hold"),
			LogBufferSize:  v.GetInt("control.log_buffer"),
			CommandTimeout: v.GetDuration("control.command_timeout"),
		},
		Hardware: HardwareSettings{
			Driver:         v.GetString("hardware.driver"),
			RelayActiveLow: v.GetBool("hardware.relay_active_low"),
			HeatingPin:     v.GetString("hardware.pins.heating"),
			CoolingPin:     v.GetString("hardware.pins.cooling"),
			DefrostPin:     v.GetString("hardware.pins.defrost"),
			ResetPin:       v.GetString("hardware.pins.reset"),
			W1Dir:          v.GetString("hardware.w1_dir"),
			FermenterProbe: v.GetString("hardware.probes.fermenter"),
			AmbientProbe:   v.GetString("hardware.probes.ambient"),
			DefrostProbe:   v.GetString("hardware.probes.defrost"),
		},
		Telemetry: TelemetrySettings{
			MQTTBroker:   v.GetString("telemetry.mqtt.broker"),
			MQTTClientID: v.GetString("telemetry.mqtt.client_id"),
			MQTTTopic:    v.GetString("telemetry.mqtt.topic"),
			MQTTUser:     v.GetString("telemetry.mqtt.user"),
			MQTTPassword: v.GetString("telemetry.mqtt.password"),
			InfluxURL:    v.GetString("telemetry.influx.url"),
			InfluxToken:  v.GetString("telemetry.influx.token"),
			InfluxOrg:    v.GetString("telemetry.influx.org"),
			InfluxBucket: v.GetString("telemetry.influx.bucket"),
		},
	}
}

func (s *Settings) validate() error {
	for name, d := range map[string]time.Duration{
		"network.connect_timeout":        s.Network.ConnectTimeout,
		"network.health_check_interval":  s.Network.HealthCheckInterval,
		"network.offline_retry_interval": s.Network.OfflineRetryInterval,
		"control.interval":               s.Control.Interval,
		"control.loop_delay":             s.Control.LoopDelay,
		"backend.timeout":                s.Backend.Timeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s: %w", name, errInvalidDuration)
		}
	}
	if s.Network.MaxFailures < 1 {
		return fmt.Errorf("network.max_failures must be >= 1, got %d", s.Network.MaxFailures)
	}
	switch s.Network.RetryBackoff {
	case BackoffConstant, BackoffExponential:
	default:
		return fmt.Errorf("network.retry_backoff: unknown policy %q", s.Network.RetryBackoff)
	}
	return nil
}
