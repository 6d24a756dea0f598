package service

import (
	"context"
	"time"

	"fermenstation/internal/config"
	"fermenstation/internal/hardware"
	"fermenstation/internal/logger"
	"fermenstation/internal/models"
	"fermenstation/internal/repository"
	"fermenstation/internal/telemetry"
	"fermenstation/internal/wifi"
)

// Config reads and edits the device configuration.
type Config interface {
	Get(ctx context.Context) models.DeviceConfig
	Update(ctx context.Context, p ConfigPatch) (models.DeviceConfig, error)
	Reset(ctx context.Context) error
}

// Network exposes the manual reconnect trigger.
type Network interface {
	Reconnect(ctx context.Context) (models.NetworkStatus, bool, error)
}

// Monitoring exposes read-only state (readings, relays, mode, binding) and the log buffer.
type Monitoring interface {
	GetState(ctx context.Context) (models.Snapshot, error)
	Logs() []models.LogEntry
}

// EventLog exposes append-only control events with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.ControlEvent, error)
}

// Loop runs the control loop. Stop via context cancellation in main() for graceful shutdown.
type Loop interface {
	Run(ctx context.Context)
}

// Service aggregates all sub-services.
type Service struct {
	Config
	Network
	Monitoring
	EventLog
	Loop
}

// Deps are the collaborators of the control loop.
type Deps struct {
	Board    *hardware.Board
	Link     wifi.Link
	Remote   RemoteController
	Sink     telemetry.Sink
	Metrics  Metrics
	Logger   *logger.Logger
	Settings *config.Settings
	Now      func() time.Time
}

// NewService wires the repositories and devices into the control loop and the
// services that front it. cfg is the configuration loaded at boot.
func NewService(repos *repository.Repository, cfg models.DeviceConfig, d Deps) *Service {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Metrics == nil {
		d.Metrics = nopMetrics{}
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	log := d.Logger

	state := NewDeviceState(cfg)
	rec := recorder{repo: repos.EventRepo, log: log}
	keeper := &configKeeper{state: state, repo: repos.ConfigRepo, rec: rec, log: log, now: d.Now}
	actuator := NewActuator(d.Board.Relays, state, log)
	conn := NewConnectivityManager(d.Link, state, rec, log, d.Settings.Network, d.Now)
	arbiter := &Arbiter{
		state:    state,
		remote:   d.Remote,
		actuator: actuator,
		keeper:   keeper,
		rec:      rec,
		metrics:  d.Metrics,
		log:      log,
		now:      d.Now,
	}

	loop := newController(d.Settings.Control)
	loop.state = state
	loop.conn = conn
	loop.arbiter = arbiter
	loop.actuator = actuator
	loop.keeper = keeper
	loop.sensors = d.Board.Sensors
	loop.button = d.Board.Button
	loop.stateRepo = repos.StateRepo
	loop.sink = d.Sink
	loop.metrics = d.Metrics
	loop.rec = rec
	loop.log = log
	loop.now = d.Now

	return &Service{
		Config:     &ConfigService{state: state, keeper: keeper, conn: conn, loop: loop},
		Network:    &NetworkService{state: state, conn: conn, loop: loop},
		Monitoring: NewMonitoringService(state, repos.StateRepo, log),
		EventLog:   NewEventLogService(repos.EventRepo),
		Loop:       loop,
	}
}
