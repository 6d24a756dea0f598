package service

import (
	"context"
	"errors"
	"time"

	"fermenstation/internal/config"
	"fermenstation/internal/hardware"
	"fermenstation/internal/logger"
	"fermenstation/internal/models"
	"fermenstation/internal/repository"
	"fermenstation/internal/telemetry"
)

var errLoopStopped = errors.New("control loop stopped")

// command is work queued from outside the loop and run between passes.
type command struct {
	run  func(ctx context.Context) error
	done chan error
}

// Controller runs the single control loop. Every mutation of DeviceState
// happens on its goroutine.
type Controller struct {
	state     *DeviceState
	conn      *ConnectivityManager
	arbiter   *Arbiter
	actuator  *Actuator
	keeper    *configKeeper
	sensors   hardware.SensorBus
	button    hardware.Button
	stateRepo repository.StateRepo
	sink      telemetry.Sink
	metrics   Metrics
	rec       recorder
	log       *logger.Logger
	now       func() time.Time

	interval   time.Duration
	loopDelay  time.Duration
	resetHold  time.Duration
	cmdTimeout time.Duration

	commands chan command
	stopped  chan struct{}

	lastCycle   time.Time
	pressStart  time.Time
	resetFired  bool
	sensorFault map[models.SensorID]bool
}

func newController(s config.ControlSettings) *Controller {
	return &Controller{
		interval:    s.Interval,
		loopDelay:   s.LoopDelay,
		resetHold:   s.ResetHold,
		cmdTimeout:  s.CommandTimeout,
		commands:    make(chan command),
		stopped:     make(chan struct{}),
		sensorFault: make(map[models.SensorID]bool),
	}
}

// Run drives the loop until ctx is canceled. Relays start switched off.
func (c *Controller) Run(ctx context.Context) {
	defer close(c.stopped)

	c.actuator.Apply(models.RelayState{})

	t := time.NewTicker(c.loopDelay)
	defer t.Stop()

	c.step(ctx)
	for {
		select {
		case <-ctx.Done():
			c.log.Infow("control_loop_stopped")
			return
		case cmd := <-c.commands:
			cmd.done <- cmd.run(ctx)
		case <-t.C:
			c.step(ctx)
		}
	}
}

// Submit queues fn for the loop goroutine and waits for its result, at most
// the configured command timeout.
func (c *Controller) Submit(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.cmdTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cmdTimeout)
		defer cancel()
	}
	cmd := command{run: fn, done: make(chan error, 1)}
	select {
	case c.commands <- cmd:
	case <-c.stopped:
		return errLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// step is one pass: connectivity, reset button, sensors, the control cycle
// when due, then the sensor debug log.
func (c *Controller) step(ctx context.Context) {
	now := c.now()

	if t := c.conn.Tick(ctx, c.state.Config()); t.Connected {
		c.arbiter.Discover(ctx)
	}
	c.checkButton(ctx, now)

	r := c.readSensors(ctx)
	c.state.setReadings(r, now.UTC())
	c.metrics.ObserveReadings(r)

	if c.lastCycle.IsZero() || now.Sub(c.lastCycle) >= c.interval {
		c.lastCycle = now
		c.cycle(ctx, r)
	}

	c.log.Debugw("sensor_debug",
		"temp_fermenter", r.Fermenter, "temp_ambient", r.Ambient, "temp_defrost", r.Defrost,
		"mode", string(c.state.Network().Mode))
}

func (c *Controller) cycle(ctx context.Context, r models.SensorReadings) {
	c.log.Infow("sensors_read", "temp_fermenter", r.Fermenter, "temp_ambient", r.Ambient, "temp_defrost", r.Defrost)
	c.arbiter.RunCycle(ctx, r)

	snap := c.state.Snapshot()
	c.metrics.ObserveRelays(snap.Relays)
	c.metrics.ObserveNetwork(snap.Network)

	if err := c.stateRepo.Save(ctx, snap); err != nil {
		c.log.Warnw("snapshot_save_failed", "error", err)
	}
	if c.sink != nil {
		if err := c.sink.Publish(ctx, snap); err != nil {
			c.log.Warnw("telemetry_publish_failed", "error", err)
			c.metrics.ErrorCounter("telemetry")
		}
	}
}

func (c *Controller) readSensors(ctx context.Context) models.SensorReadings {
	r := models.SensorReadings{Gravity: models.GravityAbsent}
	for _, id := range models.AllSensors {
		v := c.sensors.Read(ctx, id)
		r.Set(id, v)

		faulty := models.IsSensorError(v)
		if faulty && !c.sensorFault[id] {
			c.log.Errorw("sensor_error", "sensor", string(id), "value", v)
			c.rec.record(ctx, c.now(), models.EventSensor, "sensor disconnected", map[string]any{"sensor": string(id)})
		} else if !faulty && c.sensorFault[id] {
			c.log.Infow("sensor_recovered", "sensor", string(id), "value", v)
		}
		c.sensorFault[id] = faulty
	}
	return r
}

// checkButton clears the configuration once the button has been held for
// resetHold. Holding it longer does nothing more until it is released.
func (c *Controller) checkButton(ctx context.Context, now time.Time) {
	if c.button == nil {
		return
	}
	held, err := c.button.Pressed()
	if err != nil {
		c.log.Warnw("reset_button_read_failed", "error", err)
		return
	}
	if !held {
		c.pressStart = time.Time{}
		c.resetFired = false
		return
	}
	if c.pressStart.IsZero() {
		c.pressStart = now
		c.log.Infow("reset_button_pressed")
		return
	}
	if !c.resetFired && now.Sub(c.pressStart) >= c.resetHold {
		c.resetFired = true
		c.log.Warnw("reset_button_held", "hold", c.resetHold.String())
		c.keeper.reset(ctx, "reset button")
	}
}
