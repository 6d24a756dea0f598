package service

import (
	"context"
	"strings"
	"time"

	"fermenstation/internal/config"
	"fermenstation/internal/logger"
	"fermenstation/internal/models"
	"fermenstation/internal/wifi"

	"github.com/cenkalti/backoff/v4"
)

// Transition describes a mode change made by one connectivity step.
// Connected is set only on entry into Station and asks the caller to run
// device validation and process discovery.
type Transition struct {
	From      models.NetworkMode
	To        models.NetworkMode
	Connected bool
}

func (t Transition) changed() bool { return t.From != t.To }

// ConnectivityManager owns the network mode and the failure counter. It never
// blocks: BeginConnect starts association and PollConnect checks on it once
// per loop pass.
type ConnectivityManager struct {
	link  wifi.Link
	state *DeviceState
	rec   recorder
	log   *logger.Logger
	now   func() time.Time
	retry backoff.BackOff

	connectTimeout time.Duration
	healthInterval time.Duration
	retryFallback  time.Duration
	maxFailures    int
	apPrefix       string

	deadline   time.Time
	nextHealth time.Time
	nextRetry  time.Time
}

func NewConnectivityManager(link wifi.Link, state *DeviceState, rec recorder, log *logger.Logger,
	s config.NetworkSettings, now func() time.Time) *ConnectivityManager {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ConnectivityManager{
		link:           link,
		state:          state,
		rec:            rec,
		log:            log,
		now:            now,
		retry:          newRetryBackOff(s),
		connectTimeout: s.ConnectTimeout,
		healthInterval: s.HealthCheckInterval,
		retryFallback:  s.OfflineRetryInterval,
		maxFailures:    s.MaxFailures,
		apPrefix:       s.APSSIDPrefix,
	}
}

// newRetryBackOff returns the offline retry schedule: a fixed interval, or an
// exponential one starting at the health-check interval and capped at the
// offline retry interval.
func newRetryBackOff(s config.NetworkSettings) backoff.BackOff {
	if s.RetryBackoff != config.BackoffExponential {
		return backoff.NewConstantBackOff(s.OfflineRetryInterval)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.HealthCheckInterval
	b.MaxInterval = s.OfflineRetryInterval
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func (m *ConnectivityManager) Mode() models.NetworkMode {
	return m.state.Network().Mode
}

// BeginConnect starts an association attempt with the configured credentials.
// It is ignored in AccessPoint; missing credentials go straight to AccessPoint.
func (m *ConnectivityManager) BeginConnect(ctx context.Context, cfg models.DeviceConfig) Transition {
	from := m.Mode()
	if from == models.ModeAccessPoint {
		m.log.Infow("connect_skipped", "reason", "access point active")
		return Transition{From: from, To: from}
	}
	m.logScan(ctx)
	if !cfg.HasCredentials() {
		m.log.Warnw("wifi_credentials_missing")
		return m.enterAccessPoint(ctx, from, "no credentials")
	}

	m.log.Infow("wifi_connecting", "ssid", cfg.SSID, "password_len", len(cfg.Password))
	m.setMode(ctx, models.ModeConnecting, "connect attempt")
	if err := m.link.Begin(ctx, cfg.SSID, cfg.Password); err != nil {
		m.log.Warnw("wifi_begin_failed", "ssid", cfg.SSID, "error", err)
		t := m.fail(ctx, "begin failed")
		t.From = from
		return t
	}
	m.deadline = m.now().Add(m.connectTimeout)
	return Transition{From: from, To: models.ModeConnecting}
}

// PollConnect checks an in-progress attempt. It succeeds on association and
// fails when the network is not found or the connect timeout has passed.
func (m *ConnectivityManager) PollConnect(ctx context.Context) Transition {
	from := m.Mode()
	if from != models.ModeConnecting {
		return Transition{From: from, To: from}
	}
	st := m.link.Status(ctx)
	switch {
	case st == wifi.StatusConnected:
		return m.connected(ctx, from)
	case st == wifi.StatusNoNetwork:
		m.log.Warnw("wifi_network_not_found")
		return m.fail(ctx, "network not found")
	case !m.now().Before(m.deadline):
		m.log.Warnw("wifi_connect_timeout", "last_status", st.String(), "timeout", m.connectTimeout.String())
		return m.fail(ctx, "connect timeout")
	default:
		m.log.Debugw("wifi_status", "status", st.String())
		return Transition{From: from, To: from}
	}
}

// PeriodicHealthCheck samples the link on the health-check interval while
// Station or Disconnected. A down link counts as a failed attempt; an up link
// clears the counter and promotes Disconnected back to Station.
func (m *ConnectivityManager) PeriodicHealthCheck(ctx context.Context) Transition {
	from := m.Mode()
	now := m.now()
	if from != models.ModeStation && from != models.ModeDisconnected {
		return Transition{From: from, To: from}
	}
	// the schedule starts with the first attempt's outcome
	if m.nextHealth.IsZero() || now.Before(m.nextHealth) {
		return Transition{From: from, To: from}
	}
	m.nextHealth = now.Add(m.healthInterval)

	st := m.link.Status(ctx)
	m.log.Debugw("wifi_health_check", "status", st.String(), "mode", string(from))
	if st == wifi.StatusConnected {
		if from == models.ModeDisconnected {
			return m.connected(ctx, from)
		}
		m.resetFailures(false)
		return Transition{From: from, To: from}
	}

	t := m.fail(ctx, "link down")
	if from == models.ModeStation && t.To == models.ModeDisconnected {
		m.nextRetry = now
	}
	return t
}

// Tick runs one connectivity step: poll, health check, then the offline retry.
func (m *ConnectivityManager) Tick(ctx context.Context, cfg models.DeviceConfig) Transition {
	from := m.Mode()
	connected := false

	if t := m.PollConnect(ctx); t.Connected {
		connected = true
	}
	if t := m.PeriodicHealthCheck(ctx); t.Connected {
		connected = true
	}
	if m.Mode() == models.ModeDisconnected && !m.now().Before(m.nextRetry) {
		m.log.Infow("wifi_offline_retry", "failures", m.state.Network().Health.Failures)
		m.BeginConnect(ctx, cfg)
		// an immediate association counts for this pass
		if t := m.PollConnect(ctx); t.Connected {
			connected = true
		}
	}
	return Transition{From: from, To: m.Mode(), Connected: connected}
}

// Reconnect leaves AccessPoint or Disconnected on request, clears the failure
// counter and begins a new attempt. It reports whether an attempt started.
func (m *ConnectivityManager) Reconnect(ctx context.Context, cfg models.DeviceConfig) (Transition, bool) {
	from := m.Mode()
	if from == models.ModeConnecting || from == models.ModeStation {
		return Transition{From: from, To: from}, false
	}
	return m.Restart(ctx, cfg, "manual reconnect"), true
}

// Restart drops any current association and begins a fresh attempt with a
// cleared failure counter, whatever the mode. The outcome is picked up by the
// next Tick.
func (m *ConnectivityManager) Restart(ctx context.Context, cfg models.DeviceConfig, reason string) Transition {
	from := m.Mode()
	m.resetFailures(false)
	m.retry.Reset()
	m.setMode(ctx, models.ModeDisconnected, reason)
	t := m.BeginConnect(ctx, cfg)
	t.From = from
	return t
}

func (m *ConnectivityManager) connected(ctx context.Context, from models.NetworkMode) Transition {
	now := m.now()
	m.resetFailures(true)
	m.retry.Reset()
	m.nextHealth = now.Add(m.healthInterval)
	m.setMode(ctx, models.ModeStation, "connected")
	m.log.Infow("wifi_connected")
	return Transition{From: from, To: models.ModeStation, Connected: true}
}

// fail counts one failed attempt and escalates to AccessPoint at the ceiling.
func (m *ConnectivityManager) fail(ctx context.Context, reason string) Transition {
	from := m.Mode()
	n := m.state.Network()
	n.Health.Failures++
	m.state.setNetwork(n)
	m.log.Warnw("wifi_failure", "reason", reason, "failures", n.Health.Failures, "max_failures", m.maxFailures)

	if n.Health.Failures >= m.maxFailures {
		return m.enterAccessPoint(ctx, from, "max failures reached")
	}

	now := m.now()
	wait := m.retry.NextBackOff()
	if wait == backoff.Stop {
		wait = m.retryFallback
	}
	m.nextRetry = now.Add(wait)
	if m.nextHealth.Before(now) {
		m.nextHealth = now.Add(m.healthInterval)
	}
	m.setMode(ctx, models.ModeDisconnected, reason)
	return Transition{From: from, To: models.ModeDisconnected}
}

func (m *ConnectivityManager) enterAccessPoint(ctx context.Context, from models.NetworkMode, reason string) Transition {
	ssid := m.accessPointSSID()
	m.setMode(ctx, models.ModeAccessPoint, reason)
	if err := m.link.StartAccessPoint(ctx, ssid); err != nil {
		m.log.Errorw("access_point_failed", "ssid", ssid, "error", err)
	} else {
		m.log.Infow("access_point_started", "ssid", ssid)
	}
	return Transition{From: from, To: models.ModeAccessPoint}
}

// accessPointSSID appends the last four hex digits of the hardware address,
// or of the device id when the address is unknown.
func (m *ConnectivityManager) accessPointSSID() string {
	src := strings.ReplaceAll(m.link.HardwareAddr(), ":", "")
	if src == "" {
		src = m.state.Config().DeviceID
	}
	src = strings.ToUpper(src)
	if len(src) > 4 {
		src = src[len(src)-4:]
	}
	if src == "" {
		src = "0000"
	}
	return m.apPrefix + src
}

func (m *ConnectivityManager) resetFailures(success bool) {
	n := m.state.Network()
	n.Health.Failures = 0
	if success {
		n.Health.LastSuccess = m.now().UTC()
	}
	m.state.setNetwork(n)
}

func (m *ConnectivityManager) setMode(ctx context.Context, to models.NetworkMode, reason string) {
	n := m.state.Network()
	from := n.Mode
	if from == to {
		return
	}
	n.Mode = to
	m.state.setNetwork(n)
	m.log.Infow("network_mode_changed", "from", string(from), "to", string(to), "reason", reason)
	m.rec.record(ctx, m.now(), models.EventNetwork, reason, map[string]any{
		"from":     string(from),
		"to":       string(to),
		"failures": n.Health.Failures,
	})
}

func (m *ConnectivityManager) logScan(ctx context.Context) {
	nets, err := m.link.Scan(ctx)
	if err != nil {
		m.log.Debugw("wifi_scan_failed", "error", err)
		return
	}
	for _, n := range nets {
		m.log.Debugw("wifi_network_seen", "ssid", n.SSID, "signal", n.Signal)
	}
}
