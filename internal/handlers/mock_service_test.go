package handlers

import (
	"context"
	"time"

	"fermenstation/internal/models"
	"fermenstation/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockConfig struct {
	cfg       models.DeviceConfig
	updateErr error
	resetErr  error

	lastPatch   service.ConfigPatch
	updateCalls int
	resetCalls  int
}

func (m *mockConfig) Get(ctx context.Context) models.DeviceConfig { return m.cfg }

func (m *mockConfig) Update(ctx context.Context, p service.ConfigPatch) (models.DeviceConfig, error) {
	m.updateCalls++
	m.lastPatch = p
	if m.updateErr != nil {
		return models.DeviceConfig{}, m.updateErr
	}
	if p.DeviceID != nil {
		m.cfg.DeviceID = *p.DeviceID
	}
	return m.cfg, nil
}

func (m *mockConfig) Reset(ctx context.Context) error {
	m.resetCalls++
	return m.resetErr
}

type mockNetwork struct {
	status  models.NetworkStatus
	started bool
	err     error
	calls   int
}

func (m *mockNetwork) Reconnect(ctx context.Context) (models.NetworkStatus, bool, error) {
	m.calls++
	return m.status, m.started, m.err
}

type mockMonitoring struct {
	state models.Snapshot
	err   error
	logs  []models.LogEntry
}

func (m *mockMonitoring) GetState(ctx context.Context) (models.Snapshot, error) {
	return m.state, m.err
}

func (m *mockMonitoring) Logs() []models.LogEntry { return m.logs }

type mockEventLog struct {
	resp     []models.ControlEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.ControlEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
