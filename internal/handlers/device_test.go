package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fermenstation/internal/models"
	"fermenstation/internal/service"

	"github.com/gin-gonic/gin"
)

func doRequest(r http.Handler, method, path, contentType, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&service.Service{})
	w := doRequest(r, http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), statusOK) {
		t.Fatalf("health status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestGetConfig_OmitsPassword(t *testing.T) {
	cfg := models.DefaultDeviceConfig()
	cfg.SSID, cfg.Password, cfg.DeviceID = "brewery", "secret-hops", "dev-1"
	r := newTestRouter(&service.Service{Config: &mockConfig{cfg: cfg}})

	w := doRequest(r, http.MethodGet, "/api/config", "", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if strings.Contains(w.Body.String(), "secret-hops") || strings.Contains(w.Body.String(), "password") {
		t.Fatalf("password leaked: %s", w.Body.String())
	}
	var got models.DeviceConfig
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.SSID != "brewery" || got.DeviceID != "dev-1" || got.LocalVariance != models.DefaultLocalVariance {
		t.Fatalf("unexpected config: %+v", got)
	}
}

func TestSaveConfig(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		body        string
		updateErr   error
		wantCode    int
		wantCalls   int
	}{
		{"missing content type", "", `{"device_id":"x"}`, nil, http.StatusBadRequest, 0},
		{"wrong content type", "text/plain", `{"device_id":"x"}`, nil, http.StatusBadRequest, 0},
		{"malformed json", "application/json", `{"device_id":`, nil, http.StatusBadRequest, 0},
		{"validation error", "application/json", `{"local_variance":-1}`,
			fmt.Errorf("%w: local_variance must be >= 0", service.ErrInvalidConfig), http.StatusBadRequest, 1},
		{"loop stopped", "application/json", `{"device_id":"x"}`, errors.New("control loop stopped"), http.StatusInternalServerError, 1},
		{"ok with charset", "application/json; charset=utf-8", `{"device_id":"dev-2"}`, nil, http.StatusOK, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfgSvc := &mockConfig{cfg: models.DefaultDeviceConfig(), updateErr: tc.updateErr}
			r := newTestRouter(&service.Service{Config: cfgSvc})

			w := doRequest(r, http.MethodPost, "/api/config", tc.contentType, tc.body)

			if w.Code != tc.wantCode {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.wantCode, w.Body.String())
			}
			if cfgSvc.updateCalls != tc.wantCalls {
				t.Fatalf("Update calls=%d want %d", cfgSvc.updateCalls, tc.wantCalls)
			}
		})
	}
}

func TestSaveConfig_PassesPartialPatch(t *testing.T) {
	cfgSvc := &mockConfig{cfg: models.DefaultDeviceConfig()}
	r := newTestRouter(&service.Service{Config: cfgSvc})

	w := doRequest(r, http.MethodPost, "/api/config", "application/json",
		`{"device_id":"dev-2","safety_max_temperature":30}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	p := cfgSvc.lastPatch
	if p.DeviceID == nil || *p.DeviceID != "dev-2" || p.SafetyMaxTemperature == nil || *p.SafetyMaxTemperature != 30 {
		t.Fatalf("patch fields not bound: %+v", p)
	}
	if p.SSID != nil || p.Password != nil || p.LocalVariance != nil {
		t.Fatalf("absent fields must stay nil: %+v", p)
	}
	var resp struct {
		Status string              `json:"status"`
		Config models.DeviceConfig `json:"config"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != statusSuccess || resp.Config.DeviceID != "dev-2" {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}
}

func TestResetConfig(t *testing.T) {
	cfgSvc := &mockConfig{}
	r := newTestRouter(&service.Service{Config: cfgSvc})
	w := doRequest(r, http.MethodPost, "/api/reset", "", "")
	if w.Code != http.StatusOK || cfgSvc.resetCalls != 1 {
		t.Fatalf("status=%d calls=%d", w.Code, cfgSvc.resetCalls)
	}

	cfgSvc.resetErr = errors.New("db locked")
	w = doRequest(r, http.MethodPost, "/api/reset", "", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestRestartDevice(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := NewHandler(&service.Service{}, nil, nil, nil).InitRoutes()
	if w := doRequest(r, http.MethodPost, "/api/restart", "", ""); w.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 without a restart hook, got %d", w.Code)
	}

	called := make(chan struct{})
	r = NewHandler(&service.Service{}, nil, nil, func() { close(called) }).InitRoutes()
	w := doRequest(r, http.MethodPost, "/api/restart", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("restart hook not called")
	}
}

func TestGetReadings(t *testing.T) {
	snap := models.Snapshot{
		ID:       1,
		Readings: models.SensorReadings{Fermenter: 19.5, Ambient: 22, Defrost: models.SensorError, Gravity: -1},
		Relays:   models.RelayState{Heating: true},
		Network:  models.NetworkStatus{Mode: models.ModeStation},
		Binding:  models.ProcessBinding{ProcessID: "p-1", Active: true},
	}
	mon := &mockMonitoring{state: snap}
	r := newTestRouter(&service.Service{Monitoring: mon})

	w := doRequest(r, http.MethodGet, "/api/readings", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var got models.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Readings != snap.Readings || got.Relays != snap.Relays || got.Binding != snap.Binding {
		t.Fatalf("got %+v", got)
	}

	mon.err = errors.New("boom")
	if w := doRequest(r, http.MethodGet, "/api/readings", "", ""); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestReconnect(t *testing.T) {
	net := &mockNetwork{status: models.NetworkStatus{Mode: models.ModeConnecting}, started: true}
	r := newTestRouter(&service.Service{Network: net})

	w := doRequest(r, http.MethodPost, "/api/network/reconnect", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), statusStarted) {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	net.started = false
	w = doRequest(r, http.MethodPost, "/api/network/reconnect", "", "")
	if !strings.Contains(w.Body.String(), statusUnchanged) {
		t.Fatalf("body=%s", w.Body.String())
	}

	net.err = errors.New("loop stopped")
	if w := doRequest(r, http.MethodPost, "/api/network/reconnect", "", ""); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("fermenstation_up 1\n"))
	})
	r := NewHandler(&service.Service{}, nil, metrics, nil).InitRoutes()

	w := doRequest(r, http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "fermenstation_up") {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}
