// Package remote calls the fermentation backend's RPC endpoints.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"fermenstation/internal/config"

	"github.com/sony/gobreaker"
)

// RPC names exposed by the backend.
const (
	rpcValidateDevice   = "rpc_validate_device"
	rpcGetActiveProcess = "rpc_get_active_process"
	rpcControl          = "rpc_controlar_fermentacao"
)

// Recipe defaults used when the backend omits them.
const (
	DefaultRecipeTarget   = 20.0
	DefaultRecipeVariance = 0.5
)

const maxResponseBytes = 64 << 10

var (
	ErrMalformedResponse = errors.New("malformed backend response")
	ErrUnexpectedStatus  = errors.New("unexpected backend status")
	ErrNotConfigured     = errors.New("backend url not configured")
)

// Client is the backend RPC client. All calls share one circuit breaker.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
}

// New builds a client from backend settings. A zero breaker threshold falls
// back to five consecutive failures.
func New(s config.BackendSettings) *Client {
	fails := s.BreakerFail
	if fails <= 0 {
		fails = 5
	}
	return &Client{
		baseURL: s.URL,
		apiKey:  s.APIKey,
		http:    &http.Client{Timeout: s.Timeout},
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "backend",
			Timeout: s.BreakerOpen,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= uint32(fails)
			},
		}),
	}
}

// BreakerState reports the breaker state name (closed, half-open, open).
func (c *Client) BreakerState() string {
	return c.cb.State().String()
}

// Validation is the reply of rpc_validate_device.
type Validation struct {
	Valid   bool
	Message string
}

// ActiveProcess is the reply of rpc_get_active_process.
type ActiveProcess struct {
	Found             bool
	ProcessID         string
	TargetTemperature float64
	Variance          float64
	Message           string
}

// ControlRequest carries one cycle's readings. Gravity of -1 is not sent.
type ControlRequest struct {
	DeviceID  string
	ProcessID string
	Fermenter float64
	Ambient   float64
	Defrost   float64
	Gravity   float64
}

// ControlDecision is the backend's relay command for one cycle.
type ControlDecision struct {
	Heating bool
	Cooling bool
	Defrost bool
	Action  string
}

type validateReply struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type activeProcessReply struct {
	ProcessFound bool     `json:"process_found"`
	ProcessID    string   `json:"process_id"`
	Target       *float64 `json:"temperatura_alvo_receita"`
	Variance     *float64 `json:"variacao_aceitavel_receita"`
	Message      string   `json:"message"`
}

type controlPayload struct {
	DeviceID  string   `json:"p_device_id"`
	ProcessID string   `json:"p_processo_id"`
	Fermenter float64  `json:"p_temp_fermentador"`
	Ambient   float64  `json:"p_temp_ambiente"`
	Defrost   float64  `json:"p_temp_degelo"`
	Gravity   *float64 `json:"p_gravidade,omitempty"`
}

type controlReply struct {
	Heating bool   `json:"releAquecimento"`
	Cooling bool   `json:"releResfriamento"`
	Defrost bool   `json:"releDegelo"`
	Action  string `json:"acaoTomada"`
}

type devicePayload struct {
	DeviceID string `json:"p_device_id"`
}

func (c *Client) ValidateDevice(ctx context.Context, deviceID string) (Validation, error) {
	var r validateReply
	if err := c.call(ctx, rpcValidateDevice, devicePayload{DeviceID: deviceID}, &r); err != nil {
		return Validation{}, err
	}
	return Validation{Valid: r.Status == "success", Message: r.Message}, nil
}

func (c *Client) GetActiveProcess(ctx context.Context, deviceID string) (ActiveProcess, error) {
	var r activeProcessReply
	if err := c.call(ctx, rpcGetActiveProcess, devicePayload{DeviceID: deviceID}, &r); err != nil {
		return ActiveProcess{}, err
	}
	p := ActiveProcess{
		Found:             r.ProcessFound,
		ProcessID:         r.ProcessID,
		TargetTemperature: DefaultRecipeTarget,
		Variance:          DefaultRecipeVariance,
		Message:           r.Message,
	}
	if r.Target != nil {
		p.TargetTemperature = *r.Target
	}
	if r.Variance != nil {
		p.Variance = *r.Variance
	}
	return p, nil
}

func (c *Client) ControlFermentation(ctx context.Context, req ControlRequest) (ControlDecision, error) {
	payload := controlPayload{
		DeviceID:  req.DeviceID,
		ProcessID: req.ProcessID,
		Fermenter: req.Fermenter,
		Ambient:   req.Ambient,
		Defrost:   req.Defrost,
	}
	if req.Gravity != -1.0 {
		g := req.Gravity
		payload.Gravity = &g
	}
	var r controlReply
	if err := c.call(ctx, rpcControl, payload, &r); err != nil {
		return ControlDecision{}, err
	}
	return ControlDecision{Heating: r.Heating, Cooling: r.Cooling, Defrost: r.Defrost, Action: r.Action}, nil
}

// call posts body to /rpc/<name> through the breaker and decodes the reply into out.
func (c *Client) call(ctx context.Context, name string, body, out any) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	raw, err := c.cb.Execute(func() (interface{}, error) {
		return c.post(ctx, name, buf)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := json.Unmarshal(raw.([]byte), out); err != nil {
		return fmt.Errorf("%s: %w: %v", name, ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, name string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rpc/"+name, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return data, nil
}
