package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"fermenstation/internal/models"
	"fermenstation/internal/service"
)

func TestGetLogs_ReturnsBufferOldestFirst(t *testing.T) {
	mon := &mockMonitoring{logs: []models.LogEntry{
		{Level: "info", Message: "wifi_connected"},
		{Level: "error", Message: "remote_control_failed", Fields: map[string]any{"error": "timeout"}},
	}}
	r := newTestRouter(&service.Service{Monitoring: mon})

	w := doRequest(r, http.MethodGet, "/api/logs", "", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var got []models.LogEntry
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 || got[0].Message != "wifi_connected" || got[1].Fields["error"] != "timeout" {
		t.Fatalf("unexpected logs: %+v", got)
	}
}

func TestGetLogs_EmptyIsArray(t *testing.T) {
	r := newTestRouter(&service.Service{Monitoring: &mockMonitoring{}})
	w := doRequest(r, http.MethodGet, "/api/logs", "", "")
	if w.Body.String() != "[]" {
		t.Fatalf("body=%s", w.Body.String())
	}
}

func TestGetEvents_ListAndValidation(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	events := []models.ControlEvent{
		{EventID: "e1", OccurredAt: now, Type: models.EventNetwork, Description: "connected"},
		{EventID: "e2", OccurredAt: now.Add(time.Second), Type: models.EventRelay, Description: "cooling"},
	}
	logs := &mockEventLog{resp: events}
	r := newTestRouter(&service.Service{EventLog: logs})

	if w := doRequest(r, http.MethodGet, "/api/events?from=notatime", "", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid 'from', got %d", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/api/events?to=31/08/2025", "", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid 'to', got %d", w.Code)
	}

	q := fmt.Sprintf("/api/events?from=%s&to=%s&type=relay",
		now.Format(time.RFC3339), now.Add(2*time.Second).Format(time.RFC3339))
	w := doRequest(r, http.MethodGet, q, "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int                   `json:"count"`
		Events []models.ControlEvent `json:"events"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Events) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if logs.lastType != "relay" || !logs.lastFrom.Equal(now) {
		t.Fatalf("filter not forwarded: type=%q from=%v", logs.lastType, logs.lastFrom)
	}
}

func TestGetEvents_DateOnlyToCoversWholeDay(t *testing.T) {
	logs := &mockEventLog{}
	r := newTestRouter(&service.Service{EventLog: logs})

	w := doRequest(r, http.MethodGet, "/api/events?from=2025-08-01&to=2025-08-31", "", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	wantTo := time.Date(2025, 8, 31, 23, 59, 59, 999999999, time.UTC)
	if !logs.lastTo.Equal(wantTo) {
		t.Fatalf("to=%v want %v", logs.lastTo, wantTo)
	}
	if !logs.lastFrom.Equal(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("from=%v", logs.lastFrom)
	}
}

func TestGetEvents_ServiceErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"bad range", service.ErrInvalidTimeRange, http.StatusBadRequest},
		{"unknown type", fmt.Errorf("%w: %q", service.ErrUnknownEventType, "START"), http.StatusBadRequest},
		{"store failure", errors.New("db locked"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&service.Service{EventLog: &mockEventLog{err: tc.err}})
			if w := doRequest(r, http.MethodGet, "/api/events", "", ""); w.Code != tc.want {
				t.Fatalf("status=%d want %d", w.Code, tc.want)
			}
		})
	}
}

func TestParseQueryTime(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-08-27T15:04:05+02:00", time.Date(2025, 8, 27, 13, 4, 5, 0, time.UTC), true},
		{"2025-08-27 15:04:05", time.Date(2025, 8, 27, 15, 4, 5, 0, time.UTC), true},
		{"2025-08-27", time.Date(2025, 8, 27, 0, 0, 0, 0, time.UTC), true},
		{"yesterday", time.Time{}, false},
	}
	for _, tc := range cases {
		got, err := parseQueryTime(tc.in)
		if (err == nil) != tc.ok {
			t.Fatalf("%q: err=%v", tc.in, err)
		}
		if tc.ok && !got.Equal(tc.want) {
			t.Fatalf("%q: got %v want %v", tc.in, got, tc.want)
		}
	}
}
