package logger

import (
	"fmt"
	"testing"

	"fermenstation/internal/models"

	"go.uber.org/zap/zapcore"
)

func TestRing_KeepsInsertionOrderBeforeWrap(t *testing.T) {
	r := NewRing(3)
	r.Add(models.LogEntry{Message: "a"})
	r.Add(models.LogEntry{Message: "b"})

	got := r.Entries()
	if len(got) != 2 || got[0].Message != "a" || got[1].Message != "b" {
		t.Fatalf("unexpected entries: %+v", got)
	}
}

func TestRing_OverwritesOldest(t *testing.T) {
	r := NewRing(3)
	for i := 0; i < 5; i++ {
		r.Add(models.LogEntry{Message: fmt.Sprint(i)})
	}
	got := r.Entries()
	if r.Len() != 3 || len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for i, want := range []string{"2", "3", "4"} {
		if got[i].Message != want {
			t.Fatalf("entry %d = %q, want %q", i, got[i].Message, want)
		}
	}
}

func TestRing_DefaultCapacity(t *testing.T) {
	r := NewRing(0)
	for i := 0; i < DefaultRingCapacity+10; i++ {
		r.Add(models.LogEntry{Message: fmt.Sprint(i)})
	}
	if r.Len() != DefaultRingCapacity {
		t.Fatalf("Len() = %d, want %d", r.Len(), DefaultRingCapacity)
	}
}

func TestLogger_TeesStructuredFieldsIntoRing(t *testing.T) {
	ring := NewRing(10)
	log := New(InfoLevel, ring)

	log.Debugw("hidden")
	log.With("device_id", "dev-1").Infow("relay_applied", "relay", "heating", "on", true)

	got := log.Entries()
	if len(got) != 1 {
		t.Fatalf("expected 1 entry (debug filtered), got %d: %+v", len(got), got)
	}
	e := got[0]
	if e.Message != "relay_applied" || e.Level != zapcore.InfoLevel.String() {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if e.Fields["relay"] != "heating" || e.Fields["on"] != true || e.Fields["device_id"] != "dev-1" {
		t.Fatalf("unexpected fields: %+v", e.Fields)
	}
	if e.Time.IsZero() {
		t.Fatalf("expected timestamp")
	}
}

func TestNop_HasNoEntries(t *testing.T) {
	log := Nop()
	log.Infow("ignored")
	if n := len(log.Entries()); n != 0 {
		t.Fatalf("expected no entries, got %d", n)
	}
}
