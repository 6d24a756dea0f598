package logger

import (
	"sync"

	"fermenstation/internal/models"

	"go.uber.org/zap/zapcore"
)

// Ring is a fixed-capacity buffer of log entries. When full, the oldest
// entry is overwritten.
type Ring struct {
	mu   sync.Mutex
	buf  []models.LogEntry
	next int
	full bool
}

// NewRing returns an empty ring holding at most capacity entries.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}
	return &Ring{buf: make([]models.LogEntry, capacity)}
}

// Add appends e, evicting the oldest entry when the ring is full.
func (r *Ring) Add(e models.LogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = e
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

// Len returns the number of buffered entries.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.buf)
	}
	return r.next
}

// Entries returns a copy of the buffered entries, oldest first.
func (r *Ring) Entries() []models.LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		out := make([]models.LogEntry, r.next)
		copy(out, r.buf[:r.next])
		return out
	}
	out := make([]models.LogEntry, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	out = append(out, r.buf[:r.next]...)
	return out
}

// ringCore is a zapcore.Core that records entries into a Ring.
type ringCore struct {
	zapcore.LevelEnabler
	ring   *Ring
	fields []zapcore.Field
}

func newRingCore(level zapcore.LevelEnabler, ring *Ring) zapcore.Core {
	return &ringCore{LevelEnabler: level, ring: ring}
}

func (c *ringCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = make([]zapcore.Field, 0, len(c.fields)+len(fields))
	clone.fields = append(clone.fields, c.fields...)
	clone.fields = append(clone.fields, fields...)
	return &clone
}

func (c *ringCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *ringCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	e := models.LogEntry{
		Time:    ent.Time.UTC(),
		Level:   ent.Level.String(),
		Message: ent.Message,
	}
	if len(enc.Fields) > 0 {
		e.Fields = enc.Fields
	}
	c.ring.Add(e)
	return nil
}

func (c *ringCore) Sync() error { return nil }
