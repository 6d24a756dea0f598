package hardware

import (
	"bufio"
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"fermenstation/internal/models"
)

// SensorBus reads one temperature probe. A missing or faulty probe yields
// models.SensorError.
type SensorBus interface {
	Read(ctx context.Context, id models.SensorID) float64
}

// W1Bus reads DS18B20 probes from the Linux 1-wire sysfs tree.
type W1Bus struct {
	dir    string
	probes map[models.SensorID]string
}

// NewW1Bus maps sensor ids to 1-wire device ids (e.g. 28-0316a2799aff) under dir.
func NewW1Bus(dir string, probes map[models.SensorID]string) *W1Bus {
	return &W1Bus{dir: dir, probes: probes}
}

func (b *W1Bus) Read(ctx context.Context, id models.SensorID) float64 {
	if ctx.Err() != nil {
		return models.SensorError
	}
	dev := b.probes[id]
	if dev == "" {
		return models.SensorError
	}
	f, err := os.Open(filepath.Join(b.dir, dev, "w1_slave"))
	if err != nil {
		return models.SensorError
	}
	defer func() { _ = f.Close() }()
	return parseW1Slave(f)
}

// parseW1Slave decodes the two-line w1_slave format:
//
//	72 01 4b 46 7f ff 0e 10 57 : crc=57 YES
//	72 01 4b 46 7f ff 0e 10 57 t=23125
func parseW1Slave(r io.Reader) float64 {
	sc := bufio.NewScanner(r)
	if !sc.Scan() || !strings.HasSuffix(strings.TrimSpace(sc.Text()), "YES") {
		return models.SensorError
	}
	if !sc.Scan() {
		return models.SensorError
	}
	return parseMilliCelsius(sc.Text())
}

func parseMilliCelsius(line string) float64 {
	i := strings.LastIndex(line, "t=")
	if i < 0 {
		return models.SensorError
	}
	milli, err := strconv.Atoi(strings.TrimSpace(line[i+2:]))
	if err != nil {
		return models.SensorError
	}
	return float64(milli) / 1000
}

// SimulatedBus produces slow waveforms around typical fermenter, room and
// defrost-chamber temperatures.
type SimulatedBus struct {
	start time.Time
	now   func() time.Time

	mu    sync.Mutex
	fault map[models.SensorID]bool
}

func NewSimulatedBus(now func() time.Time) *SimulatedBus {
	if now == nil {
		now = time.Now
	}
	return &SimulatedBus{start: now(), now: now}
}

// Disconnect makes id report the error sentinel.
func (b *SimulatedBus) Disconnect(id models.SensorID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fault == nil {
		b.fault = make(map[models.SensorID]bool)
	}
	b.fault[id] = true
}

func (b *SimulatedBus) Read(_ context.Context, id models.SensorID) float64 {
	b.mu.Lock()
	faulty := b.fault[id]
	b.mu.Unlock()
	if faulty {
		return models.SensorError
	}
	t := b.now().Sub(b.start).Seconds() / 60
	var v float64
	switch id {
	case models.SensorFermenter:
		v = 25.0 + math.Sin(t)*2.0
	case models.SensorAmbient:
		v = 26.5 + math.Cos(t)*1.5
	case models.SensorDefrost:
		v = 4.0 + math.Sin(t)*1.0
	default:
		return models.SensorError
	}
	return math.Round(v*100) / 100
}
