package telemetry

import (
	"context"
	"fmt"

	"fermenstation/internal/config"
	"fermenstation/internal/models"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const measurement = "fermenstation"

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxSink writes one point per snapshot.
type InfluxSink struct {
	client   influxdb2.Client
	writer   pointWriter
	deviceID string
}

func NewInfluxSink(s config.TelemetrySettings, deviceID string) (*InfluxSink, error) {
	if s.InfluxURL == "" || s.InfluxToken == "" || s.InfluxOrg == "" || s.InfluxBucket == "" {
		return nil, fmt.Errorf("influx config incomplete")
	}
	client := influxdb2.NewClient(s.InfluxURL, s.InfluxToken)
	return &InfluxSink{
		client:   client,
		writer:   client.WriteAPIBlocking(s.InfluxOrg, s.InfluxBucket),
		deviceID: deviceID,
	}, nil
}

func (i *InfluxSink) Publish(ctx context.Context, s models.Snapshot) error {
	if err := i.writer.WritePoint(ctx, snapshotPoint(i.deviceID, s)); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}
	return nil
}

func snapshotPoint(deviceID string, s models.Snapshot) *write.Point {
	tags := map[string]string{
		"device_id": deviceID,
		"mode":      string(s.Network.Mode),
		"path":      string(s.Path),
	}
	fields := map[string]interface{}{
		"temp_fermenter": s.Readings.Fermenter,
		"temp_ambient":   s.Readings.Ambient,
		"temp_defrost":   s.Readings.Defrost,
		"heating":        s.Relays.Heating,
		"cooling":        s.Relays.Cooling,
		"defrost":        s.Relays.Defrost,
	}
	if s.Readings.Gravity != models.GravityAbsent {
		fields["gravity"] = s.Readings.Gravity
	}
	return influxdb2.NewPoint(measurement, tags, fields, s.UpdatedAt)
}

func (i *InfluxSink) Close() {
	if i.client != nil {
		i.client.Close()
	}
}
