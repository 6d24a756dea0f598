// Package telemetry pushes controller snapshots to optional external sinks.
package telemetry

import (
	"context"
	"errors"

	"fermenstation/internal/models"
)

// Sink receives one snapshot per control cycle.
type Sink interface {
	Publish(ctx context.Context, s models.Snapshot) error
	Close()
}

// Multi fans a snapshot out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, s models.Snapshot) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Publish(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() {
	for _, sink := range m {
		sink.Close()
	}
}
