package service

import (
	"context"
	"time"

	"fermenstation/internal/logger"
	"fermenstation/internal/models"
	"fermenstation/internal/repository"

	"github.com/google/uuid"
)

// recorder appends control events. Store failures are logged and dropped.
type recorder struct {
	repo repository.EventRepo
	log  *logger.Logger
}

func (r recorder) record(ctx context.Context, at time.Time, typ, desc string, meta any) {
	if r.repo == nil {
		return
	}
	err := r.repo.Append(ctx, models.ControlEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  at.UTC(),
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	})
	if err != nil && r.log != nil {
		r.log.Warnw("event_append_failed", "type", typ, "error", err)
	}
}
