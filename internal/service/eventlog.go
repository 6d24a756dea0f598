package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fermenstation/internal/models"
	"fermenstation/internal/repository"
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range: from must be <= to")
	ErrUnknownEventType = errors.New("unknown event type")
)

var eventTypes = map[string]bool{
	models.EventNetwork: true,
	models.EventRelay:   true,
	models.EventRemote:  true,
	models.EventConfig:  true,
	models.EventSensor:  true,
}

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

// List returns persisted control events in chronological order.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.ControlEvent, error) {
	from, to, typ, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, from, to, typ)
}

// normalizeFilter converts bounds to UTC, uppercases the type and validates both.
func normalizeFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from, to := toUTC(f.From), toUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", ErrInvalidTimeRange
	}
	typ := strings.ToUpper(strings.TrimSpace(f.Type))
	if typ != "" && !eventTypes[typ] {
		return time.Time{}, time.Time{}, "", fmt.Errorf("%w: %q", ErrUnknownEventType, f.Type)
	}
	return from, to, typ, nil
}
