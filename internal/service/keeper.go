package service

import (
	"context"
	"time"

	"fermenstation/internal/logger"
	"fermenstation/internal/models"
	"fermenstation/internal/repository"
)

// configKeeper updates the cached configuration and persists it. Persistence
// is best effort: a store failure is logged and the cached copy still changes.
type configKeeper struct {
	state *DeviceState
	repo  repository.ConfigRepo
	rec   recorder
	log   *logger.Logger
	now   func() time.Time
}

func (k *configKeeper) save(ctx context.Context, cfg models.DeviceConfig, reason string) {
	k.state.SetConfig(cfg)
	if err := k.repo.Save(ctx, cfg); err != nil {
		k.log.Errorw("config_save_failed", "reason", reason, "error", err)
		return
	}
	k.log.Infow("config_saved", "reason", reason)
	k.rec.record(ctx, k.now(), models.EventConfig, reason, map[string]any{"process_id": cfg.ProcessID})
}

// reset clears the store and returns the cache and the binding to defaults.
func (k *configKeeper) reset(ctx context.Context, reason string) {
	k.state.SetConfig(models.DefaultDeviceConfig())
	k.state.SetBinding(models.ProcessBinding{})
	if err := k.repo.Clear(ctx); err != nil {
		k.log.Errorw("config_clear_failed", "reason", reason, "error", err)
		return
	}
	k.log.Warnw("config_cleared", "reason", reason)
	k.rec.record(ctx, k.now(), models.EventConfig, "configuration cleared", map[string]any{"reason": reason})
}
