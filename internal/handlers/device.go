package handlers

import (
	"errors"
	"net/http"

	"fermenstation/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK        = "ok"
	statusSuccess   = "success"
	statusStarted   = "started"
	statusUnchanged = "unchanged"

	errGetState        = "failed to load state"
	errSaveConfig      = "failed to save configuration"
	errResetConfig     = "failed to reset configuration"
	errReconnect       = "failed to start reconnect"
	errInvalidBodyPref = "invalid body: "
	errRestartDisabled = "restart not available"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// ConfigRequest documents the POST /api/config payload. Every field is optional.
type ConfigRequest struct {
	SSID                     string  `json:"ssid" example:"brewery"`
	Password                 string  `json:"password" example:"hops"`
	DeviceID                 string  `json:"device_id" example:"a1b2c3"`
	ProcessID                string  `json:"process_id"`
	DefrostMode              string  `json:"defrost_mode" example:"by_temperature"`
	DefrostSchedule          string  `json:"defrost_schedule" example:"06:30"`
	DefrostTargetTemperature float64 `json:"defrost_target_temperature" example:"5"`
	SafetyMinTemperature     float64 `json:"safety_min_temperature" example:"0"`
	SafetyMaxTemperature     float64 `json:"safety_max_temperature" example:"35"`
	LocalTargetTemperature   float64 `json:"local_target_temperature" example:"20"`
	LocalVariance            float64 `json:"local_variance" example:"0.5"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Get configuration
// @Description  The password is never returned.
// @Tags         config
// @Produce      json
// @Success      200  {object}  models.DeviceConfig
// @Router       /api/config [get]
func (h *Handler) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Config.Get(c.Request.Context()))
}

// @Summary      Update configuration
// @Description  Partial update: fields left out keep their value.
// @Tags         config
// @Accept       json
// @Produce      json
// @Param        body  body      ConfigRequest  true  "Fields to change"
// @Success      200   {object}  map[string]interface{}  "status, message, config"
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/config [post]
func (h *Handler) saveConfig(c *gin.Context) {
	var p service.ConfigPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	cfg, err := h.services.Config.Update(c.Request.Context(), p)
	if err != nil {
		if errors.Is(err, service.ErrInvalidConfig) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errSaveConfig, "config_update_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  statusSuccess,
		"message": "configuration saved",
		"config":  cfg,
	})
}

// @Summary      Reset configuration
// @Description  Clears the stored configuration and returns to factory defaults.
// @Tags         config
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/reset [post]
func (h *Handler) resetConfig(c *gin.Context) {
	if err := h.services.Config.Reset(c.Request.Context()); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errResetConfig, "config_reset_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSuccess, "message": "configuration cleared"})
}

// @Summary      Restart device
// @Description  Responds first, then restarts the process.
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      501  {object}  map[string]string
// @Router       /api/restart [post]
func (h *Handler) restartDevice(c *gin.Context) {
	if h.restart == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": errRestartDisabled})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSuccess, "message": "device restarting"})
	if h.log != nil {
		h.log.Warnw("restart_requested")
	}
	go h.restart()
}

// @Summary      Current readings
// @Description  Latest sensor readings, relay state, network mode and process binding.
// @Tags         monitoring
// @Produce      json
// @Success      200  {object}  models.Snapshot
// @Failure      500  {object}  map[string]string
// @Router       /api/readings [get]
func (h *Handler) getReadings(c *gin.Context) {
	st, err := h.services.Monitoring.GetState(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Reconnect
// @Description  Leaves access point mode (or an offline wait) and starts a new connection attempt.
// @Tags         network
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, network"
// @Failure      500  {object}  map[string]string
// @Router       /api/network/reconnect [post]
func (h *Handler) reconnect(c *gin.Context) {
	st, started, err := h.services.Network.Reconnect(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errReconnect, "reconnect_failed", err)
		return
	}
	status := statusUnchanged
	if started {
		status = statusStarted
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "network": st})
}
