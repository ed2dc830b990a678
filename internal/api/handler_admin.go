package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"wellbeing-reminder-backend/internal/model"
)

func pageParams(c *gin.Context) (offset, limit int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 500 {
		limit = 50
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit, limit
}

// GetDevices lists device registrations.
func (h *Handler) GetDevices(c *gin.Context) {
	offset, limit := pageParams(c)
	devices, total, err := h.store.ListRegistrations(c.Request.Context(), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "devices": devices})
}

// GetTrackers lists notification trackers.
func (h *Handler) GetTrackers(c *gin.Context) {
	offset, limit := pageParams(c)
	trackers, total, err := h.store.ListTrackers(c.Request.Context(), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "trackers": trackers})
}

type typeCount struct {
	Type  model.NotificationType `json:"type"`
	Count int64                  `json:"count"`
}

type platformCount struct {
	Platform model.Platform `json:"platform"`
	Count    int64          `json:"count"`
}

// GetStats aggregates registry and tracker counts for the admin dashboard.
func (h *Handler) GetStats(c *gin.Context) {
	db := h.store.DB().WithContext(c.Request.Context())

	var activeDevices int64
	if err := db.Model(&model.DeviceRegistration{}).
		Where("is_active = ?", true).Count(&activeDevices).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var owners int64
	if err := db.Model(&model.DeviceRegistration{}).
		Where("is_active = ?", true).
		Distinct("user_id").Count(&owners).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var byPlatform []platformCount
	if err := db.Model(&model.DeviceRegistration{}).
		Select("platform, COUNT(*) AS count").
		Where("is_active = ?", true).
		Group("platform").Scan(&byPlatform).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var sentByType []typeCount
	if err := db.Model(&model.NotificationTracker{}).
		Select("type, COUNT(*) AS count").
		Group("type").Scan(&sentByType).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"active_devices": activeDevices,
		"device_owners":  owners,
		"by_platform":    byPlatform,
		"sent_by_type":   sentByType,
	})
}

// GetSettings returns the live scheduling configuration.
func (h *Handler) GetSettings(c *gin.Context) {
	setting, err := h.settings.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, setting)
}

// PutSettings replaces the scheduling configuration. Cron changes take
// effect on the next process restart; thresholds and cooldowns apply as
// soon as the settings cache expires.
func (h *Handler) PutSettings(c *gin.Context) {
	var setting model.NotificationSetting
	if err := c.ShouldBindJSON(&setting); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.store.UpdateSettings(c.Request.Context(), &setting); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.settings.Invalidate()

	c.JSON(http.StatusOK, setting)
}
