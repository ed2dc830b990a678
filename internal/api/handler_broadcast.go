package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"wellbeing-reminder-backend/internal/model"
	"wellbeing-reminder-backend/internal/push"
	"wellbeing-reminder-backend/internal/reminder"
)

type broadcastRequest struct {
	Title string            `json:"title" binding:"required"`
	Body  string            `json:"body" binding:"required"`
	Data  map[string]string `json:"data"`
}

// PostBroadcast queues an operator message to every active device owner.
// Returns as soon as the fanout job is durable; delivery is asynchronous.
func (h *Handler) PostBroadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	jobID, err := h.broadcaster.Broadcast(c.Request.Context(), push.Payload{
		Title: req.Title,
		Body:  req.Body,
		Data:  req.Data,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "job_id": jobID})
}

// PostRunReminder triggers one scheduling pass for a reminder kind
// outside its cron. Returns 409 when a pass for the kind is running.
func (h *Handler) PostRunReminder(c *gin.Context) {
	kind := model.NotificationType(c.Param("kind"))
	if !model.ValidType(string(kind)) || kind == model.TypeCustomBroadcast {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown reminder kind"})
		return
	}

	pages, err := h.scheduler.RunKind(c.Request.Context(), kind)
	if errors.Is(err, reminder.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "pass already in progress"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "pages": pages})
}
