package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wellbeing-reminder-backend/internal/model"
)

type putDeviceRequest struct {
	UserID   int64  `json:"user_id" binding:"required"`
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform"`
}

// PutDevice registers or refreshes a device for a user, upserting by
// (user, token).
func (h *Handler) PutDevice(c *gin.Context) {
	var req putDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	platform := model.ParsePlatform(req.Platform)
	if err := h.store.UpsertRegistration(c.Request.Context(), req.UserID, req.Token, platform); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusCreated)
}

type deleteDeviceRequest struct {
	Token string `json:"token" binding:"required"`
}

// DeleteDevice removes a device registration by token.
func (h *Handler) DeleteDevice(c *gin.Context) {
	var req deleteDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.store.RemoveRegistration(c.Request.Context(), req.Token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}
