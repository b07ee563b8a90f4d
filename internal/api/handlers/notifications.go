package handlers

import (
	"errors"
	"fleet-console/internal/repository"
	"fleet-console/internal/services"
	"fleet-console/internal/ws"
	"fleet-console/pkg/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
	hub                 *ws.Hub
}

func NewNotificationHandler(notificationService *services.NotificationService, hub *ws.Hub) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		hub:                 hub,
	}
}

// GetNotifications returns the notification feed, newest first
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	notifications, err := h.notificationService.GetAllNotifications()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve notifications", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Notifications retrieved successfully", notifications)
}

// GetUnreadCount returns the number of unread notifications
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	count, err := h.notificationService.UnreadCount()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to count notifications", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Unread count retrieved successfully", map[string]int64{
		"unread": count,
	})
}

// MarkRead marks a single notification as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id := c.Param("id")

	if err := h.notificationService.MarkRead(id); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "Notification not found", err)
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to mark notification read", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Notification marked read", nil)
}

// MarkAllRead marks every unread notification as read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	updated, err := h.notificationService.MarkAllRead()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to mark notifications read", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "All notifications marked read", map[string]int64{
		"updated": updated,
	})
}

// Stream upgrades the connection to a WebSocket for live notification delivery
func (h *NotificationHandler) Stream(c *gin.Context) {
	if err := h.hub.Upgrade(c.Writer, c.Request); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to upgrade connection", err)
		return
	}
}
