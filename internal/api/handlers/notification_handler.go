// server/internal/api/handlers/notification_handler.go
package handlers

import (
	"context"
	"net/http"

	"freight-exchange-api-server/internal/models"

	"github.com/gin-gonic/gin"
)

// NotificationStore is the inbox read/ack surface the handler needs.
type NotificationStore interface {
	ListNotifications(ctx context.Context, recipientID string, unreadOnly bool) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, recipientID, notificationID string) error
}

type NotificationHandler struct {
	Inbox NotificationStore
}

// GetMyNotifications lists the caller's inbox, newest first. Pass
// ?unread=true for unread records only.
func (h *NotificationHandler) GetMyNotifications(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"
	notifications, err := h.Inbox.ListNotifications(context.Background(), c.GetString("user_id"), unreadOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query notifications"})
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// MarkRead acknowledges one notification.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	err := h.Inbox.MarkNotificationRead(context.Background(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}
