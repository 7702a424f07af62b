package notification

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campusshuttle/internal/pkg/response"
	"campusshuttle/internal/repository"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/notifications", h.List)
	rg.PATCH("/notifications/read-all", h.MarkAllRead)
	rg.PATCH("/notifications/:id/read", h.MarkRead)
}

func (h *Handler) List(c *gin.Context) {
	userID := c.GetInt64("user_id")

	list, unread, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get notifications")
		return
	}

	items := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		items = append(items, toResponse(n))
	}

	response.Success(c, http.StatusOK, ListResponse{
		Notifications: items,
		UnreadCount:   unread,
	})
}

func (h *Handler) MarkRead(c *gin.Context) {
	userID := c.GetInt64("user_id")

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid notification ID")
		return
	}

	n, err := h.service.MarkRead(c.Request.Context(), id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Notification not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update notification")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"notification": toResponse(*n)})
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	userID := c.GetInt64("user_id")

	count, err := h.service.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update notifications")
		return
	}

	response.Success(c, http.StatusOK, MarkAllReadResponse{Count: count})
}
