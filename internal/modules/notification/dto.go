package notification

import (
	"time"

	"campusshuttle/internal/domain"
)

type NotificationResponse struct {
	ID            int64                   `json:"id"`
	UserID        int64                   `json:"user_id"`
	Title         string                  `json:"title"`
	Message       string                  `json:"message"`
	IsRead        bool                    `json:"is_read"`
	Type          domain.NotificationType `json:"type"`
	RelatedItemID *int64                  `json:"related_item_id,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}

func toResponse(n domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:            n.ID,
		UserID:        n.UserID,
		Title:         n.Title,
		Message:       n.Message,
		IsRead:        n.IsRead,
		Type:          n.Type,
		RelatedItemID: n.RelatedItemID,
		CreatedAt:     n.CreatedAt,
	}
}

type ListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int64                  `json:"unread_count"`
}

type MarkAllReadResponse struct {
	Count int64 `json:"count"`
}
