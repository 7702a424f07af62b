package domain

import "time"

type NotificationType string

const (
	NotifBooking  NotificationType = "booking"
	NotifTrip     NotificationType = "trip"
	NotifSystem   NotificationType = "system"
	NotifFeedback NotificationType = "feedback"
)

// RefModel names the entity a notification points back to.
type RefModel string

const (
	RefBooking RefModel = "Booking"
	RefUser    RefModel = "User"
	RefShuttle RefModel = "Shuttle"
)

type Notification struct {
	ID            int64            `gorm:"primaryKey" json:"id"`
	UserID        int64            `gorm:"not null;index:idx_notifications_user_created,priority:1" json:"user_id"`
	Title         string           `gorm:"not null" json:"title"`
	Message       string           `gorm:"not null" json:"message"`
	IsRead        bool             `gorm:"default:false" json:"is_read"`
	Type          NotificationType `gorm:"not null;default:system" json:"type"`
	RelatedItemID *int64           `json:"related_item_id,omitempty"`
	RefModel      RefModel         `gorm:"default:Booking" json:"ref_model,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_notifications_user_created,priority:2,sort:desc" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Notification) TableName() string { return "notifications" }
