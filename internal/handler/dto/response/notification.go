package response

import (
	"time"

	"admin-alerts/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type NotificationResponse struct {
	ID            uuid.UUID         `json:"id"`
	Title         string            `json:"title"`
	Message       string            `json:"message"`
	Type          string            `json:"type"`
	Data          map[string]string `json:"data,omitempty"`
	ActionRef     string            `json:"actionRef,omitempty"`
	CorrelationID string            `json:"correlationId"`
	CreatedAt     time.Time         `json:"createdAt"`
	ReadAt        *time.Time        `json:"readAt,omitempty"`
}

func FromNotificationView(view *queries.NotificationView) *NotificationResponse {
	var resp NotificationResponse
	_ = copier.Copy(&resp, view)
	return &resp
}

func FromNotificationList(views []*queries.NotificationView) []*NotificationResponse {
	result := make([]*NotificationResponse, 0, len(views))
	for _, v := range views {
		result = append(result, FromNotificationView(v))
	}
	return result
}
