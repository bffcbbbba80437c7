package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"budgetmaster/internal/core"
)

// BudgetAlertMessage is emitted once per (user, category, month) after the
// alert email went out and the notification was recorded.
type BudgetAlertMessage struct {
	MessageID    string    `json:"message_id"`
	Type         string    `json:"type"`
	UserID       int64     `json:"user_id"`
	UserEmail    string    `json:"user_email"`
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Limit        string    `json:"limit"`
	Spent        string    `json:"spent"`
	Period       string    `json:"period"`
	SentAt       time.Time `json:"sent_at"`
}

func NewBudgetAlertMessage(alert core.Alert, n core.Notification) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		MessageID:    uuid.NewString(),
		Type:         string(n.Type),
		UserID:       alert.User.ID,
		UserEmail:    alert.User.Email,
		CategoryID:   alert.Category.ID,
		CategoryName: alert.Category.Name,
		Limit:        alert.Limit.String(),
		Spent:        alert.Spent.String(),
		Period:       n.Period,
		SentAt:       n.SentAt.UTC(),
	}
}

func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
