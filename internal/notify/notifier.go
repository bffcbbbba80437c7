// Package notify delivers budget alerts and records that they were sent.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"budgetmaster/internal/core"
	"budgetmaster/internal/log"
)

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type NotificationRecorder interface {
	RecordNotification(ctx context.Context, n core.Notification) (bool, error)
}

// AlertPublisher fans a recorded alert out to other systems.
type AlertPublisher interface {
	PublishBudgetAlert(ctx context.Context, alert core.Alert, n core.Notification) error
}

var bodyTemplate = template.Must(template.New("budget_alert").Parse(`Dear {{.User.Name}},

You have reached your monthly budget limit for {{.Category.Name}}.

Budget Limit: ${{.Limit}}
Amount Spent: ${{.Spent}}

Consider reviewing your expenses to stay within budget.

Best regards,
Budget Master App
`))

// Subject returns the alert email subject for a category.
func Subject(categoryName string) string {
	return fmt.Sprintf("Budget Alert: %s Limit Reached", categoryName)
}

// Body renders the plaintext alert email.
func Body(alert core.Alert) (string, error) {
	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, alert); err != nil {
		return "", fmt.Errorf("render alert body: %w", err)
	}
	return buf.String(), nil
}

type Notifier struct {
	sender    EmailSender
	recorder  NotificationRecorder
	publisher AlertPublisher
	logger    *log.Logger
	now       func() time.Time
}

type Option func(*Notifier)

func WithPublisher(p AlertPublisher) Option {
	return func(n *Notifier) { n.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

func New(sender EmailSender, recorder NotificationRecorder, logger *log.Logger, opts ...Option) *Notifier {
	n := &Notifier{
		sender:   sender,
		recorder: recorder,
		logger:   logger.WithComponent(log.ComponentNotify),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify emails the alert and, only if the send succeeded, records a
// budget_exceeded notification for the current local month. Failures are
// logged and never returned; the result reports whether a notification
// was recorded.
func (n *Notifier) Notify(ctx context.Context, alert core.Alert) bool {
	fields := log.NewFields().
		WithUserCategory(alert.User.ID, alert.Category.ID).
		WithBudget(alert.Limit.Cents, alert.Spent.Cents).
		WithOperation(log.OpNotify)

	body, err := Body(alert)
	if err != nil {
		n.logger.ErrorContext(ctx, "Failed to render alert", fields.WithError(err).ToSlice()...)
		return false
	}

	if err := n.sender.Send(ctx, alert.User.Email, Subject(alert.Category.Name), body); err != nil {
		n.logger.ErrorContext(ctx, "Failed to send budget alert", fields.WithError(err).ToSlice()...)
		return false
	}

	sentAt := n.now()
	rec := core.Notification{
		UserID:     alert.User.ID,
		CategoryID: alert.Category.ID,
		Type:       core.NotificationBudgetExceeded,
		SentAt:     sentAt,
		Period:     core.Period(sentAt),
	}

	inserted, err := n.recorder.RecordNotification(ctx, rec)
	if err != nil {
		n.logger.ErrorContext(ctx, "Alert sent but not recorded", fields.WithError(err).ToSlice()...)
		return false
	}
	if !inserted {
		n.logger.WarnContext(ctx, "Alert already recorded for this month", fields.ToSlice()...)
		return false
	}

	n.logger.InfoContext(ctx, "Budget alert sent", fields.ToSlice()...)

	if n.publisher != nil {
		if err := n.publisher.PublishBudgetAlert(ctx, alert, rec); err != nil {
			n.logger.WarnContext(ctx, "Failed to publish budget alert", fields.WithError(err).ToSlice()...)
		}
	}
	return true
}
