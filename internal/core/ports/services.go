package ports

import (
	"context"
	"time"

	"github.com/samirrijal/kehillah/internal/core/domain"
)

// ScheduleTick is the periodic "next minyan" broadcast.
type ScheduleTick struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Day         domain.Weekday   `json:"day"`
	Nusach      string           `json:"nusach"`
	Next        *domain.Upcoming `json:"next"`
}

// MinyanChange announces that a minyan was created, updated or deleted.
type MinyanChange struct {
	MinyanID    string    `json:"minyan_id"`
	SynagogueID string    `json:"synagogue_id,omitempty"`
	Deleted     bool      `json:"deleted,omitempty"`
	At          time.Time `json:"at"`
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishScheduleTick(ctx context.Context, tick *ScheduleTick) error
	PublishMinyanChanged(ctx context.Context, change *MinyanChange) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeScheduleTicks(ctx context.Context, handler func(ctx context.Context, tick *ScheduleTick) error) error
	SubscribeMinyanChanges(ctx context.Context, handler func(ctx context.Context, change *MinyanChange) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// NotificationService sends notifications (push, email, etc.).
type NotificationService interface {
	SendPush(ctx context.Context, userID, title, body string) error
}

// ReminderRequest asks for a notification ahead of a minyan's next start.
type ReminderRequest struct {
	UserID      string `json:"user_id"`
	MinyanID    string `json:"minyan_id"`
	LeadMinutes int    `json:"lead_minutes"`
}

// ReminderScheduler starts durable reminder workflows.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, req ReminderRequest) (workflowID string, err error)
}
