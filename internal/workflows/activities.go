package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/kehillah/internal/core/domain"
	"github.com/samirrijal/kehillah/internal/core/ports"
	"github.com/samirrijal/kehillah/internal/core/schedule"
	"github.com/samirrijal/kehillah/internal/pkg/logging"
	"github.com/samirrijal/kehillah/internal/pkg/metrics"
)

// ErrTypeMinyanGone marks activity failures that no retry can fix: the
// minyan was deleted or deactivated.
const ErrTypeMinyanGone = "MinyanGone"

// ReminderTarget is the resolved occurrence a reminder fires for.
type ReminderTarget struct {
	MinyanID      string
	SynagogueName string
	PrayerType    string
	DisplayTime   string
	StartsAt      time.Time
}

// ReminderActivities holds the activity implementations for the reminder workflow.
type ReminderActivities struct {
	Minyanim ports.MinyanRepository
	Resolver *schedule.Resolver
	Notifier ports.NotificationService
}

// ResolveNextStart finds the next occurrence of a minyan at or after now.
func (a *ReminderActivities) ResolveNextStart(ctx context.Context, minyanID string, now time.Time) (*ReminderTarget, error) {
	m, err := a.Minyanim.GetByID(ctx, minyanID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, temporal.NewNonRetryableApplicationError("minyan not found", ErrTypeMinyanGone, err, minyanID)
	}
	if err != nil {
		return nil, fmt.Errorf("get minyan %s: %w", minyanID, err)
	}
	if !m.Active {
		return nil, temporal.NewNonRetryableApplicationError("minyan inactive", ErrTypeMinyanGone, nil, minyanID)
	}

	next, err := a.Resolver.NextOccurrence(now, *m)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError("minyan cannot be scheduled", ErrTypeMinyanGone, err, minyanID)
	}
	if next == nil {
		return nil, temporal.NewNonRetryableApplicationError("minyan has no upcoming occurrence", ErrTypeMinyanGone, nil, minyanID)
	}
	return &ReminderTarget{
		MinyanID:      m.ID,
		SynagogueName: m.SynagogueName,
		PrayerType:    m.PrayerType,
		DisplayTime:   m.Time.Format12h(),
		StartsAt:      next.StartsAt,
	}, nil
}

// SendReminder pushes the "starting soon" notification to the user.
func (a *ReminderActivities) SendReminder(ctx context.Context, userID string, target ReminderTarget) error {
	title := fmt.Sprintf("%s starting soon", target.PrayerType)
	body := fmt.Sprintf("%s at %s begins at %s.", target.PrayerType, target.SynagogueName, target.DisplayTime)
	if target.SynagogueName == "" {
		body = fmt.Sprintf("%s begins at %s.", target.PrayerType, target.DisplayTime)
	}

	if a.Notifier == nil {
		logger := logging.For("reminder")
		logger.Info().
			Str("user_id", userID).
			Str("minyan_id", target.MinyanID).
			Msg("no notifier configured, reminder dropped")
		metrics.RemindersSent.WithLabelValues("dropped").Inc()
		return nil
	}
	if err := a.Notifier.SendPush(ctx, userID, title, body); err != nil {
		metrics.RemindersSent.WithLabelValues("failed").Inc()
		return fmt.Errorf("send reminder to %s: %w", userID, err)
	}
	metrics.RemindersSent.WithLabelValues("sent").Inc()
	return nil
}
