package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/samirrijal/kehillah/internal/core/domain"
	"github.com/samirrijal/kehillah/internal/core/ports"
	"github.com/samirrijal/kehillah/internal/pkg/logging"
	"github.com/samirrijal/kehillah/internal/pkg/metrics"
)

// maxLeadMinutes bounds how early a reminder may fire.
const maxLeadMinutes = 24 * 60

// ReminderService starts "minyan starting soon" reminders.
type ReminderService struct {
	minyanim    ports.MinyanRepository
	scheduler   ports.ReminderScheduler
	defaultLead int
}

// NewReminderService creates a new ReminderService. A nil scheduler makes
// Schedule return domain.ErrUnavailable. defaultLead applies to requests
// without a lead of their own.
func NewReminderService(minyanim ports.MinyanRepository, scheduler ports.ReminderScheduler, defaultLead int) *ReminderService {
	return &ReminderService{minyanim: minyanim, scheduler: scheduler, defaultLead: defaultLead}
}

// Schedule starts a reminder for the next occurrence of a minyan and returns
// the workflow ID. A lead of zero or less uses the default.
func (s *ReminderService) Schedule(ctx context.Context, userID, minyanID string, lead int) (string, error) {
	if s.scheduler == nil {
		return "", fmt.Errorf("reminders: %w", domain.ErrUnavailable)
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", &domain.ValidationError{Field: "user_id", Reason: "required"}
	}
	if lead <= 0 {
		lead = s.defaultLead
	}
	if lead < 1 || lead > maxLeadMinutes {
		return "", &domain.ValidationError{Field: "lead_minutes", Value: fmt.Sprint(lead), Reason: "must be between 1 minute and one day"}
	}

	m, err := s.minyanim.GetByID(ctx, minyanID)
	if err != nil {
		return "", err
	}
	if !m.Active {
		return "", &domain.ValidationError{Field: "minyan_id", Value: minyanID, Reason: "minyan is not active"}
	}

	id, err := s.scheduler.ScheduleReminder(ctx, ports.ReminderRequest{
		UserID:      userID,
		MinyanID:    m.ID,
		LeadMinutes: lead,
	})
	if err != nil {
		return "", fmt.Errorf("schedule reminder: %w", err)
	}
	metrics.RemindersScheduled.Inc()
	logging.FromContext(ctx).Info().
		Str("minyan_id", m.ID).
		Str("workflow_id", id).
		Int("lead_minutes", lead).
		Msg("reminder scheduled")
	return id, nil
}
