package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"

	"github.com/samirrijal/kehillah/internal/core/ports"
)

// ReminderScheduler starts reminder workflows on a Temporal cluster.
type ReminderScheduler struct {
	client    client.Client
	taskQueue string
}

// NewReminderScheduler creates a scheduler backed by a Temporal client.
func NewReminderScheduler(c client.Client, taskQueue string) *ReminderScheduler {
	return &ReminderScheduler{client: c, taskQueue: taskQueue}
}

// ReminderWorkflowID is stable per user and minyan, so a repeated request
// while a reminder is pending returns the existing run.
func ReminderWorkflowID(userID, minyanID string) string {
	return fmt.Sprintf("minyan-reminder-%s-%s", minyanID, userID)
}

// ScheduleReminder implements ports.ReminderScheduler.
func (s *ReminderScheduler) ScheduleReminder(ctx context.Context, req ports.ReminderRequest) (string, error) {
	opts := client.StartWorkflowOptions{
		ID:        ReminderWorkflowID(req.UserID, req.MinyanID),
		TaskQueue: s.taskQueue,
	}
	run, err := s.client.ExecuteWorkflow(ctx, opts, MinyanReminderWorkflow, ReminderInput{
		UserID:      req.UserID,
		MinyanID:    req.MinyanID,
		LeadMinutes: req.LeadMinutes,
	})
	if err != nil {
		return "", fmt.Errorf("start reminder workflow: %w", err)
	}
	return run.GetID(), nil
}
