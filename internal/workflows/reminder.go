package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// ReminderInput is the input for the reminder workflow.
type ReminderInput struct {
	UserID      string
	MinyanID    string
	LeadMinutes int
}

// MinyanReminderWorkflow waits until LeadMinutes before the minyan's next
// start and notifies the user. The minyan is looked up again after the timer;
// if it was removed or deactivated meanwhile no notification is sent.
func MinyanReminderWorkflow(ctx workflow.Context, input ReminderInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting reminder workflow", "minyanID", input.MinyanID, "leadMinutes", input.LeadMinutes)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Resolve the next start
	var target ReminderTarget
	err := workflow.ExecuteActivity(ctx, "ResolveNextStart", input.MinyanID, workflow.Now(ctx)).Get(ctx, &target)
	if err != nil {
		return skipIfGone(ctx, err)
	}

	// Step 2: Sleep until the reminder is due
	fireAt := target.StartsAt.Add(-time.Duration(input.LeadMinutes) * time.Minute)
	if wait := fireAt.Sub(workflow.Now(ctx)); wait > 0 {
		if err := workflow.Sleep(ctx, wait); err != nil {
			return err
		}

		// Resolve from just before the expected start so a timer that fires
		// on the start minute still finds this week's occurrence.
		resolveAt := workflow.Now(ctx)
		if latest := target.StartsAt.Add(-time.Minute); resolveAt.After(latest) {
			resolveAt = latest
		}
		var current ReminderTarget
		err = workflow.ExecuteActivity(ctx, "ResolveNextStart", input.MinyanID, resolveAt).Get(ctx, &current)
		if err != nil {
			return skipIfGone(ctx, err)
		}
		if !current.StartsAt.Equal(target.StartsAt) {
			logger.Info("Minyan rescheduled, reminder follows new time", "startsAt", current.StartsAt)
			return workflow.NewContinueAsNewError(ctx, MinyanReminderWorkflow, input)
		}
		target = current
	}

	// Step 3: Notify
	err = workflow.ExecuteActivity(ctx, "SendReminder", input.UserID, target).Get(ctx, nil)
	if err != nil {
		logger.Warn("reminder notification failed", "error", err)
		return err
	}

	logger.Info("Reminder sent", "startsAt", target.StartsAt)
	return nil
}

// skipIfGone ends the workflow quietly when the minyan no longer exists.
func skipIfGone(ctx workflow.Context, err error) error {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.Type() == ErrTypeMinyanGone {
		workflow.GetLogger(ctx).Info("Minyan gone, reminder cancelled", "reason", appErr.Error())
		return nil
	}
	return err
}
