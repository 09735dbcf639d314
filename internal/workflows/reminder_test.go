package workflows

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/kehillah/internal/core/domain"
	"github.com/samirrijal/kehillah/internal/core/ports"
	"github.com/samirrijal/kehillah/internal/core/schedule"
)

const minyanID = "1e2d3c4b-5a69-4788-9a6b-5c4d3e2f1a0b"

type stubMinyanRepo struct {
	mu    sync.Mutex
	items map[string]domain.Minyan
}

func (r *stubMinyanRepo) Upsert(_ context.Context, m *domain.Minyan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[m.ID] = *m
	return nil
}

func (r *stubMinyanRepo) UpsertBatch(ctx context.Context, ms []domain.Minyan) error {
	for i := range ms {
		_ = r.Upsert(ctx, &ms[i])
	}
	return nil
}

func (r *stubMinyanRepo) GetByID(_ context.Context, id string) (*domain.Minyan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("minyan %s: %w", id, domain.ErrNotFound)
	}
	return &m, nil
}

func (r *stubMinyanRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *stubMinyanRepo) ListActive(context.Context) ([]domain.Minyan, error)              { return nil, nil }
func (r *stubMinyanRepo) ListBySynagogue(context.Context, string) ([]domain.Minyan, error) { return nil, nil }

func (r *stubMinyanRepo) update(id string, fn func(*domain.Minyan)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.items[id]
	fn(&m)
	r.items[id] = m
}

type push struct {
	UserID, Title, Body string
}

type recordingNotifier struct {
	mu     sync.Mutex
	pushes []push
	err    error
}

func (n *recordingNotifier) SendPush(_ context.Context, userID, title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.pushes = append(n.pushes, push{userID, title, body})
	return nil
}

func (n *recordingNotifier) sent() []push {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]push(nil), n.pushes...)
}

type ReminderWorkflowSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite

	env      *testsuite.TestWorkflowEnvironment
	repo     *stubMinyanRepo
	notifier *recordingNotifier
	loc      *time.Location
}

func TestReminderWorkflowSuite(t *testing.T) {
	suite.Run(t, new(ReminderWorkflowSuite))
}

func (s *ReminderWorkflowSuite) SetupTest() {
	loc, err := time.LoadLocation("America/Chicago")
	s.Require().NoError(err)
	s.loc = loc

	s.repo = &stubMinyanRepo{items: map[string]domain.Minyan{
		minyanID: {
			ID:            minyanID,
			SynagogueName: "Skokie Shul",
			PrayerType:    domain.PrayerShacharit,
			Days:          []domain.Weekday{domain.Monday},
			Time:          domain.TimeOfDay(7*60 + 45),
			Active:        true,
		},
	}}
	s.notifier = &recordingNotifier{}

	s.env = s.NewTestWorkflowEnvironment()
	// Monday 2024-03-04 07:00 in Chicago
	s.env.SetStartTime(time.Date(2024, 3, 4, 7, 0, 0, 0, loc))
	s.env.RegisterWorkflow(MinyanReminderWorkflow)
	s.env.RegisterActivity(&ReminderActivities{
		Minyanim: s.repo,
		Resolver: schedule.New(schedule.WithLocation(loc)),
		Notifier: s.notifier,
	})
}

func (s *ReminderWorkflowSuite) AfterTest(_, _ string) {
	s.env.AssertExpectations(s.T())
}

func (s *ReminderWorkflowSuite) TestFiresLeadMinutesBeforeStart() {
	s.env.ExecuteWorkflow(MinyanReminderWorkflow, ReminderInput{UserID: "u1", MinyanID: minyanID, LeadMinutes: 15})

	s.Require().True(s.env.IsWorkflowCompleted())
	s.Require().NoError(s.env.GetWorkflowError())

	pushes := s.notifier.sent()
	s.Require().Len(pushes, 1)
	s.Equal("u1", pushes[0].UserID)
	s.Equal("Shacharit starting soon", pushes[0].Title)
	s.Equal("Shacharit at Skokie Shul begins at 7:45 AM.", pushes[0].Body)

	// 07:30 is the due time; the clock has advanced at least that far.
	s.False(s.env.Now().Before(time.Date(2024, 3, 4, 7, 30, 0, 0, s.loc)))
}

func (s *ReminderWorkflowSuite) TestSendsImmediatelyWhenLeadExceedsRemainingTime() {
	s.repo.update(minyanID, func(m *domain.Minyan) { m.Time = domain.TimeOfDay(7*60 + 10) })

	s.env.ExecuteWorkflow(MinyanReminderWorkflow, ReminderInput{UserID: "u1", MinyanID: minyanID, LeadMinutes: 30})

	s.Require().NoError(s.env.GetWorkflowError())
	s.Len(s.notifier.sent(), 1)
	s.True(s.env.Now().Before(time.Date(2024, 3, 4, 7, 1, 0, 0, s.loc)))
}

func (s *ReminderWorkflowSuite) TestZeroLeadFiresAtStart() {
	s.env.ExecuteWorkflow(MinyanReminderWorkflow, ReminderInput{UserID: "u1", MinyanID: minyanID, LeadMinutes: 0})

	s.Require().True(s.env.IsWorkflowCompleted())
	s.Require().NoError(s.env.GetWorkflowError())
	s.Len(s.notifier.sent(), 1)
	s.False(s.env.Now().Before(time.Date(2024, 3, 4, 7, 45, 0, 0, s.loc)))
}

func (s *ReminderWorkflowSuite) TestUnknownMinyanEndsQuietly() {
	s.env.ExecuteWorkflow(MinyanReminderWorkflow, ReminderInput{UserID: "u1", MinyanID: "missing", LeadMinutes: 15})

	s.Require().True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
	s.Empty(s.notifier.sent())
}

func (s *ReminderWorkflowSuite) TestDeactivatedWhileWaitingSendsNothing() {
	s.env.RegisterDelayedCallback(func() {
		s.repo.update(minyanID, func(m *domain.Minyan) { m.Active = false })
	}, 10*time.Minute)

	s.env.ExecuteWorkflow(MinyanReminderWorkflow, ReminderInput{UserID: "u1", MinyanID: minyanID, LeadMinutes: 15})

	s.Require().True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
	s.Empty(s.notifier.sent())
}

func (s *ReminderWorkflowSuite) TestRescheduledWhileWaitingContinuesAsNew() {
	s.env.RegisterDelayedCallback(func() {
		s.repo.update(minyanID, func(m *domain.Minyan) { m.Time = domain.TimeOfDay(8 * 60) })
	}, 10*time.Minute)

	s.env.ExecuteWorkflow(MinyanReminderWorkflow, ReminderInput{UserID: "u1", MinyanID: minyanID, LeadMinutes: 15})

	s.Require().True(s.env.IsWorkflowCompleted())
	err := s.env.GetWorkflowError()
	s.Require().Error(err)
	var can *workflow.ContinueAsNewError
	s.ErrorAs(err, &can)
	s.Empty(s.notifier.sent())
}

func (s *ReminderWorkflowSuite) TestNotifierFailureFailsWorkflow() {
	s.notifier.err = fmt.Errorf("push gateway down")

	s.env.ExecuteWorkflow(MinyanReminderWorkflow, ReminderInput{UserID: "u1", MinyanID: minyanID, LeadMinutes: 15})

	s.Require().True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
}

func TestSendReminder_NoNotifierDrops(t *testing.T) {
	acts := &ReminderActivities{}
	err := acts.SendReminder(context.Background(), "u1", ReminderTarget{PrayerType: domain.PrayerMaariv, DisplayTime: "8:15 PM"})
	assert.NoError(t, err)
}

func TestReminderScheduler_StartsWorkflow(t *testing.T) {
	c := &mocks.Client{}
	run := &mocks.WorkflowRun{}
	wantID := ReminderWorkflowID("u1", minyanID)

	run.On("GetID").Return(wantID)
	c.On("ExecuteWorkflow",
		mock.Anything,
		mock.MatchedBy(func(o client.StartWorkflowOptions) bool {
			return o.ID == wantID && o.TaskQueue == "kehillah-reminders"
		}),
		mock.Anything,
		ReminderInput{UserID: "u1", MinyanID: minyanID, LeadMinutes: 20},
	).Return(run, nil)

	var sched ports.ReminderScheduler = NewReminderScheduler(c, "kehillah-reminders")
	id, err := sched.ScheduleReminder(context.Background(), ports.ReminderRequest{UserID: "u1", MinyanID: minyanID, LeadMinutes: 20})

	require.NoError(t, err)
	assert.Equal(t, "minyan-reminder-"+minyanID+"-u1", id)
	c.AssertExpectations(t)
}

func TestReminderScheduler_PropagatesStartError(t *testing.T) {
	c := &mocks.Client{}
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("namespace not found"))

	_, err := NewReminderScheduler(c, "q").ScheduleReminder(context.Background(), ports.ReminderRequest{UserID: "u1", MinyanID: minyanID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "namespace not found")
}
