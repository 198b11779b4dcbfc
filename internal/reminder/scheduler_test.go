package reminder

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"proposal-management-api/internal/common"
	"proposal-management-api/internal/effects"
	"proposal-management-api/internal/entity"
	"proposal-management-api/internal/logging"
	"proposal-management-api/internal/repo"
	"proposal-management-api/internal/repo/repo_errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventRepo struct {
	mu     sync.Mutex
	events map[uuid.UUID]*entity.CalendarEvent
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[uuid.UUID]*entity.CalendarEvent)}
}

func (r *fakeEventRepo) add(e entity.CalendarEvent) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.Id = uuid.New()
	if e.Status == "" {
		e.Status = common.EventScheduled
	}
	r.events[e.Id] = &e

	return e.Id
}

func markerField(e *entity.CalendarEvent, marker string) **time.Time {
	if marker == common.Reminder1h {
		return &e.Reminder1hSentAt
	}

	return &e.Reminder24hSentAt
}

func (r *fakeEventRepo) GetDueReminderEvents(_ context.Context, from time.Time, to time.Time, marker string) ([]entity.CalendarEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	due := make([]entity.CalendarEvent, 0)
	for _, e := range r.events {
		if e.Status != common.EventScheduled {
			continue
		}
		if e.ScheduledDate.Before(from) || e.ScheduledDate.After(to) {
			continue
		}
		if *markerField(e, marker) != nil {
			continue
		}
		due = append(due, *e)
	}

	return due, nil
}

func (r *fakeEventRepo) MarkReminderSent(_ context.Context, id uuid.UUID, marker string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.events[id]
	if !ok {
		return repo_errors.ErrNoRowsAffected
	}
	field := markerField(e, marker)
	if *field != nil {
		return repo_errors.ErrNoRowsAffected
	}
	sentAt := at
	*field = &sentAt

	return nil
}

// fakeProposalStore implements only what the sweep touches; the embedded
// interface covers the rest.
type fakeProposalStore struct {
	repo.Proposal
	mu    sync.Mutex
	items map[uuid.UUID]*entity.Proposal
}

func newFakeProposalStore() *fakeProposalStore {
	return &fakeProposalStore{items: make(map[uuid.UUID]*entity.Proposal)}
}

func (r *fakeProposalStore) add(status string, expiresAt time.Time) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := &entity.Proposal{Id: uuid.New(), Status: status, ExpiresAt: &expiresAt}
	r.items[p.Id] = p

	return p.Id
}

func (r *fakeProposalStore) status(id uuid.UUID) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.items[id].Status
}

func (r *fakeProposalStore) GetExpiredSentProposals(_ context.Context, asOf time.Time, limit int) ([]entity.Proposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	overdue := make([]entity.Proposal, 0)
	for _, p := range r.items {
		if p.Status == common.ProposalSent && p.ExpiresAt != nil && p.ExpiresAt.Before(asOf) {
			overdue = append(overdue, *p)
		}
		if len(overdue) == limit {
			break
		}
	}

	return overdue, nil
}

func (r *fakeProposalStore) ExpireProposal(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return repo_errors.ErrNotFound
	}
	p, ok := r.items[uuidForm]
	if !ok || p.Status != common.ProposalSent {
		return repo_errors.ErrNoRowsAffected
	}
	p.Status = common.ProposalExpired

	return nil
}

type countingEmail struct {
	mu   sync.Mutex
	sent []string
}

func (s *countingEmail) Send(_ context.Context, to string, _ string, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent = append(s.sent, to)

	return nil
}

func (s *countingEmail) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sent)
}

type schedulerEnv struct {
	events     *fakeEventRepo
	proposals  *fakeProposalStore
	email      *countingEmail
	dispatcher *effects.Dispatcher
	scheduler  *Scheduler
	now        time.Time
}

func newSchedulerEnv() *schedulerEnv {
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	env := &schedulerEnv{
		events:     newFakeEventRepo(),
		proposals:  newFakeProposalStore(),
		email:      &countingEmail{},
		dispatcher: effects.NewDispatcher(log),
		now:        now,
	}
	env.scheduler = New(env.events, env.proposals, env.dispatcher, env.email, log, Options{
		DayAhead:    Cadence{Marker: common.Reminder24h, Every: time.Hour, Offset: 24 * time.Hour, Grace: 12 * time.Hour},
		HourAhead:   Cadence{Marker: common.Reminder1h, Every: 15 * time.Minute, Offset: time.Hour, Grace: 10 * time.Minute},
		ExpireEvery: time.Hour,
		Now:         func() time.Time { return env.now },
	})

	return env
}

func (env *schedulerEnv) drain(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, env.dispatcher.Wait(ctx))
}

func TestPollSendsReminderOnce(t *testing.T) {
	env := newSchedulerEnv()
	id := env.events.add(entity.CalendarEvent{
		Title:         "kickoff call",
		ScheduledDate: env.now.Add(24 * time.Hour),
		AttendeeEmail: "client@example.com",
	})

	env.scheduler.poll(context.Background(), env.scheduler.dayAhead)
	env.drain(t)
	assert.Equal(t, 1, env.email.count())
	assert.NotNil(t, env.events.events[id].Reminder24hSentAt)

	// The marker makes every later poll a no-op for this event.
	env.scheduler.poll(context.Background(), env.scheduler.dayAhead)
	env.drain(t)
	assert.Equal(t, 1, env.email.count())
}

func TestPollSkipsEventsOutsideWindow(t *testing.T) {
	env := newSchedulerEnv()
	env.events.add(entity.CalendarEvent{
		Title:         "far future",
		ScheduledDate: env.now.Add(72 * time.Hour),
		AttendeeEmail: "client@example.com",
	})
	env.events.add(entity.CalendarEvent{
		Title:         "already past",
		ScheduledDate: env.now.Add(-time.Hour),
		AttendeeEmail: "client@example.com",
	})

	env.scheduler.poll(context.Background(), env.scheduler.dayAhead)
	env.drain(t)

	assert.Equal(t, 0, env.email.count())
}

func TestPollSkipsNonScheduledEvents(t *testing.T) {
	env := newSchedulerEnv()
	env.events.add(entity.CalendarEvent{
		Title:         "cancelled call",
		ScheduledDate: env.now.Add(24 * time.Hour),
		AttendeeEmail: "client@example.com",
		Status:        common.EventCancelled,
	})
	env.events.add(entity.CalendarEvent{
		Title:         "done already",
		ScheduledDate: env.now.Add(24 * time.Hour),
		AttendeeEmail: "client@example.com",
		Status:        common.EventCompleted,
	})

	env.scheduler.poll(context.Background(), env.scheduler.dayAhead)
	env.drain(t)

	assert.Equal(t, 0, env.email.count())
}

func TestMarkersAreIndependent(t *testing.T) {
	env := newSchedulerEnv()
	sentAt := env.now.Add(-23 * time.Hour)
	id := env.events.add(entity.CalendarEvent{
		Title:             "kickoff call",
		ScheduledDate:     env.now.Add(time.Hour),
		AttendeeEmail:     "client@example.com",
		Reminder24hSentAt: &sentAt,
	})

	env.scheduler.poll(context.Background(), env.scheduler.hourAhead)
	env.drain(t)

	assert.Equal(t, 1, env.email.count())
	assert.NotNil(t, env.events.events[id].Reminder1hSentAt)
}

func TestSweepExpiresOverdueProposals(t *testing.T) {
	env := newSchedulerEnv()
	overdue := env.proposals.add(common.ProposalSent, env.now.Add(-time.Hour))
	current := env.proposals.add(common.ProposalSent, env.now.Add(time.Hour))
	answered := env.proposals.add(common.ProposalAccepted, env.now.Add(-time.Hour))

	env.scheduler.sweepExpired(context.Background())

	assert.Equal(t, common.ProposalExpired, env.proposals.status(overdue))
	assert.Equal(t, common.ProposalSent, env.proposals.status(current))
	assert.Equal(t, common.ProposalAccepted, env.proposals.status(answered))

	// Idempotent: a second sweep finds nothing left to flip.
	env.scheduler.sweepExpired(context.Background())
	assert.Equal(t, common.ProposalExpired, env.proposals.status(overdue))
}

func TestRunStopsOnCancel(t *testing.T) {
	env := newSchedulerEnv()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		env.scheduler.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	env.drain(t)
}
