// Package reminder polls for calendar events whose notification time has
// arrived and notifies each exactly once per marker, even across process
// restarts. It also sweeps overdue sent proposals into expired, so links
// nobody ever clicks still die on schedule.
package reminder

import (
	"context"
	"fmt"
	"time"

	"proposal-management-api/internal/effects"
	"proposal-management-api/internal/entity"
	"proposal-management-api/internal/logging"
	"proposal-management-api/internal/repo"
)

// Cadence describes one polling loop: how often to tick, how far ahead the
// reminder targets, and the window half-width. Grace must be >= Every/2 or
// an event can fall between two ticks.
type Cadence struct {
	Marker string
	Every  time.Duration
	Offset time.Duration
	Grace  time.Duration
}

type Scheduler struct {
	events     repo.Event
	proposals  repo.Proposal
	dispatcher *effects.Dispatcher
	email      effects.EmailSender
	log        logging.Logger
	now        func() time.Time

	dayAhead    Cadence
	hourAhead   Cadence
	expireEvery time.Duration
}

type Options struct {
	DayAhead    Cadence
	HourAhead   Cadence
	ExpireEvery time.Duration
	Now         func() time.Time
}

func New(events repo.Event, proposals repo.Proposal, dispatcher *effects.Dispatcher, email effects.EmailSender, log logging.Logger, opts Options) *Scheduler {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Scheduler{
		events:      events,
		proposals:   proposals,
		dispatcher:  dispatcher,
		email:       email,
		log:         log,
		now:         opts.Now,
		dayAhead:    opts.DayAhead,
		hourAhead:   opts.HourAhead,
		expireEvery: opts.ExpireEvery,
	}
}

// Run starts the three loops and blocks until ctx is cancelled. The two
// reminder cadences operate on disjoint marker columns, so overlapping ticks
// never race each other.
func (s *Scheduler) Run(ctx context.Context) {
	go s.loop(ctx, s.dayAhead.Every, func(ctx context.Context) { s.poll(ctx, s.dayAhead) })
	go s.loop(ctx, s.hourAhead.Every, func(ctx context.Context) { s.poll(ctx, s.hourAhead) })
	go s.loop(ctx, s.expireEvery, s.sweepExpired)

	<-ctx.Done()
}

func (s *Scheduler) loop(ctx context.Context, every time.Duration, tick func(ctx context.Context)) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick(ctx)
		}
	}
}

// poll selects events inside [now+offset-grace, now+offset+grace] whose
// lifecycle status is still scheduled and whose marker is null, dispatches
// the notification, and then sets the marker in a separate conditional
// write. Marking after a dispatch attempt (not after delivery) means a crash
// between the two can cost one duplicate, but the marker predicate makes
// every subsequent poll a no-op for that event.
func (s *Scheduler) poll(ctx context.Context, c Cadence) {
	now := s.now()
	from := now.Add(c.Offset - c.Grace)
	to := now.Add(c.Offset + c.Grace)

	due, err := s.events.GetDueReminderEvents(ctx, from, to, c.Marker)
	if err != nil {
		s.log.Error(ctx, "reminder poll failed", "marker", c.Marker, "error", err)
		return
	}

	for i := range due {
		event := due[i]
		if err := s.notify(ctx, event, c.Marker); err != nil {
			// One bad record must not stop the rest of the batch.
			s.log.Error(ctx, "reminder failed", "eventId", event.Id, "marker", c.Marker, "error", err)
		}
	}
}

func (s *Scheduler) notify(ctx context.Context, event entity.CalendarEvent, marker string) error {
	s.dispatcher.Dispatch(effects.Effect{
		Kind: "reminder-email",
		Run: func(ctx context.Context) error {
			subject := fmt.Sprintf("Reminder: %s", event.Title)
			body := fmt.Sprintf("Scheduled for %s", event.ScheduledDate.Format(time.RFC1123))

			return s.email.Send(ctx, event.AttendeeEmail, subject, body)
		},
	})

	return s.events.MarkReminderSent(ctx, event.Id, marker, s.now())
}

// sweepExpired pushes overdue sent proposals to expired through the same
// conditional write the lazy path uses, so the two paths cannot double-fire.
func (s *Scheduler) sweepExpired(ctx context.Context) {
	const batchSize = 100

	overdue, err := s.proposals.GetExpiredSentProposals(ctx, s.now(), batchSize)
	if err != nil {
		s.log.Error(ctx, "expiry sweep query failed", "error", err)
		return
	}

	for i := range overdue {
		p := overdue[i]
		if err := s.proposals.ExpireProposal(ctx, p.Id.String()); err != nil {
			// A lost write means a verify attempt expired it first.
			s.log.Warn(ctx, "proposal not expired by sweep", "proposalId", p.Id, "error", err)
			continue
		}
		s.log.Info(ctx, "proposal expired", "proposalId", p.Id)
	}
}
