package entity

import (
	"time"

	"github.com/google/uuid"
)

// CalendarEvent is the reminderable entity the scheduler polls. The two
// sent markers are set once and never cleared, which is what keeps the
// scheduler's selection predicate idempotent across restarts.
type CalendarEvent struct {
	Id                uuid.UUID  `json:"id" db:"id"`
	Title             string     `json:"title" db:"title"`
	ScheduledDate     time.Time  `json:"scheduledDate" db:"scheduled_date"`
	Status            string     `json:"status" db:"status"`
	AttendeeEmail     string     `json:"attendeeEmail" db:"attendee_email"`
	Reminder24hSentAt *time.Time `json:"reminder24hSentAt" db:"reminder_24h_sent_at"`
	Reminder1hSentAt  *time.Time `json:"reminder1hSentAt" db:"reminder_1h_sent_at"`
	CreatedAt         time.Time  `json:"createdAt" db:"created_at"`
}
