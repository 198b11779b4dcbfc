package pgdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"proposal-management-api/internal/common"
	"proposal-management-api/internal/entity"
	"proposal-management-api/pkg/postgres"

	"github.com/google/uuid"
)

type EventRepo struct {
	*postgres.Postgres
}

func NewEventRepo(pgdb *postgres.Postgres) *EventRepo {
	return &EventRepo{pgdb}
}

// marker names come from internal/common and map 1:1 onto columns; anything
// else is rejected before it can reach the query.
func markerColumn(marker string) (string, error) {
	switch marker {
	case common.Reminder24h, common.Reminder1h:
		return marker, nil
	}

	return "", fmt.Errorf("unknown reminder marker %q", marker)
}

func (r *EventRepo) GetDueReminderEvents(ctx context.Context, from time.Time, to time.Time, marker string) ([]entity.CalendarEvent, error) {
	column, err := markerColumn(marker)
	if err != nil {
		return nil, err
	}

	listSql, args, _ := r.SqlBuilder.
		Select("id, title, scheduled_date, status, attendee_email, reminder_24h_sent_at, reminder_1h_sent_at, created_at").
		From("calendar_event").
		Where("scheduled_date >= ?", from).
		Where("scheduled_date <= ?", to).
		Where("status = ?", common.EventScheduled).
		Where(column + " IS NULL").
		OrderBy("scheduled_date ASC").
		ToSql()

	rows, err := r.Database.QueryContext(ctx, listSql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]entity.CalendarEvent, 0)
	for rows.Next() {
		var e entity.CalendarEvent
		var r24, r1 sql.NullTime
		if err := rows.Scan(&e.Id, &e.Title, &e.ScheduledDate, &e.Status, &e.AttendeeEmail, &r24, &r1, &e.CreatedAt); err != nil {
			return events, err
		}
		if r24.Valid {
			e.Reminder24hSentAt = &r24.Time
		}
		if r1.Valid {
			e.Reminder1hSentAt = &r1.Time
		}
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		return events, err
	}

	return events, nil
}

// MarkReminderSent is conditional on the marker still being null, so two
// overlapping polls cannot both claim the same event.
func (r *EventRepo) MarkReminderSent(ctx context.Context, id uuid.UUID, marker string, at time.Time) error {
	column, err := markerColumn(marker)
	if err != nil {
		return err
	}

	builder := r.SqlBuilder.
		Update("calendar_event").
		Set(column, at).
		Where("id = ?", id).
		Where(column + " IS NULL")

	return execConditional(ctx, r.Database, builder)
}
