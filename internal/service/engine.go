package service

import (
	"context"
	"errors"
	"time"

	"proposal-management-api/internal/effects"
	"proposal-management-api/internal/entity"
	"proposal-management-api/internal/logging"
	"proposal-management-api/internal/repo"
	"proposal-management-api/internal/repo/repo_errors"

	"github.com/google/uuid"
)

// engine carries what both transition engines share: the fan-out boundary
// and the effect constructors. Effects built here are advisory; the audit
// entry is the one that should eventually land, so its repo write is retried
// once inside the effect before giving up.
type engine struct {
	activityRepo repo.Activity
	dispatcher   *effects.Dispatcher
	notifier     effects.Notifier
	email        effects.EmailSender
	log          logging.Logger
	now          func() time.Time
}

func newEngine(d Deps) engine {
	return engine{
		activityRepo: d.Repos.Activity,
		dispatcher:   d.Dispatcher,
		notifier:     d.Notifier,
		email:        d.Email,
		log:          d.Log,
		now:          d.Now,
	}
}

func (e *engine) activityEffect(entityType string, entityId uuid.UUID, action string, actor string, detail string) effects.Effect {
	return effects.Effect{
		Kind: "activity",
		Run: func(ctx context.Context) error {
			entry := &entity.ActivityEntry{
				EntityType: entityType,
				EntityId:   entityId,
				Action:     action,
				Actor:      actor,
				Detail:     detail,
			}
			if err := e.activityRepo.AppendActivity(ctx, entry); err == nil {
				return nil
			}

			return e.activityRepo.AppendActivity(ctx, entry)
		},
	}
}

func (e *engine) notifyEffect(event string, payload map[string]any) effects.Effect {
	return effects.Effect{
		Kind: "notify",
		Run: func(ctx context.Context) error {
			return e.notifier.Notify(ctx, event, payload)
		},
	}
}

func (e *engine) emailEffect(to string, subject string, body string) effects.Effect {
	return effects.Effect{
		Kind: "email",
		Run: func(ctx context.Context) error {
			return e.email.Send(ctx, to, subject, body)
		},
	}
}

func isConflict(err error) bool {
	return errors.Is(err, repo_errors.ErrNoRowsAffected)
}
