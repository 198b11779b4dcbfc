package pgdb

import (
	"context"

	"proposal-management-api/internal/entity"
	"proposal-management-api/pkg/postgres"

	"github.com/google/uuid"
)

type ActivityRepo struct {
	*postgres.Postgres
}

func NewActivityRepo(pgdb *postgres.Postgres) *ActivityRepo {
	return &ActivityRepo{pgdb}
}

func (r *ActivityRepo) AppendActivity(ctx context.Context, e *entity.ActivityEntry) error {
	createSql, args, _ := r.SqlBuilder.
		Insert("activity_log").
		Columns("entity_type", "entity_id", "action", "actor", "detail").
		Values(e.EntityType, e.EntityId, e.Action, e.Actor, e.Detail).
		ToSql()

	_, err := r.Database.ExecContext(ctx, createSql, args...)

	return err
}

func (r *ActivityRepo) GetActivityByEntityId(ctx context.Context, entityId uuid.UUID, pg *entity.PaginationInput) ([]entity.ActivityEntry, error) {
	listSql, args, _ := r.SqlBuilder.
		Select("id, entity_type, entity_id, action, actor, detail, created_at").
		From("activity_log").
		Where("entity_id = ?", entityId).
		OrderBy("id ASC").
		Offset(uint64(pg.Offset)).
		Limit(uint64(pg.Limit)).
		ToSql()

	rows, err := r.Database.QueryContext(ctx, listSql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]entity.ActivityEntry, 0)
	for rows.Next() {
		var e entity.ActivityEntry
		if err := rows.Scan(&e.Id, &e.EntityType, &e.EntityId, &e.Action, &e.Actor, &e.Detail, &e.CreatedAt); err != nil {
			return entries, err
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return entries, err
	}

	return entries, nil
}
