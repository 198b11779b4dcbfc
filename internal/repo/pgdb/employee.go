package pgdb

import (
	"context"
	"database/sql"
	"errors"

	"proposal-management-api/internal/entity"
	"proposal-management-api/internal/repo/repo_errors"
	"proposal-management-api/pkg/postgres"
)

type EmployeeRepo struct {
	*postgres.Postgres
}

func NewEmployeeRepo(pgdb *postgres.Postgres) *EmployeeRepo {
	return &EmployeeRepo{pgdb}
}

func (r *EmployeeRepo) GetEmployeeByUsername(ctx context.Context, username string) (*entity.Employee, error) {
	getSql, args, _ := r.SqlBuilder.
		Select("id, username, role").
		From("employee").
		Where("username = ?", username).
		ToSql()

	var e entity.Employee
	err := r.Database.QueryRowContext(ctx, getSql, args...).Scan(&e.Id, &e.Username, &e.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo_errors.ErrNotFound
		}

		return nil, err
	}

	return &e, nil
}
