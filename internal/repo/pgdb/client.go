package pgdb

import (
	"context"
	"database/sql"
	"errors"

	"proposal-management-api/internal/common"
	"proposal-management-api/internal/entity"
	"proposal-management-api/internal/repo/repo_errors"
	"proposal-management-api/pkg/postgres"

	"github.com/google/uuid"
)

type ClientRepo struct {
	*postgres.Postgres
}

func NewClientRepo(pgdb *postgres.Postgres) *ClientRepo {
	return &ClientRepo{pgdb}
}

func (r *ClientRepo) FindClientByEmailAndCompany(ctx context.Context, email string, company string) (*entity.Client, error) {
	getSql, args, _ := r.SqlBuilder.
		Select("id, email, company, created_at").
		From("client").
		Where("email = ?", email).
		Where("company = ?", company).
		ToSql()

	var c entity.Client
	err := r.Database.QueryRowContext(ctx, getSql, args...).Scan(&c.Id, &c.Email, &c.Company, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo_errors.ErrNotFound
		}

		return nil, err
	}

	return &c, nil
}

func (r *ClientRepo) CreateClient(ctx context.Context, email string, company string) (uuid.UUID, error) {
	createSql, args, _ := r.SqlBuilder.
		Insert("client").
		Columns("email", "company").
		Values(email, company).
		Suffix("RETURNING id").
		ToSql()

	var clientId uuid.UUID
	if err := r.Database.QueryRowContext(ctx, createSql, args...).Scan(&clientId); err != nil {
		return uuid.Nil, err
	}

	return clientId, nil
}

type InquiryRepo struct {
	*postgres.Postgres
}

func NewInquiryRepo(pgdb *postgres.Postgres) *InquiryRepo {
	return &InquiryRepo{pgdb}
}

func (r *InquiryRepo) MarkInquiryOnboarded(ctx context.Context, id uuid.UUID) error {
	builder := r.SqlBuilder.
		Update("inquiry").
		Set("status", common.InquiryOnboarded).
		Where("id = ?", id).
		Where("status = ?", common.InquiryOpen)

	return execConditional(ctx, r.Database, builder)
}

type ServiceCategoryRepo struct {
	*postgres.Postgres
}

func NewServiceCategoryRepo(pgdb *postgres.Postgres) *ServiceCategoryRepo {
	return &ServiceCategoryRepo{pgdb}
}

func (r *ServiceCategoryRepo) RequiresContract(ctx context.Context, serviceType string) (bool, error) {
	getSql, args, _ := r.SqlBuilder.
		Select("requires_contract").
		From("service_category").
		Where("name = ?", serviceType).
		ToSql()

	var requires bool
	err := r.Database.QueryRowContext(ctx, getSql, args...).Scan(&requires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, repo_errors.ErrNotFound
		}

		return false, err
	}

	return requires, nil
}
