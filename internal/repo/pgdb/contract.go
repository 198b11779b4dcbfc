package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"proposal-management-api/internal/common"
	"proposal-management-api/internal/entity"
	"proposal-management-api/internal/repo/repo_errors"
	"proposal-management-api/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

type ContractRepo struct {
	*postgres.Postgres
}

func NewContractRepo(pgdb *postgres.Postgres) *ContractRepo {
	return &ContractRepo{pgdb}
}

const contractColumns = "id, proposal_id, status, requested_by, details, pdf_url, signed_pdf_url, " +
	"client_sign_token, client_signed_at, client_sign_ip, sent_to_client_at, created_at"

func scanContract(row rowScanner) (*entity.Contract, error) {
	var c entity.Contract
	var details, pdfUrl, signedPdfUrl, signToken, signIp sql.NullString
	var signedAt, sentToClientAt sql.NullTime

	err := row.Scan(&c.Id, &c.ProposalId, &c.Status, &c.RequestedBy, &details, &pdfUrl,
		&signedPdfUrl, &signToken, &signedAt, &signIp, &sentToClientAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	c.Details = details.String
	c.PdfUrl = pdfUrl.String
	c.SignedPdfUrl = signedPdfUrl.String
	c.ClientSignToken = signToken.String
	c.ClientSignIp = signIp.String
	if signedAt.Valid {
		c.ClientSignedAt = &signedAt.Time
	}
	if sentToClientAt.Valid {
		c.SentToClientAt = &sentToClientAt.Time
	}

	return &c, nil
}

// CreateContract relies on the unique index on proposal_id: two concurrent
// acceptance side effects can both reach the INSERT, only one row survives.
func (r *ContractRepo) CreateContract(ctx context.Context, proposalId uuid.UUID, requestedBy string) (uuid.UUID, error) {
	createSql, args, _ := r.SqlBuilder.
		Insert("contract").
		Columns("proposal_id", "status", "requested_by").
		Values(proposalId, common.ContractPendingRequest, requestedBy).
		Suffix("ON CONFLICT (proposal_id) DO NOTHING RETURNING id").
		ToSql()

	var contractId uuid.UUID
	err := r.Database.QueryRowContext(ctx, createSql, args...).Scan(&contractId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, repo_errors.ErrNoRowsAffected
		}

		return uuid.Nil, err
	}

	return contractId, nil
}

func (r *ContractRepo) GetContractById(ctx context.Context, id string) (*entity.Contract, error) {
	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return nil, repo_errors.ErrNotFound
	}

	getSql, args, _ := r.SqlBuilder.
		Select(contractColumns).
		From("contract").
		Where("id = ?", uuidForm).
		ToSql()

	c, err := scanContract(r.Database.QueryRowContext(ctx, getSql, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo_errors.ErrNotFound
		}

		return nil, err
	}

	return c, nil
}

func (r *ContractRepo) GetContractByProposalId(ctx context.Context, proposalId uuid.UUID) (*entity.Contract, error) {
	getSql, args, _ := r.SqlBuilder.
		Select(contractColumns).
		From("contract").
		Where("proposal_id = ?", proposalId).
		ToSql()

	c, err := scanContract(r.Database.QueryRowContext(ctx, getSql, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo_errors.ErrNotFound
		}

		return nil, err
	}

	return c, nil
}

func (r *ContractRepo) SubmitContractRequest(ctx context.Context, id string, details string) error {
	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return repo_errors.ErrNotFound
	}

	builder := r.SqlBuilder.
		Update("contract").
		Set("status", common.ContractRequested).
		Set("details", details).
		Where("id = ?", uuidForm).
		Where("status = ?", common.ContractPendingRequest)

	return execConditional(ctx, r.Database, builder)
}

// Allowed from requested and from ready_for_sales itself, so a reviewer can
// replace a bad document before it moves on.
func (r *ContractRepo) AttachContractDocument(ctx context.Context, id string, pdfUrl string) error {
	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return repo_errors.ErrNotFound
	}

	builder := r.SqlBuilder.
		Update("contract").
		Set("status", common.ContractReadyForSales).
		Set("pdf_url", pdfUrl).
		Where("id = ?", uuidForm).
		Where(squirrel.Eq{"status": []string{common.ContractRequested, common.ContractReadyForSales}})

	return execConditional(ctx, r.Database, builder)
}

func (r *ContractRepo) MarkContractSentToSales(ctx context.Context, id string) error {
	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return repo_errors.ErrNotFound
	}

	builder := r.SqlBuilder.
		Update("contract").
		Set("status", common.ContractSentToSales).
		Where("id = ?", uuidForm).
		Where("status = ?", common.ContractReadyForSales).
		Where("pdf_url IS NOT NULL")

	return execConditional(ctx, r.Database, builder)
}

func (r *ContractRepo) SendContractToClient(ctx context.Context, id string, token string, at time.Time) error {
	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return repo_errors.ErrNotFound
	}

	builder := r.SqlBuilder.
		Update("contract").
		Set("status", common.ContractSentToClient).
		Set("client_sign_token", token).
		Set("sent_to_client_at", at).
		Where("id = ?", uuidForm).
		Where("status = ?", common.ContractSentToSales)

	return execConditional(ctx, r.Database, builder)
}

func (r *ContractRepo) MarkHardboundReceived(ctx context.Context, id string) error {
	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return repo_errors.ErrNotFound
	}

	builder := r.SqlBuilder.
		Update("contract").
		Set("status", common.ContractHardboundReceived).
		Where("id = ?", uuidForm).
		Where("status = ?", common.ContractSigned)

	return execConditional(ctx, r.Database, builder)
}

func (r *ContractRepo) RecordContractSigned(ctx context.Context, id string, signedPdfUrl string, at time.Time, ip string) error {
	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return repo_errors.ErrNotFound
	}

	builder := r.SqlBuilder.
		Update("contract").
		Set("status", common.ContractSigned).
		Set("signed_pdf_url", signedPdfUrl).
		Set("client_signed_at", at).
		Set("client_sign_ip", ip).
		Where("id = ?", uuidForm).
		Where("status = ?", common.ContractSentToClient).
		Where("client_signed_at IS NULL")

	return execConditional(ctx, r.Database, builder)
}
