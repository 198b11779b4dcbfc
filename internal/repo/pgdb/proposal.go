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

type ProposalRepo struct {
	*postgres.Postgres
}

func NewProposalRepo(pgdb *postgres.Postgres) *ProposalRepo {
	return &ProposalRepo{pgdb}
}

const proposalColumns = "id, number, status, requested_by, reviewed_by, reviewed_at, rejection_reason, " +
	"service_type, inquiry_id, proposal_data, pdf_url, client_email, client_company, " +
	"client_response_token, client_response, client_response_at, client_response_ip, " +
	"sent_at, expires_at, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProposal(row rowScanner) (*entity.Proposal, error) {
	var p entity.Proposal
	var reviewedBy, rejectionReason, pdfUrl sql.NullString
	var responseToken, response, responseIp sql.NullString
	var reviewedAt, responseAt, sentAt, expiresAt sql.NullTime

	err := row.Scan(&p.Id, &p.Number, &p.Status, &p.RequestedBy, &reviewedBy, &reviewedAt,
		&rejectionReason, &p.ServiceType, &p.InquiryId, &p.ProposalData, &pdfUrl,
		&p.ClientEmail, &p.ClientCompany, &responseToken, &response, &responseAt,
		&responseIp, &sentAt, &expiresAt, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	p.ReviewedBy = reviewedBy.String
	p.RejectionReason = rejectionReason.String
	p.PdfUrl = pdfUrl.String
	p.ClientResponseToken = responseToken.String
	p.ClientResponse = response.String
	p.ClientResponseIp = responseIp.String
	if reviewedAt.Valid {
		p.ReviewedAt = &reviewedAt.Time
	}
	if responseAt.Valid {
		p.ClientResponseAt = &responseAt.Time
	}
	if sentAt.Valid {
		p.SentAt = &sentAt.Time
	}
	if expiresAt.Valid {
		p.ExpiresAt = &expiresAt.Time
	}

	return &p, nil
}

func (r *ProposalRepo) CreateProposal(ctx context.Context, input *entity.CreateProposalInput) (uuid.UUID, error) {
	inquiryId, err := uuid.Parse(input.InquiryId)
	if err != nil {
		return uuid.Nil, err
	}

	createSql, args, _ := r.SqlBuilder.
		Insert("proposal").
		Columns("status", "requested_by", "service_type", "inquiry_id", "proposal_data", "client_email", "client_company").
		Values(common.ProposalPending, input.RequestedBy, input.ServiceType, inquiryId, input.ProposalData, input.ClientEmail, input.ClientCompany).
		Suffix("RETURNING id").
		ToSql()

	var proposalId uuid.UUID
	if err := r.Database.QueryRowContext(ctx, createSql, args...).Scan(&proposalId); err != nil {
		return uuid.Nil, err
	}

	return proposalId, nil
}

func (r *ProposalRepo) GetProposalById(ctx context.Context, id string) (*entity.Proposal, error) {
	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return nil, repo_errors.ErrNotFound
	}

	getSql, args, _ := r.SqlBuilder.
		Select(proposalColumns).
		From("proposal").
		Where("id = ?", uuidForm).
		ToSql()

	p, err := scanProposal(r.Database.QueryRowContext(ctx, getSql, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo_errors.ErrNotFound
		}

		return nil, err
	}

	return p, nil
}

func (r *ProposalRepo) GetProposalsByRequester(ctx context.Context, username string, pg *entity.PaginationInput) ([]entity.Proposal, error) {
	listSql, args, _ := r.SqlBuilder.
		Select(proposalColumns).
		From("proposal").
		Where("requested_by = ?", username).
		OrderBy("number DESC").
		Offset(uint64(pg.Offset)).
		Limit(uint64(pg.Limit)).
		ToSql()

	rows, err := r.Database.QueryContext(ctx, listSql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	proposals := make([]entity.Proposal, 0)
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return proposals, err
		}
		proposals = append(proposals, *p)
	}
	if err = rows.Err(); err != nil {
		return proposals, err
	}

	return proposals, nil
}

func (r *ProposalRepo) ReviewProposal(ctx context.Context, id string, reviewer string, newStatus string, reason string, at time.Time) error {
	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return repo_errors.ErrNotFound
	}

	builder := r.SqlBuilder.
		Update("proposal").
		Set("status", newStatus).
		Set("reviewed_by", reviewer).
		Set("reviewed_at", at).
		Set("rejection_reason", nullIfEmpty(reason)).
		Where("id = ?", uuidForm).
		Where("status = ?", common.ProposalPending)

	return execConditional(ctx, r.Database, builder)
}

// Editing a disapproved proposal clears the review fields in the same write,
// so a concurrent approve can never leave a half-reviewed row behind.
func (r *ProposalRepo) EditProposal(ctx context.Context, id string, data []byte, serviceType string) error {
	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return repo_errors.ErrNotFound
	}

	builder := r.SqlBuilder.
		Update("proposal").
		Set("status", common.ProposalPending).
		Set("proposal_data", data).
		Set("service_type", serviceType).
		Set("reviewed_by", nil).
		Set("reviewed_at", nil).
		Set("rejection_reason", nil).
		Where("id = ?", uuidForm).
		Where(squirrel.Eq{"status": []string{common.ProposalPending, common.ProposalDisapproved}})

	return execConditional(ctx, r.Database, builder)
}

func (r *ProposalRepo) SendProposal(ctx context.Context, id string, owner string, token string, sentAt time.Time, expiresAt time.Time) error {
	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return repo_errors.ErrNotFound
	}

	builder := r.SqlBuilder.
		Update("proposal").
		Set("status", common.ProposalSent).
		Set("client_response_token", token).
		Set("sent_at", sentAt).
		Set("expires_at", expiresAt).
		Where("id = ?", uuidForm).
		Where("status = ?", common.ProposalApproved).
		Where("requested_by = ?", owner)

	return execConditional(ctx, r.Database, builder)
}

func (r *ProposalRepo) RecordClientResponse(ctx context.Context, id string, response string, at time.Time, ip string) error {
	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return repo_errors.ErrNotFound
	}

	newStatus := common.ProposalAccepted
	if response == common.ResponseRejected {
		newStatus = common.ProposalRejected
	}

	builder := r.SqlBuilder.
		Update("proposal").
		Set("status", newStatus).
		Set("client_response", response).
		Set("client_response_at", at).
		Set("client_response_ip", ip).
		Where("id = ?", uuidForm).
		Where("status = ?", common.ProposalSent).
		Where("client_response IS NULL")

	return execConditional(ctx, r.Database, builder)
}

func (r *ProposalRepo) CancelProposal(ctx context.Context, id string, owner string) error {
	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return repo_errors.ErrNotFound
	}

	builder := r.SqlBuilder.
		Update("proposal").
		Set("status", common.ProposalCancelled).
		Where("id = ?", uuidForm).
		Where("status = ?", common.ProposalPending).
		Where("requested_by = ?", owner)

	return execConditional(ctx, r.Database, builder)
}

func (r *ProposalRepo) ExpireProposal(ctx context.Context, id string) error {
	uuidForm, err := uuid.Parse(id)
	if err != nil {
		return repo_errors.ErrNotFound
	}

	builder := r.SqlBuilder.
		Update("proposal").
		Set("status", common.ProposalExpired).
		Where("id = ?", uuidForm).
		Where("status = ?", common.ProposalSent)

	return execConditional(ctx, r.Database, builder)
}

func (r *ProposalRepo) GetExpiredSentProposals(ctx context.Context, asOf time.Time, limit int) ([]entity.Proposal, error) {
	listSql, args, _ := r.SqlBuilder.
		Select(proposalColumns).
		From("proposal").
		Where("status = ?", common.ProposalSent).
		Where("expires_at < ?", asOf).
		OrderBy("expires_at ASC").
		Limit(uint64(limit)).
		ToSql()

	rows, err := r.Database.QueryContext(ctx, listSql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	proposals := make([]entity.Proposal, 0)
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return proposals, err
		}
		proposals = append(proposals, *p)
	}
	if err = rows.Err(); err != nil {
		return proposals, err
	}

	return proposals, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}

	return s
}
