package repo

import (
	"context"
	"time"

	"proposal-management-api/internal/entity"
	"proposal-management-api/internal/repo/pgdb"
	"proposal-management-api/pkg/postgres"

	"github.com/google/uuid"
)

type Diagnostics interface {
	Ping() error
}

type Employee interface {
	GetEmployeeByUsername(ctx context.Context, username string) (*entity.Employee, error)
}

// Proposal is the persistence gateway for proposals. Every status-changing
// method is a single conditional write: it succeeds only when the row still
// matches the expected prior state and returns repo_errors.ErrNoRowsAffected
// otherwise. Nothing outside this interface writes proposal status or token
// fields.
type Proposal interface {
	CreateProposal(ctx context.Context, input *entity.CreateProposalInput) (uuid.UUID, error)
	GetProposalById(ctx context.Context, id string) (*entity.Proposal, error)
	GetProposalsByRequester(ctx context.Context, username string, pg *entity.PaginationInput) ([]entity.Proposal, error)

	ReviewProposal(ctx context.Context, id string, reviewer string, newStatus string, reason string, at time.Time) error
	EditProposal(ctx context.Context, id string, data []byte, serviceType string) error
	SendProposal(ctx context.Context, id string, owner string, token string, sentAt time.Time, expiresAt time.Time) error
	RecordClientResponse(ctx context.Context, id string, response string, at time.Time, ip string) error
	CancelProposal(ctx context.Context, id string, owner string) error
	ExpireProposal(ctx context.Context, id string) error

	GetExpiredSentProposals(ctx context.Context, asOf time.Time, limit int) ([]entity.Proposal, error)
}

// Contract follows the same conditional-write discipline as Proposal.
type Contract interface {
	CreateContract(ctx context.Context, proposalId uuid.UUID, requestedBy string) (uuid.UUID, error)
	GetContractById(ctx context.Context, id string) (*entity.Contract, error)
	GetContractByProposalId(ctx context.Context, proposalId uuid.UUID) (*entity.Contract, error)

	SubmitContractRequest(ctx context.Context, id string, details string) error
	AttachContractDocument(ctx context.Context, id string, pdfUrl string) error
	MarkContractSentToSales(ctx context.Context, id string) error
	SendContractToClient(ctx context.Context, id string, token string, at time.Time) error
	RecordContractSigned(ctx context.Context, id string, signedPdfUrl string, at time.Time, ip string) error
	MarkHardboundReceived(ctx context.Context, id string) error
}

type Client interface {
	FindClientByEmailAndCompany(ctx context.Context, email string, company string) (*entity.Client, error)
	CreateClient(ctx context.Context, email string, company string) (uuid.UUID, error)
}

type Inquiry interface {
	MarkInquiryOnboarded(ctx context.Context, id uuid.UUID) error
}

type ServiceCategory interface {
	RequiresContract(ctx context.Context, serviceType string) (bool, error)
}

type Event interface {
	GetDueReminderEvents(ctx context.Context, from time.Time, to time.Time, marker string) ([]entity.CalendarEvent, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, marker string, at time.Time) error
}

type Activity interface {
	AppendActivity(ctx context.Context, e *entity.ActivityEntry) error
	GetActivityByEntityId(ctx context.Context, entityId uuid.UUID, pg *entity.PaginationInput) ([]entity.ActivityEntry, error)
}

type Repositories struct {
	Diagnostics
	Employee
	Proposal
	Contract
	Client
	Inquiry
	ServiceCategory
	Event
	Activity
}

func NewRepositories(p *postgres.Postgres) *Repositories {
	return &Repositories{
		Diagnostics:     pgdb.NewDiagnosticsRepo(p),
		Employee:        pgdb.NewEmployeeRepo(p),
		Proposal:        pgdb.NewProposalRepo(p),
		Contract:        pgdb.NewContractRepo(p),
		Client:          pgdb.NewClientRepo(p),
		Inquiry:         pgdb.NewInquiryRepo(p),
		ServiceCategory: pgdb.NewServiceCategoryRepo(p),
		Event:           pgdb.NewEventRepo(p),
		Activity:        pgdb.NewActivityRepo(p),
	}
}
