package service

import (
	"context"
	"time"

	"proposal-management-api/internal/effects"
	"proposal-management-api/internal/entity"
	"proposal-management-api/internal/logging"
	"proposal-management-api/internal/repo"
)

type Diagnostics interface {
	Ping() error
}

type Proposal interface {
	CreateProposal(ctx context.Context, input *entity.CreateProposalInput) (*entity.ProposalOutputModel, error)
	GetProposalById(ctx context.Context, proposalId string, username string) (*entity.ProposalOutputModel, error)
	GetUserProposals(ctx context.Context, username string, pg *entity.PaginationInput) ([]entity.ProposalOutputModel, error)
	GetProposalActivity(ctx context.Context, proposalId string, username string, pg *entity.PaginationInput) ([]entity.ActivityOutputModel, error)

	ReviewProposal(ctx context.Context, proposalId string, username string, approve bool, reason string) (*entity.ProposalOutputModel, error)
	EditProposal(ctx context.Context, proposalId string, username string, data []byte, serviceType string) (*entity.ProposalOutputModel, error)
	SendProposal(ctx context.Context, proposalId string, username string) (*entity.ProposalOutputModel, error)
	CancelProposal(ctx context.Context, proposalId string, username string) (*entity.ProposalOutputModel, error)

	GetPublicProposalStatus(ctx context.Context, proposalId string, presentedToken string) (string, error)
	RespondToProposal(ctx context.Context, proposalId string, presentedToken string, response string, ip string) (*entity.ProposalOutputModel, error)
}

type Contract interface {
	GetContractById(ctx context.Context, contractId string, username string) (*entity.ContractOutputModel, error)

	SubmitContractRequest(ctx context.Context, contractId string, username string, details string) (*entity.ContractOutputModel, error)
	AttachContractDocument(ctx context.Context, contractId string, username string, pdfUrl string) (*entity.ContractOutputModel, error)
	SendContractToSales(ctx context.Context, contractId string, username string) (*entity.ContractOutputModel, error)
	SendContractToClient(ctx context.Context, contractId string, username string) (*entity.ContractOutputModel, error)
	ReceiveHardbound(ctx context.Context, contractId string, username string) (*entity.ContractOutputModel, error)

	GetPublicContractStatus(ctx context.Context, contractId string, presentedToken string) (string, error)
	SignContract(ctx context.Context, contractId string, presentedToken string, signedPdfUrl string, ip string) (*entity.ContractOutputModel, error)
}

type Services struct {
	Diagnostics Diagnostics
	Proposal    Proposal
	Contract    Contract
}

// Deps bundles the collaborators every transition engine shares.
type Deps struct {
	Repos      *repo.Repositories
	Dispatcher *effects.Dispatcher
	Notifier   effects.Notifier
	Email      effects.EmailSender
	Log        logging.Logger
	Validity   time.Duration
	Now        func() time.Time
}

func NewServices(d Deps) *Services {
	if d.Now == nil {
		d.Now = time.Now
	}

	return &Services{
		Diagnostics: NewDiagnosticsService(d.Repos),
		Proposal:    NewProposalService(d),
		Contract:    NewContractService(d),
	}
}
