package service

import (
	"context"
	"errors"
	"fmt"

	"proposal-management-api/internal/common"
	"proposal-management-api/internal/effects"
	"proposal-management-api/internal/entity"
	"proposal-management-api/internal/repo"
	"proposal-management-api/internal/repo/repo_errors"
	"proposal-management-api/internal/token"
)

// ContractService advances a contract through its strictly ordered lifecycle
// using the same conditional-write discipline as proposals. The sales-side
// steps are owned by whoever owns the parent proposal, document steps by
// reviewers, and the signing step by the token-gated client.
type ContractService struct {
	engine
	contractRepo repo.Contract
	proposalRepo repo.Proposal
	clientRepo   repo.Client
	employeeRepo repo.Employee
}

func NewContractService(d Deps) *ContractService {
	return &ContractService{
		engine:       newEngine(d),
		contractRepo: d.Repos.Contract,
		proposalRepo: d.Repos.Proposal,
		clientRepo:   d.Repos.Client,
		employeeRepo: d.Repos.Employee,
	}
}

func (s *ContractService) getEmployee(ctx context.Context, username string) (*entity.Employee, error) {
	e, err := s.employeeRepo.GetEmployeeByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo_errors.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}

		return nil, err
	}

	return e, nil
}

func (s *ContractService) getContract(ctx context.Context, contractId string) (*entity.Contract, error) {
	c, err := s.contractRepo.GetContractById(ctx, contractId)
	if err != nil {
		if errors.Is(err, repo_errors.ErrNotFound) {
			return nil, ErrContractNotFound
		}

		return nil, err
	}

	return c, nil
}

func (s *ContractService) GetContractById(ctx context.Context, contractId string, username string) (*entity.ContractOutputModel, error) {
	employee, err := s.getEmployee(ctx, username)
	if err != nil {
		return nil, err
	}

	c, err := s.getContract(ctx, contractId)
	if err != nil {
		return nil, err
	}
	if employee.Role != common.RoleReviewer && c.RequestedBy != username {
		return nil, ErrNotOwner
	}

	return mapContract(c), nil
}

// SubmitContractRequest: pending_request → requested, by the owner of the
// parent proposal.
func (s *ContractService) SubmitContractRequest(ctx context.Context, contractId string, username string, details string) (*entity.ContractOutputModel, error) {
	c, err := s.getContract(ctx, contractId)
	if err != nil {
		return nil, err
	}
	if c.RequestedBy != username {
		return nil, ErrNotOwner
	}

	err = s.contractRepo.SubmitContractRequest(ctx, contractId, details)
	if err != nil {
		if isConflict(err) {
			return nil, ErrWrongState
		}

		return nil, err
	}

	c, err = s.getContract(ctx, contractId)
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(
		s.activityEffect("contract", c.Id, "requested", username, ""),
		s.notifyEffect("contract.requested", map[string]any{"contractId": c.Id.String()}),
	)

	return mapContract(c), nil
}

// AttachContractDocument: requested|ready_for_sales → ready_for_sales, by a
// reviewer. The back-edge lets a bad document be replaced before it moves on.
func (s *ContractService) AttachContractDocument(ctx context.Context, contractId string, username string, pdfUrl string) (*entity.ContractOutputModel, error) {
	employee, err := s.getEmployee(ctx, username)
	if err != nil {
		return nil, err
	}
	if employee.Role != common.RoleReviewer {
		return nil, ErrNotReviewer
	}
	if pdfUrl == "" {
		return nil, ErrArtifactMissing
	}

	err = s.contractRepo.AttachContractDocument(ctx, contractId, pdfUrl)
	if err != nil {
		if !isConflict(err) {
			return nil, err
		}
		if _, err := s.getContract(ctx, contractId); err != nil {
			return nil, err
		}

		return nil, ErrWrongState
	}

	c, err := s.getContract(ctx, contractId)
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(
		s.activityEffect("contract", c.Id, "document_attached", username, pdfUrl),
	)

	return mapContract(c), nil
}

// SendContractToSales: ready_for_sales → sent_to_sales, by a reviewer. The
// conditional write also requires a document to be present, so a contract can
// never pass this point without an artifact.
func (s *ContractService) SendContractToSales(ctx context.Context, contractId string, username string) (*entity.ContractOutputModel, error) {
	employee, err := s.getEmployee(ctx, username)
	if err != nil {
		return nil, err
	}
	if employee.Role != common.RoleReviewer {
		return nil, ErrNotReviewer
	}

	err = s.contractRepo.MarkContractSentToSales(ctx, contractId)
	if err != nil {
		if !isConflict(err) {
			return nil, err
		}

		c, err := s.getContract(ctx, contractId)
		if err != nil {
			return nil, err
		}
		if c.Status == common.ContractReadyForSales && c.PdfUrl == "" {
			return nil, ErrArtifactMissing
		}

		return nil, ErrWrongState
	}

	c, err := s.getContract(ctx, contractId)
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(
		s.activityEffect("contract", c.Id, "sent_to_sales", username, ""),
		s.notifyEffect("contract.sent_to_sales", map[string]any{"contractId": c.Id.String()}),
	)

	return mapContract(c), nil
}

// SendContractToClient: sent_to_sales → sent_to_client, by the owner of the
// parent proposal. Issues the signing token and emails the link.
func (s *ContractService) SendContractToClient(ctx context.Context, contractId string, username string) (*entity.ContractOutputModel, error) {
	c, err := s.getContract(ctx, contractId)
	if err != nil {
		return nil, err
	}
	if c.RequestedBy != username {
		return nil, ErrNotOwner
	}

	tok, err := token.Issue()
	if err != nil {
		return nil, err
	}

	err = s.contractRepo.SendContractToClient(ctx, contractId, tok, s.now())
	if err != nil {
		if isConflict(err) {
			return nil, ErrWrongState
		}

		return nil, err
	}

	c, err = s.getContract(ctx, contractId)
	if err != nil {
		return nil, err
	}

	proposal, err := s.proposalRepo.GetProposalById(ctx, c.ProposalId.String())
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(
		s.activityEffect("contract", c.Id, "sent_to_client", username, ""),
		s.emailEffect(proposal.ClientEmail, "Contract ready for signature",
			fmt.Sprintf("/contracts/public/%s/status?token=%s", c.Id, tok)),
		s.notifyEffect("contract.sent_to_client", map[string]any{"contractId": c.Id.String()}),
	)

	return mapContract(c), nil
}

// ReceiveHardbound: signed → hardbound_received, by the owner, once the
// physical signed copy arrives. The last step of the lifecycle.
func (s *ContractService) ReceiveHardbound(ctx context.Context, contractId string, username string) (*entity.ContractOutputModel, error) {
	c, err := s.getContract(ctx, contractId)
	if err != nil {
		return nil, err
	}
	if c.RequestedBy != username {
		return nil, ErrNotOwner
	}

	err = s.contractRepo.MarkHardboundReceived(ctx, contractId)
	if err != nil {
		if isConflict(err) {
			return nil, ErrWrongState
		}

		return nil, err
	}

	c, err = s.getContract(ctx, contractId)
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(
		s.activityEffect("contract", c.Id, "hardbound_received", username, ""),
	)

	return mapContract(c), nil
}

func (s *ContractService) gate(c *entity.Contract, presented string) error {
	if c.ClientSignToken == "" {
		return ErrTokenNotIssued
	}
	if err := token.Verify(c.ClientSignToken, presented); err != nil {
		return ErrTokenInvalid
	}

	return nil
}

func (s *ContractService) GetPublicContractStatus(ctx context.Context, contractId string, presentedToken string) (string, error) {
	c, err := s.getContract(ctx, contractId)
	if err != nil {
		return "", err
	}
	if err := s.gate(c, presentedToken); err != nil {
		return "", err
	}

	return c.Status, nil
}

// SignContract: sent_to_client → signed, token-gated. The signed artifact is
// mandatory, and the write is conditional on no signature being recorded yet,
// so concurrent submissions of the same link yield exactly one signature.
func (s *ContractService) SignContract(ctx context.Context, contractId string, presentedToken string, signedPdfUrl string, ip string) (*entity.ContractOutputModel, error) {
	if signedPdfUrl == "" {
		return nil, ErrArtifactMissing
	}

	c, err := s.getContract(ctx, contractId)
	if err != nil {
		return nil, err
	}
	if err := s.gate(c, presentedToken); err != nil {
		return nil, err
	}
	if c.ClientSignedAt != nil {
		return nil, ErrTokenAlreadyConsumed
	}

	err = s.contractRepo.RecordContractSigned(ctx, contractId, signedPdfUrl, s.now(), ip)
	if err != nil {
		if !isConflict(err) {
			return nil, err
		}

		c, err := s.getContract(ctx, contractId)
		if err != nil {
			return nil, err
		}
		if c.ClientSignedAt != nil {
			return nil, ErrTokenAlreadyConsumed
		}

		return nil, ErrWrongState
	}

	c, err = s.getContract(ctx, contractId)
	if err != nil {
		return nil, err
	}

	proposal, err := s.proposalRepo.GetProposalById(ctx, c.ProposalId.String())
	if err != nil {
		return nil, err
	}

	captured := *proposal
	s.dispatcher.Dispatch(
		s.activityEffect("contract", c.Id, "signed", "client", ip),
		s.notifyEffect("contract.signed", map[string]any{"contractId": c.Id.String()}),
		effects.Effect{
			Kind: "client-create",
			Run: func(ctx context.Context) error {
				return s.createClientIfAbsent(ctx, captured.ClientEmail, captured.ClientCompany)
			},
		},
	)

	return mapContract(c), nil
}

// createClientIfAbsent mirrors the proposal-side dedupe; see DESIGN.md for
// the known (email, company) race.
func (s *ContractService) createClientIfAbsent(ctx context.Context, email string, company string) error {
	_, err := s.clientRepo.FindClientByEmailAndCompany(ctx, email, company)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repo_errors.ErrNotFound) {
		return err
	}

	_, err = s.clientRepo.CreateClient(ctx, email, company)

	return err
}
