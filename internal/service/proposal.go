package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"proposal-management-api/internal/common"
	"proposal-management-api/internal/effects"
	"proposal-management-api/internal/entity"
	"proposal-management-api/internal/repo"
	"proposal-management-api/internal/repo/repo_errors"
	"proposal-management-api/internal/token"
)

// ProposalService is the single authority for moving a proposal between
// statuses. Every transition goes through one conditional write in the repo;
// when two callers race on the same proposal, exactly one wins and the other
// gets a typed conflict after a re-read. Conflicts are never retried here.
type ProposalService struct {
	engine
	proposalRepo repo.Proposal
	contractRepo repo.Contract
	clientRepo   repo.Client
	inquiryRepo  repo.Inquiry
	employeeRepo repo.Employee
	categoryRepo repo.ServiceCategory
	validity     time.Duration
}

func NewProposalService(d Deps) *ProposalService {
	return &ProposalService{
		engine:       newEngine(d),
		proposalRepo: d.Repos.Proposal,
		contractRepo: d.Repos.Contract,
		clientRepo:   d.Repos.Client,
		inquiryRepo:  d.Repos.Inquiry,
		employeeRepo: d.Repos.Employee,
		categoryRepo: d.Repos.ServiceCategory,
		validity:     d.Validity,
	}
}

func (s *ProposalService) getEmployee(ctx context.Context, username string) (*entity.Employee, error) {
	e, err := s.employeeRepo.GetEmployeeByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo_errors.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}

		return nil, err
	}

	return e, nil
}

func (s *ProposalService) getProposal(ctx context.Context, proposalId string) (*entity.Proposal, error) {
	p, err := s.proposalRepo.GetProposalById(ctx, proposalId)
	if err != nil {
		if errors.Is(err, repo_errors.ErrNotFound) {
			return nil, ErrProposalNotFound
		}

		return nil, err
	}

	return p, nil
}

func (s *ProposalService) CreateProposal(ctx context.Context, input *entity.CreateProposalInput) (*entity.ProposalOutputModel, error) {
	employee, err := s.getEmployee(ctx, input.RequestedBy)
	if err != nil {
		return nil, err
	}
	if employee.Role != common.RoleSales {
		return nil, ErrNotOwner
	}

	id, err := s.proposalRepo.CreateProposal(ctx, input)
	if err != nil {
		return nil, err
	}

	p, err := s.getProposal(ctx, id.String())
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(
		s.activityEffect("proposal", p.Id, "created", input.RequestedBy, ""),
	)

	return mapProposal(p), nil
}

func (s *ProposalService) GetProposalById(ctx context.Context, proposalId string, username string) (*entity.ProposalOutputModel, error) {
	employee, err := s.getEmployee(ctx, username)
	if err != nil {
		return nil, err
	}

	p, err := s.getProposal(ctx, proposalId)
	if err != nil {
		return nil, err
	}

	if employee.Role != common.RoleReviewer && p.RequestedBy != username {
		return nil, ErrNotOwner
	}

	return mapProposal(p), nil
}

func (s *ProposalService) GetUserProposals(ctx context.Context, username string, pg *entity.PaginationInput) ([]entity.ProposalOutputModel, error) {
	if _, err := s.getEmployee(ctx, username); err != nil {
		return nil, err
	}

	proposals, err := s.proposalRepo.GetProposalsByRequester(ctx, username, pg)
	if err != nil {
		return nil, err
	}

	return mapProposals(proposals), nil
}

func (s *ProposalService) GetProposalActivity(ctx context.Context, proposalId string, username string, pg *entity.PaginationInput) ([]entity.ActivityOutputModel, error) {
	employee, err := s.getEmployee(ctx, username)
	if err != nil {
		return nil, err
	}

	p, err := s.getProposal(ctx, proposalId)
	if err != nil {
		return nil, err
	}
	if employee.Role != common.RoleReviewer && p.RequestedBy != username {
		return nil, ErrNotOwner
	}

	entries, err := s.activityRepo.GetActivityByEntityId(ctx, p.Id, pg)
	if err != nil {
		return nil, err
	}

	return mapActivity(entries), nil
}

// ReviewProposal applies a reviewer's approve/disapprove decision. The write
// is conditional on status=pending, so two reviewers deciding at once produce
// exactly one decision; the loser sees ErrAlreadyReviewed.
func (s *ProposalService) ReviewProposal(ctx context.Context, proposalId string, username string, approve bool, reason string) (*entity.ProposalOutputModel, error) {
	employee, err := s.getEmployee(ctx, username)
	if err != nil {
		return nil, err
	}
	if employee.Role != common.RoleReviewer {
		return nil, ErrNotReviewer
	}

	newStatus := common.ProposalApproved
	if !approve {
		newStatus = common.ProposalDisapproved
	}

	err = s.proposalRepo.ReviewProposal(ctx, proposalId, username, newStatus, reason, s.now())
	if err != nil {
		if !isConflict(err) {
			return nil, err
		}

		p, err := s.getProposal(ctx, proposalId)
		if err != nil {
			return nil, err
		}
		if p.Status == common.ProposalApproved || p.Status == common.ProposalDisapproved {
			return nil, ErrAlreadyReviewed
		}

		return nil, ErrWrongState
	}

	p, err := s.getProposal(ctx, proposalId)
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(
		s.activityEffect("proposal", p.Id, newStatus, username, reason),
		s.notifyEffect("proposal.reviewed", map[string]any{"proposalId": p.Id.String(), "status": p.Status}),
	)

	return mapProposal(p), nil
}

// EditProposal replaces the payload while the proposal is still editable.
// Content is immutable once sent; the conditional write only matches pending
// and disapproved rows, and editing a disapproved proposal clears the review
// fields in the same statement.
func (s *ProposalService) EditProposal(ctx context.Context, proposalId string, username string, data []byte, serviceType string) (*entity.ProposalOutputModel, error) {
	p, err := s.getProposal(ctx, proposalId)
	if err != nil {
		return nil, err
	}
	if p.RequestedBy != username {
		return nil, ErrNotOwner
	}
	if serviceType == "" {
		serviceType = p.ServiceType
	}

	err = s.proposalRepo.EditProposal(ctx, proposalId, data, serviceType)
	if err != nil {
		if isConflict(err) {
			return nil, ErrWrongState
		}

		return nil, err
	}

	p, err = s.getProposal(ctx, proposalId)
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(
		s.activityEffect("proposal", p.Id, "edited", username, ""),
	)

	return mapProposal(p), nil
}

// SendProposal moves approved→sent, issuing the client response token and
// stamping the expiry window. Only the requesting sales actor may send, and
// the ownership predicate rides inside the same conditional write.
func (s *ProposalService) SendProposal(ctx context.Context, proposalId string, username string) (*entity.ProposalOutputModel, error) {
	p, err := s.getProposal(ctx, proposalId)
	if err != nil {
		return nil, err
	}
	if p.RequestedBy != username {
		return nil, ErrNotOwner
	}

	tok, err := token.Issue()
	if err != nil {
		return nil, err
	}

	sentAt := s.now()
	expiresAt := sentAt.Add(s.validity)

	err = s.proposalRepo.SendProposal(ctx, proposalId, username, tok, sentAt, expiresAt)
	if err != nil {
		if isConflict(err) {
			return nil, ErrWrongState
		}

		return nil, err
	}

	p, err = s.getProposal(ctx, proposalId)
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(
		s.activityEffect("proposal", p.Id, "sent", username, ""),
		s.emailEffect(p.ClientEmail, fmt.Sprintf("Proposal #%d", p.Number),
			fmt.Sprintf("/proposals/public/%s/status?token=%s", p.Id, tok)),
		s.notifyEffect("proposal.sent", map[string]any{"proposalId": p.Id.String()}),
	)

	return mapProposal(p), nil
}

func (s *ProposalService) CancelProposal(ctx context.Context, proposalId string, username string) (*entity.ProposalOutputModel, error) {
	p, err := s.getProposal(ctx, proposalId)
	if err != nil {
		return nil, err
	}
	if p.RequestedBy != username {
		return nil, ErrNotOwner
	}

	err = s.proposalRepo.CancelProposal(ctx, proposalId, username)
	if err != nil {
		if isConflict(err) {
			return nil, ErrWrongState
		}

		return nil, err
	}

	p, err = s.getProposal(ctx, proposalId)
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(
		s.activityEffect("proposal", p.Id, "cancelled", username, ""),
	)

	return mapProposal(p), nil
}

// gate authorizes an anonymous caller by token possession. The four failure
// kinds stay distinct so the client sees "no link", "bad link", "expired"
// and "already answered" as different terminal messages.
func (s *ProposalService) gate(ctx context.Context, p *entity.Proposal, presented string) error {
	if p.ClientResponseToken == "" {
		return ErrTokenNotIssued
	}
	if p.Status == common.ProposalExpired {
		return ErrTokenExpired
	}
	if p.Status == common.ProposalSent && p.ExpiresAt != nil && s.now().After(*p.ExpiresAt) {
		// Lazy flip. Losing this write means someone else expired it first,
		// which is the same outcome.
		if err := s.proposalRepo.ExpireProposal(ctx, p.Id.String()); err != nil && !isConflict(err) {
			return err
		}

		return ErrTokenExpired
	}
	if err := token.Verify(p.ClientResponseToken, presented); err != nil {
		return ErrTokenInvalid
	}

	return nil
}

func (s *ProposalService) GetPublicProposalStatus(ctx context.Context, proposalId string, presentedToken string) (string, error) {
	p, err := s.getProposal(ctx, proposalId)
	if err != nil {
		return "", err
	}

	if err := s.gate(ctx, p, presentedToken); err != nil {
		return "", err
	}

	return p.Status, nil
}

// RespondToProposal records the client's accept/reject. The conditional
// write matches status=sent with no prior response, so N simultaneous clicks
// with the same valid token produce exactly one recorded response and one
// downstream side effect.
func (s *ProposalService) RespondToProposal(ctx context.Context, proposalId string, presentedToken string, response string, ip string) (*entity.ProposalOutputModel, error) {
	if response != common.ResponseAccepted && response != common.ResponseRejected {
		return nil, ErrInvalidResponse
	}

	p, err := s.getProposal(ctx, proposalId)
	if err != nil {
		return nil, err
	}
	if err := s.gate(ctx, p, presentedToken); err != nil {
		return nil, err
	}
	if p.ClientResponse != "" {
		return nil, ErrTokenAlreadyConsumed
	}

	err = s.proposalRepo.RecordClientResponse(ctx, proposalId, response, s.now(), ip)
	if err != nil {
		if !isConflict(err) {
			return nil, err
		}

		p, err := s.getProposal(ctx, proposalId)
		if err != nil {
			return nil, err
		}
		if p.ClientResponse != "" {
			return nil, ErrTokenAlreadyConsumed
		}

		return nil, ErrWrongState
	}

	p, err = s.getProposal(ctx, proposalId)
	if err != nil {
		return nil, err
	}

	pending := []effects.Effect{
		s.activityEffect("proposal", p.Id, "client_"+response, "client", ip),
		s.notifyEffect("proposal."+response, map[string]any{"proposalId": p.Id.String()}),
	}
	if response == common.ResponseAccepted {
		// The branch is decided here, synchronously; the creation itself runs
		// in the background so a slow downstream write never delays the
		// client-facing response.
		requiresContract, err := s.categoryRepo.RequiresContract(ctx, p.ServiceType)
		switch {
		case err == nil || errors.Is(err, repo_errors.ErrNotFound):
			// An unknown category onboards directly, like one that needs no
			// contract.
			if requiresContract {
				pending = append(pending, s.contractCreationEffect(*p))
			} else {
				pending = append(pending, s.clientOnboardingEffect(*p))
			}
		default:
			// A failed lookup must not pick a branch: onboarding a client
			// whose category needed a contract cannot be undone. The recorded
			// response stays in the activity log for reconciliation.
			s.log.Error(ctx, "service category lookup failed, acceptance follow-up skipped",
				"proposalId", p.Id, "serviceType", p.ServiceType, "error", err)
		}
	}

	s.dispatcher.Dispatch(pending...)

	return mapProposal(p), nil
}

func (s *ProposalService) contractCreationEffect(p entity.Proposal) effects.Effect {
	return effects.Effect{
		Kind: "contract-create",
		Run: func(ctx context.Context) error {
			_, err := s.contractRepo.CreateContract(ctx, p.Id, p.RequestedBy)
			if err != nil {
				// A lost insert means the contract already exists, which is
				// exactly the at-most-once outcome we want.
				if isConflict(err) {
					return nil
				}

				return err
			}

			return s.activityRepo.AppendActivity(ctx, &entity.ActivityEntry{
				EntityType: "proposal",
				EntityId:   p.Id,
				Action:     "contract_created",
				Actor:      "system",
			})
		},
	}
}

func (s *ProposalService) clientOnboardingEffect(p entity.Proposal) effects.Effect {
	return effects.Effect{
		Kind: "client-onboard",
		Run: func(ctx context.Context) error {
			if err := s.createClientIfAbsent(ctx, p.ClientEmail, p.ClientCompany); err != nil {
				return err
			}

			err := s.inquiryRepo.MarkInquiryOnboarded(ctx, p.InquiryId)
			if err != nil && !isConflict(err) {
				return err
			}

			return nil
		},
	}
}

// createClientIfAbsent dedupes on (email, company) with a select-then-insert,
// matching the upstream behaviour. Two acceptances for the same client
// completing concurrently can still both insert; see DESIGN.md.
func (s *ProposalService) createClientIfAbsent(ctx context.Context, email string, company string) error {
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
