package service

import (
	"time"

	"proposal-management-api/internal/entity"
)

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}

	return t.Format(time.RFC3339)
}

func mapProposal(p *entity.Proposal) *entity.ProposalOutputModel {
	return &entity.ProposalOutputModel{
		Id:               p.Id.String(),
		Number:           p.Number,
		Status:           p.Status,
		RequestedBy:      p.RequestedBy,
		ReviewedBy:       p.ReviewedBy,
		RejectionReason:  p.RejectionReason,
		ServiceType:      p.ServiceType,
		Content:          entity.DecodeProposalContent(p.ProposalData),
		PdfUrl:           p.PdfUrl,
		ClientEmail:      p.ClientEmail,
		ClientCompany:    p.ClientCompany,
		ClientResponse:   p.ClientResponse,
		ClientResponseAt: formatTime(p.ClientResponseAt),
		SentAt:           formatTime(p.SentAt),
		ExpiresAt:        formatTime(p.ExpiresAt),
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
	}
}

func mapProposals(proposals []entity.Proposal) []entity.ProposalOutputModel {
	s := make([]entity.ProposalOutputModel, 0)
	for i := range proposals {
		s = append(s, *mapProposal(&proposals[i]))
	}

	return s
}

func mapContract(c *entity.Contract) *entity.ContractOutputModel {
	return &entity.ContractOutputModel{
		Id:             c.Id.String(),
		ProposalId:     c.ProposalId.String(),
		Status:         c.Status,
		RequestedBy:    c.RequestedBy,
		Details:        c.Details,
		PdfUrl:         c.PdfUrl,
		SignedPdfUrl:   c.SignedPdfUrl,
		ClientSignedAt: formatTime(c.ClientSignedAt),
		SentToClientAt: formatTime(c.SentToClientAt),
		CreatedAt:      c.CreatedAt.Format(time.RFC3339),
	}
}

func mapActivity(entries []entity.ActivityEntry) []entity.ActivityOutputModel {
	s := make([]entity.ActivityOutputModel, 0)
	for _, e := range entries {
		s = append(s, entity.ActivityOutputModel{
			Action:    e.Action,
			Actor:     e.Actor,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}

	return s
}
