package entity

import (
	"time"

	"github.com/google/uuid"
)

// db model
type Contract struct {
	Id              uuid.UUID  `json:"id" db:"id"`
	ProposalId      uuid.UUID  `json:"proposalId" db:"proposal_id"`
	Status          string     `json:"status" db:"status"`
	RequestedBy     string     `json:"requestedBy" db:"requested_by"`
	Details         string     `json:"details" db:"details"`
	PdfUrl          string     `json:"pdfUrl" db:"pdf_url"`
	SignedPdfUrl    string     `json:"signedPdfUrl" db:"signed_pdf_url"`
	ClientSignToken string     `json:"-" db:"client_sign_token"`
	ClientSignedAt  *time.Time `json:"clientSignedAt" db:"client_signed_at"`
	ClientSignIp    string     `json:"clientSignIp" db:"client_sign_ip"`
	SentToClientAt  *time.Time `json:"sentToClientAt" db:"sent_to_client_at"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
}

// controller model
type ContractOutputModel struct {
	Id             string `json:"id"`
	ProposalId     string `json:"proposalId"`
	Status         string `json:"status"`
	RequestedBy    string `json:"requestedBy"`
	Details        string `json:"details,omitempty"`
	PdfUrl         string `json:"pdfUrl,omitempty"`
	SignedPdfUrl   string `json:"signedPdfUrl,omitempty"`
	ClientSignedAt string `json:"clientSignedAt,omitempty"`
	SentToClientAt string `json:"sentToClientAt,omitempty"`
	CreatedAt      string `json:"createdAt"`
}
