package entity

import (
	"time"

	"github.com/google/uuid"
)

// db model
type Proposal struct {
	Id                  uuid.UUID  `json:"id" db:"id"`
	Number              int64      `json:"number" db:"number"`
	Status              string     `json:"status" db:"status"`
	RequestedBy         string     `json:"requestedBy" db:"requested_by"`
	ReviewedBy          string     `json:"reviewedBy" db:"reviewed_by"`
	ReviewedAt          *time.Time `json:"reviewedAt" db:"reviewed_at"`
	RejectionReason     string     `json:"rejectionReason" db:"rejection_reason"`
	ServiceType         string     `json:"serviceType" db:"service_type"`
	InquiryId           uuid.UUID  `json:"inquiryId" db:"inquiry_id"`
	ProposalData        []byte     `json:"-" db:"proposal_data"`
	PdfUrl              string     `json:"pdfUrl" db:"pdf_url"`
	ClientEmail         string     `json:"clientEmail" db:"client_email"`
	ClientCompany       string     `json:"clientCompany" db:"client_company"`
	ClientResponseToken string     `json:"-" db:"client_response_token"`
	ClientResponse      string     `json:"clientResponse" db:"client_response"`
	ClientResponseAt    *time.Time `json:"clientResponseAt" db:"client_response_at"`
	ClientResponseIp    string     `json:"clientResponseIp" db:"client_response_ip"`
	SentAt              *time.Time `json:"sentAt" db:"sent_at"`
	ExpiresAt           *time.Time `json:"expiresAt" db:"expires_at"`
	CreatedAt           time.Time  `json:"createdAt" db:"created_at"`
}

// service + repo input model
type CreateProposalInput struct {
	InquiryId     string // given
	ServiceType   string // given
	ProposalData  []byte // given
	ClientEmail   string // given
	ClientCompany string // given
	RequestedBy   string // given
	// Status should be set: "pending"
	// Id, Number, CreatedAt set automatically
}

// controller model
type ProposalOutputModel struct {
	Id               string          `json:"id"`
	Number           int64           `json:"number"`
	Status           string          `json:"status"`
	RequestedBy      string          `json:"requestedBy"`
	ReviewedBy       string          `json:"reviewedBy,omitempty"`
	RejectionReason  string          `json:"rejectionReason,omitempty"`
	ServiceType      string          `json:"serviceType"`
	Content          ProposalContent `json:"content"`
	PdfUrl           string          `json:"pdfUrl,omitempty"`
	ClientEmail      string          `json:"clientEmail"`
	ClientCompany    string          `json:"clientCompany"`
	ClientResponse   string          `json:"clientResponse,omitempty"`
	ClientResponseAt string          `json:"clientResponseAt,omitempty"`
	SentAt           string          `json:"sentAt,omitempty"`
	ExpiresAt        string          `json:"expiresAt,omitempty"`
	CreatedAt        string          `json:"createdAt"`
}
