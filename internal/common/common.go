package common

// Proposal statuses.
const (
	ProposalPending     = "pending"
	ProposalApproved    = "approved"
	ProposalDisapproved = "disapproved"
	ProposalSent        = "sent"
	ProposalAccepted    = "accepted"
	ProposalRejected    = "rejected"
	ProposalCancelled   = "cancelled"
	ProposalExpired     = "expired"
)

// Contract statuses, strictly ordered except for the ready_for_sales
// re-upload back-edge.
const (
	ContractPendingRequest    = "pending_request"
	ContractRequested         = "requested"
	ContractReadyForSales     = "ready_for_sales"
	ContractSentToSales       = "sent_to_sales"
	ContractSentToClient      = "sent_to_client"
	ContractSigned            = "signed"
	ContractHardboundReceived = "hardbound_received"
)

// Client responses recorded on a sent proposal.
const (
	ResponseAccepted = "accepted"
	ResponseRejected = "rejected"
)

// Calendar event statuses.
const (
	EventScheduled = "scheduled"
	EventCompleted = "completed"
	EventCancelled = "cancelled"
)

// Reminder markers, named after their columns on calendar_event.
const (
	Reminder24h = "reminder_24h_sent_at"
	Reminder1h  = "reminder_1h_sent_at"
)

// Employee roles.
const (
	RoleSales    = "sales"
	RoleReviewer = "reviewer"
)

// Inquiry statuses.
const (
	InquiryOpen      = "open"
	InquiryOnboarded = "onboarded"
)
