package entity

import "encoding/json"

// Proposal payloads arrive in two shapes: legacy proposals carry pre-rendered
// HTML, newer ones a JSON object with structured fields. The shape is decided
// once, at read time, and consumers switch on Kind instead of re-sniffing.
const (
	ContentRendered   = "rendered"
	ContentStructured = "structured"
)

type ProposalContent struct {
	Kind   string            `json:"kind"`
	HTML   string            `json:"html,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

type structuredPayload struct {
	Fields map[string]string `json:"fields"`
}

// DecodeProposalContent classifies a raw payload blob into its tagged form.
// Anything that is not a structured JSON object is treated as legacy HTML.
func DecodeProposalContent(raw []byte) ProposalContent {
	if len(raw) == 0 {
		return ProposalContent{Kind: ContentRendered}
	}

	var payload structuredPayload
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Fields != nil {
		return ProposalContent{Kind: ContentStructured, Fields: payload.Fields}
	}

	return ProposalContent{Kind: ContentRendered, HTML: string(raw)}
}
