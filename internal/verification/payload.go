package verification

import "strings"

// Payload is the wire form of an outcome, shared by the internal full-check
// endpoint and the external gateway. Reason is a comma-joined string carried
// only on rejection; Flags always carries the individual tags.
type Payload struct {
	VerificationComplete bool     `json:"verification_complete"`
	Verified             bool     `json:"verified"`
	CreditScore          int      `json:"credit_score"`
	RiskCategory         string   `json:"risk_category"`
	Recommendation       string   `json:"recommendation"`
	OwnerScore           int      `json:"owner_score"`
	CompanyScore         int      `json:"company_score"`
	TransactionScore     int      `json:"transaction_score"`
	Flags                []string `json:"flags"`
	Reason               string   `json:"reason,omitempty"`
}

// NewPayload converts an outcome to its wire form.
func NewPayload(o Outcome) Payload {
	p := Payload{
		VerificationComplete: true,
		Verified:             o.Verified,
		CreditScore:          o.CreditScore,
		RiskCategory:         string(o.RiskCategory),
		Recommendation:       string(o.Recommendation),
		OwnerScore:           o.OwnerScore,
		CompanyScore:         o.EntityScore,
		TransactionScore:     o.TransactionScore,
		Flags:                o.Reasons,
	}
	if p.Flags == nil {
		p.Flags = []string{}
	}
	if !o.Verified {
		p.Reason = strings.Join(o.Reasons, ", ")
	}
	return p
}
