package handler

import (
	"time"

	"vericred/internal/entity"
)

// EntityResponse is the wire form of a business entity.
type EntityResponse struct {
	ID           string    `json:"id"`
	Registration string    `json:"registration"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	StateCode    string    `json:"state_code"`
	Address      string    `json:"address,omitempty"`
	Suspended    bool      `json:"suspended"`
	CreatedAt    time.Time `json:"created_at"`
}

func fromEntity(e entity.Entity) EntityResponse {
	return EntityResponse{
		ID:           e.ID,
		Registration: e.Registration,
		Name:         e.Name,
		Type:         string(e.Type),
		StateCode:    e.StateCode,
		Address:      e.Address,
		Suspended:    e.Suspended,
		CreatedAt:    e.CreatedAt,
	}
}

// FilingResponse is the wire form of a compliance filing.
type FilingResponse struct {
	ID              string    `json:"id"`
	EntityID        string    `json:"entity_id"`
	ComplianceScore int       `json:"compliance_score"`
	FiledAt         time.Time `json:"filed_at"`
}

func fromFiling(f entity.Filing) FilingResponse {
	return FilingResponse{
		ID:              f.ID,
		EntityID:        f.EntityID,
		ComplianceScore: f.ComplianceScore,
		FiledAt:         f.FiledAt,
	}
}

func fromFilings(filings []entity.Filing) []FilingResponse {
	out := make([]FilingResponse, 0, len(filings))
	for _, f := range filings {
		out = append(out, fromFiling(f))
	}
	return out
}

// InvoiceResponse is the wire form of an invoice.
type InvoiceResponse struct {
	ID            string    `json:"id"`
	EntityID      string    `json:"entity_id"`
	InvoiceNumber string    `json:"invoice_number"`
	BuyerReg      string    `json:"buyer_registration"`
	IssuedAt      time.Time `json:"issued_at"`
	TotalTaxable  float64   `json:"total_taxable"`
	TotalTax      float64   `json:"total_tax"`
	GrandTotal    float64   `json:"grand_total"`
	Status        string    `json:"status"`
	DelayDays     int       `json:"delay_days"`
	CreatedAt     time.Time `json:"created_at"`
}

func fromInvoice(inv entity.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:            inv.ID,
		EntityID:      inv.EntityID,
		InvoiceNumber: inv.InvoiceNumber,
		BuyerReg:      inv.BuyerReg,
		IssuedAt:      inv.IssuedAt,
		TotalTaxable:  inv.TotalTaxable,
		TotalTax:      inv.TotalTax,
		GrandTotal:    inv.GrandTotal,
		Status:        string(inv.Status),
		DelayDays:     inv.DelayDays,
		CreatedAt:     inv.CreatedAt,
	}
}

func fromInvoices(invoices []entity.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, fromInvoice(inv))
	}
	return out
}
