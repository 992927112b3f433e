package handler

import (
	"time"

	"vericred/internal/registry"
)

// PrimaryResponse is the wire form of a primary profile.
type PrimaryResponse struct {
	ID          string    `json:"id"`
	Number      string    `json:"number"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email,omitempty"`
	Address     string    `json:"address,omitempty"`
	KYCStatus   string    `json:"kyc_status"`
	Blacklisted bool      `json:"blacklisted"`
	CreatedAt   time.Time `json:"created_at"`
}

func fromPrimary(p registry.PrimaryProfile) PrimaryResponse {
	return PrimaryResponse{
		ID:          p.ID,
		Number:      p.Number,
		Name:        p.Name,
		Phone:       p.Phone,
		Email:       p.Email,
		Address:     p.Address,
		KYCStatus:   p.KYCStatus,
		Blacklisted: p.Blacklisted,
		CreatedAt:   p.CreatedAt,
	}
}

// SecondaryResponse is the wire form of a secondary profile.
type SecondaryResponse struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	PrimaryID string    `json:"primary_id"`
	Linked    bool      `json:"linked"`
	CreatedAt time.Time `json:"created_at"`
}

func fromSecondary(sp registry.SecondaryProfile) SecondaryResponse {
	return SecondaryResponse{
		ID:        sp.ID,
		Number:    sp.Number,
		PrimaryID: sp.PrimaryID,
		Linked:    sp.Linked,
		CreatedAt: sp.CreatedAt,
	}
}
