package model

import (
	"time"
)

const (
	PremiumStatusPending  = "Pending"
	PremiumStatusVerified = "Verified"
	PremiumStatusRejected = "Rejected"
)

const (
	PremiumMethodCard   = "card"
	PremiumMethodCrypto = "crypto"
)

const (
	ProviderPolar  = "polar"
	ProviderStripe = "stripe"
)

// PremiumRequest is a payment claim awaiting verification.
type PremiumRequest struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"userId"`
	Method         string    `db:"method" json:"method"`
	TransactionRef *string   `db:"transaction_ref" json:"transactionRef"`
	ProviderRef    *string   `db:"provider_ref" json:"-"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

func (p *PremiumRequest) IsPending() bool {
	return p.Status == PremiumStatusPending
}

func (p *PremiumRequest) IsVerified() bool {
	return p.Status == PremiumStatusVerified
}
