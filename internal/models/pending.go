package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PendingTrade - сделка, ожидающая ручного одобрения
type PendingTrade struct {
	ID              string          `json:"id"`
	SignalID        int             `json:"signal_id"`
	Symbol          string          `json:"symbol"`
	Side            Side            `json:"side"`
	Quantity        decimal.Decimal `json:"quantity"`
	Score           int             `json:"signal_score"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
}

// Статусы ожидающей сделки
const (
	PendingStatusPending  = "pending"
	PendingStatusApproved = "approved"
	PendingStatusRejected = "rejected"
)
