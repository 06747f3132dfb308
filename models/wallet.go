package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CompanyWalletID is the primary key of the singleton company wallet row.
const CompanyWalletID uint = 1

type CompanyWallet struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	Balance        decimal.Decimal `json:"balance" gorm:"type:decimal(15,2);not null;default:0"`
	ChargesBalance decimal.Decimal `json:"charges_balance" gorm:"type:decimal(15,2);not null;default:0"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Company wallet pools accepted by WalletCreditRequest.
const (
	PoolBalance = "balance"
	PoolCharges = "charges"
)

type WalletCreditRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Pool        string          `json:"pool" validate:"omitempty,oneof=balance charges"`
	Description string          `json:"description"`
}
