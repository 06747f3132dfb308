package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type IncomeType string

const (
	IncomeDirect   IncomeType = "direct_income"
	IncomeLevel    IncomeType = "level_income"
	IncomeMatching IncomeType = "matching_income"
	IncomeResale   IncomeType = "resale_income"
)

// IncomeTypes lists every income type in display order.
var IncomeTypes = []IncomeType{IncomeDirect, IncomeLevel, IncomeMatching, IncomeResale}

// IncomeHistory is append-only; one row per credited income event.
type IncomeHistory struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	MemberID    uint            `json:"member_id" gorm:"index;not null"`
	IncomeType  IncomeType      `json:"income_type" gorm:"size:20;index;not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(15,2);not null"`
	Description string          `json:"description" gorm:"type:text"`
	CreatedAt   time.Time       `json:"created_at" gorm:"index"`
}
