package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan is a catalog entry. Direct is paid to the sponsor on activation,
// Matching is paid per completed pair to each qualifying ancestor.
type Plan struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	Name      string          `json:"name" gorm:"size:50;not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(15,2);not null;default:0"`
	Direct    decimal.Decimal `json:"direct" gorm:"type:decimal(15,2);not null;default:0"`
	Matching  decimal.Decimal `json:"matching" gorm:"type:decimal(15,2);not null;default:0"`
	Levels    []Level         `json:"levels,omitempty" gorm:"foreignKey:PlanID"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Level is the level-income schedule of a plan: DistributedAmount goes to
// the sponsor Level steps up the sponsor chain.
type Level struct {
	ID                uint            `json:"id" gorm:"primaryKey"`
	PlanID            uint            `json:"plan_id" gorm:"index;not null"`
	Level             int             `json:"level" gorm:"not null"`
	DistributedAmount decimal.Decimal `json:"distributed_amount" gorm:"type:decimal(15,2);not null;default:0"`
	ResalePercentage  decimal.Decimal `json:"resale_percentage" gorm:"type:decimal(5,2);not null;default:0"`
}

// MemberPlan records one plan activation. Only IsActive may change after creation.
type MemberPlan struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	MemberID    uint      `json:"member_id" gorm:"index;not null"`
	PlanID      uint      `json:"plan_id" gorm:"index;not null"`
	Plan        Plan      `json:"plan" gorm:"foreignKey:PlanID"`
	ActivatedOn time.Time `json:"activated_on" gorm:"autoCreateTime"`
	IsActive    bool      `json:"is_active" gorm:"not null;default:true"`
}

type ActivatePlanRequest struct {
	PlanID uint `json:"plan_id" validate:"required,gt=0"`
}
