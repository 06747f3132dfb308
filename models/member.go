package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the side of the parent a member hangs from.
type Position string

const (
	PositionLeft  Position = "Left"
	PositionRight Position = "Right"
)

// Valid reports whether p is one of the two binary sides.
func (p Position) Valid() bool {
	return p == PositionLeft || p == PositionRight
}

type MemberStatus string

const (
	StatusActive   MemberStatus = "Active"
	StatusInactive MemberStatus = "Inactive"
)

// Member is one node of the binary tree. Tree links are stored as nullable
// member ids; LeftID and RightID are written once and never cleared.
type Member struct {
	ID        uint     `json:"id" gorm:"primaryKey"`
	Username  string   `json:"username" gorm:"uniqueIndex;size:32;not null"`
	UserID    *uint    `json:"user_id" gorm:"uniqueIndex"`
	User      *User    `json:"-" gorm:"foreignKey:UserID"`
	MobileNo  *string  `json:"mobile_no" gorm:"uniqueIndex;size:15"`
	SponsorID *uint    `json:"sponsor_id" gorm:"index"`
	ParentID  *uint    `json:"parent_id" gorm:"index"`
	LeftID    *uint    `json:"left_id" gorm:"column:left_id"`
	RightID   *uint    `json:"right_id" gorm:"column:right_id"`
	Position  Position `json:"position" gorm:"size:10;index"`

	Status  MemberStatus `json:"status" gorm:"size:10;index;not null;default:Inactive"`
	Blocked bool         `json:"blocked" gorm:"default:false"`
	RankNo  uint         `json:"rank_no" gorm:"not null;default:0"`

	AccountBalance  decimal.Decimal `json:"account_balance" gorm:"type:decimal(15,2);not null;default:0"`
	WalletBalance   decimal.Decimal `json:"wallet_balance" gorm:"type:decimal(15,2);not null;default:0"`
	TodayIncome     decimal.Decimal `json:"today_income" gorm:"type:decimal(15,2);not null;default:0"`
	TotalIncome     decimal.Decimal `json:"total_income" gorm:"type:decimal(15,2);not null;default:0"`
	DirectIncome    decimal.Decimal `json:"direct_income" gorm:"type:decimal(15,2);not null;default:0"`
	LevelIncome     decimal.Decimal `json:"level_income" gorm:"type:decimal(15,2);not null;default:0"`
	ResaleIncome    decimal.Decimal `json:"resale_income" gorm:"type:decimal(15,2);not null;default:0"`
	MatchingIncome  decimal.Decimal `json:"matching_income" gorm:"type:decimal(15,2);not null;default:0"`
	TotalWithdrawal decimal.Decimal `json:"total_withdrawal" gorm:"type:decimal(15,2);not null;default:0"`

	MatchingPairs    uint `json:"matching_pairs" gorm:"not null;default:0"`     // since last rank-up
	AllMatchingPairs uint `json:"all_matching_pairs" gorm:"not null;default:0"` // lifetime

	JoinedOn    time.Time `json:"joined_on" gorm:"autoCreateTime"`
	LastUpdated time.Time `json:"last_updated" gorm:"autoUpdateTime"`
}

// ChildID returns the child pointer on side.
func (m *Member) ChildID(side Position) *uint {
	if side == PositionLeft {
		return m.LeftID
	}
	return m.RightID
}

// ChildColumn returns the column backing the child pointer on side.
func ChildColumn(side Position) string {
	if side == PositionLeft {
		return "left_id"
	}
	return "right_id"
}
