package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	RechargePending = "pending"
	RechargeSuccess = "success"
	RechargeFailed  = "failed"
)

type RechargeTransaction struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	MemberID     uint            `json:"member_id" gorm:"index;not null"`
	MobileNo     string          `json:"mobile_no" gorm:"size:15;not null"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:decimal(15,2);not null"`
	CompanyName  string          `json:"company_name" gorm:"size:50;not null"`
	OrderID      string          `json:"order_id" gorm:"uniqueIndex;size:20;not null"`
	Status       string          `json:"status" gorm:"size:10;not null;default:pending"`
	ResponseData datatypes.JSON  `json:"response_data"`
	RechargeDate time.Time       `json:"recharge_date" gorm:"autoCreateTime;index"`
}

type RechargeRequest struct {
	MobileNo    string          `json:"mobile_no" validate:"required,numeric,len=10"`
	Amount      decimal.Decimal `json:"amount"`
	CompanyName string          `json:"company_name" validate:"required,oneof=vi airtel bsnl jio"`
	IsSTV       bool            `json:"is_stv"`
}
