package models

import "github.com/shopspring/decimal"

type RankAndReward struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	RankNo     uint            `json:"rank_no" gorm:"uniqueIndex;not null"`
	RankName   string          `json:"rank_name" gorm:"size:30;not null"`
	Royalty    decimal.Decimal `json:"royalty" gorm:"type:decimal(10,2);not null;default:0"`
	Pairs      uint            `json:"pairs" gorm:"not null;default:0"` // pairs required
	Amount     int64           `json:"amount" gorm:"not null;default:0"`
	RewardName string          `json:"reward_name" gorm:"size:100"`
}

func (RankAndReward) TableName() string {
	return "rank_and_rewards"
}
