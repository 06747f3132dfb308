package income

import (
	"context"
	"fmt"

	"binarymlm-go/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Report is a member's income history with per-type totals.
type Report struct {
	MemberID uint                                  `json:"member_id"`
	Totals   map[models.IncomeType]decimal.Decimal `json:"totals"`
	Total    decimal.Decimal                       `json:"total"`
	History  []models.IncomeHistory                `json:"history"`
}

type typeTotal struct {
	IncomeType models.IncomeType
	Total      decimal.Decimal
}

// Summarize totals the member's income per type and lists the most recent
// limit entries (all when limit is 0), filtered to typ when it is non-empty.
// Totals always cover every type.
func Summarize(ctx context.Context, db *gorm.DB, memberID uint, typ models.IncomeType, limit int) (*Report, error) {
	db = db.WithContext(ctx)

	var sums []typeTotal
	if err := db.Model(&models.IncomeHistory{}).
		Select("income_type, SUM(amount) AS total").
		Where("member_id = ?", memberID).
		Group("income_type").
		Scan(&sums).Error; err != nil {
		return nil, fmt.Errorf("sum income: %w", err)
	}

	r := &Report{
		MemberID: memberID,
		Totals:   make(map[models.IncomeType]decimal.Decimal, len(models.IncomeTypes)),
		Total:    decimal.Zero,
		History:  []models.IncomeHistory{},
	}
	for _, t := range models.IncomeTypes {
		r.Totals[t] = decimal.Zero
	}
	for _, s := range sums {
		// sqlite sums decimals as floating point.
		total := s.Total.Round(2)
		r.Totals[s.IncomeType] = total
		r.Total = r.Total.Add(total)
	}

	q := db.Where("member_id = ?", memberID).Order("created_at DESC, id DESC")
	if typ != "" {
		q = q.Where("income_type = ?", typ)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&r.History).Error; err != nil {
		return nil, fmt.Errorf("load income history: %w", err)
	}
	return r, nil
}
