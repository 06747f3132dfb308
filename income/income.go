// Package income credits member income and keeps the income history.
package income

import (
	"context"
	"errors"
	"fmt"

	"binarymlm-go/apperrors"
	"binarymlm-go/ledger"
	"binarymlm-go/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// field maps an income type to its running total column.
var field = map[models.IncomeType]string{
	models.IncomeDirect:   "direct_income",
	models.IncomeLevel:    "level_income",
	models.IncomeMatching: "matching_income",
	models.IncomeResale:   "resale_income",
}

// Credit records one income event for memberID. The amount is added to the
// type's running total, total_income and today_income, then paid into the
// member's account balance (wallet balance for resale income) and appended
// to the income history. All of it happens in one transaction.
func Credit(ctx context.Context, db *gorm.DB, memberID uint, typ models.IncomeType, amount decimal.Decimal, description string) (*models.IncomeHistory, error) {
	col, ok := field[typ]
	if !ok {
		return nil, fmt.Errorf("unknown income type %q", typ)
	}
	if amount.IsNegative() {
		return nil, apperrors.New(apperrors.CodeInvalidAmount, fmt.Sprintf("income amount %s is negative", amount))
	}

	var entry *models.IncomeHistory
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Member
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, memberID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.Wrap(apperrors.CodeMemberNotFound, fmt.Sprintf("member %d not found", memberID), err)
			}
			return fmt.Errorf("load member %d: %w", memberID, err)
		}

		updates := map[string]interface{}{
			col:            current(&m, typ).Add(amount),
			"total_income": m.TotalIncome.Add(amount),
			"today_income": m.TodayIncome.Add(amount),
		}
		if err := tx.Model(&models.Member{}).Where("id = ?", memberID).Updates(updates).Error; err != nil {
			return fmt.Errorf("update income totals: %w", err)
		}

		dest := ledger.MemberAccount(tx, memberID)
		if typ == models.IncomeResale {
			dest = ledger.MemberWallet(tx, memberID)
		}
		if _, err := dest.Credit(ctx, amount); err != nil {
			return err
		}

		entry = &models.IncomeHistory{
			MemberID:    memberID,
			IncomeType:  typ,
			Amount:      amount,
			Description: description,
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("append income history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func current(m *models.Member, typ models.IncomeType) decimal.Decimal {
	switch typ {
	case models.IncomeDirect:
		return m.DirectIncome
	case models.IncomeLevel:
		return m.LevelIncome
	case models.IncomeMatching:
		return m.MatchingIncome
	default:
		return m.ResaleIncome
	}
}
