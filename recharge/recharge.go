// Package recharge sells mobile recharges from a member's wallet balance and
// pays the member a resale share of the operator commission.
package recharge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"

	"binarymlm-go/apperrors"
	"binarymlm-go/income"
	"binarymlm-go/ledger"
	"binarymlm-go/models"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxOrderIDAttempts = 10

var hundred = decimal.NewFromInt(100)

// Result is a recorded recharge with the shares it produced.
type Result struct {
	Transaction  models.RechargeTransaction `json:"transaction"`
	Sharable     decimal.Decimal            `json:"sharable"`
	ResaleIncome decimal.Decimal            `json:"resale_income"`
	WalletError  string                     `json:"wallet_error,omitempty"`
}

type Service struct {
	db            *gorm.DB
	provider      Provider
	sharePercent  decimal.Decimal
	resalePercent decimal.Decimal
}

func NewService(db *gorm.DB, provider Provider, sharePercent, resalePercent decimal.Decimal) *Service {
	return &Service{db: db, provider: provider, sharePercent: sharePercent, resalePercent: resalePercent}
}

// Recharge reserves the amount from the member's wallet, calls the provider
// and records the outcome. A recharge that does not succeed is refunded.
// On success the company pays sharePercent of the amount out of its wallet,
// resalePercent of which goes to the member as resale income.
func (s *Service) Recharge(ctx context.Context, memberID uint, req models.RechargeRequest) (*Result, error) {
	if !req.Amount.IsPositive() {
		return nil, apperrors.New(apperrors.CodeInvalidAmount, fmt.Sprintf("recharge amount %s must be positive", req.Amount))
	}

	orderID, err := s.newOrderID(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := ledger.MemberWallet(s.db, memberID).Debit(ctx, req.Amount); err != nil {
		if errors.Is(err, ledger.ErrRowNotFound) {
			return nil, apperrors.Wrap(apperrors.CodeMemberNotFound, fmt.Sprintf("member %d not found", memberID), err)
		}
		return nil, err
	}

	status, raw := models.RechargeFailed, ""
	resp, err := s.provider.Recharge(ctx, Order{
		OrderID:     orderID,
		MobileNo:    req.MobileNo,
		CompanyName: req.CompanyName,
		Amount:      req.Amount,
		IsSTV:       req.IsSTV,
	})
	if err != nil {
		log.Printf("[recharge] order %s for member %d: provider error: %v", orderID, memberID, err)
		b, _ := json.Marshal(map[string]string{"status": models.RechargeFailed, "error": err.Error()})
		raw = string(b)
	} else {
		raw = resp.Raw
		switch resp.Status {
		case models.RechargeSuccess, models.RechargePending, models.RechargeFailed:
			status = resp.Status
		}
	}

	result := &Result{Sharable: decimal.Zero, ResaleIncome: decimal.Zero}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if status != models.RechargeSuccess {
			if _, err := ledger.MemberWallet(tx, memberID).Credit(ctx, req.Amount); err != nil {
				return fmt.Errorf("refund wallet: %w", err)
			}
		} else {
			result.Sharable = req.Amount.Mul(s.sharePercent).Div(hundred).Round(2)
			result.ResaleIncome = result.Sharable.Mul(s.resalePercent).Div(hundred).Round(2)

			if _, err := ledger.CompanyWallet(tx).Debit(ctx, result.Sharable); err != nil {
				log.Printf("[recharge] company wallet debit of %s for order %s failed: %v", result.Sharable.StringFixed(2), orderID, err)
				result.WalletError = err.Error()
			}
			if result.ResaleIncome.IsPositive() {
				desc := fmt.Sprintf("Resale income from %s recharge of %s for %s", req.CompanyName, req.Amount.StringFixed(2), req.MobileNo)
				if _, err := income.Credit(ctx, tx, memberID, models.IncomeResale, result.ResaleIncome, desc); err != nil {
					return fmt.Errorf("credit resale income: %w", err)
				}
			}
		}

		result.Transaction = models.RechargeTransaction{
			MemberID:     memberID,
			MobileNo:     req.MobileNo,
			Amount:       req.Amount,
			CompanyName:  req.CompanyName,
			OrderID:      orderID,
			Status:       status,
			ResponseData: responseJSON(status, raw),
		}
		if err := tx.Create(&result.Transaction).Error; err != nil {
			return fmt.Errorf("record recharge: %w", err)
		}
		return nil
	})
	if err != nil {
		// The provider has already been called; keep enough in the log to reconcile by hand.
		log.Printf("[recharge] order %s for member %d (status %s) not recorded: %v", orderID, memberID, status, err)
		return nil, err
	}
	return result, nil
}

// responseJSON keeps the provider body as-is when it is JSON and wraps it otherwise.
func responseJSON(status, raw string) datatypes.JSON {
	if raw != "" && json.Valid([]byte(raw)) {
		return datatypes.JSON(raw)
	}
	b, _ := json.Marshal(map[string]string{"status": status, "body": raw})
	return datatypes.JSON(b)
}

// History returns the member's recharges, newest first.
func (s *Service) History(ctx context.Context, memberID uint, limit int) ([]models.RechargeTransaction, error) {
	var out []models.RechargeTransaction
	q := s.db.WithContext(ctx).Where("member_id = ?", memberID).Order("recharge_date DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("recharge history: %w", err)
	}
	return out, nil
}

// newOrderID returns an unused 10-digit order id.
func (s *Service) newOrderID(ctx context.Context) (string, error) {
	for i := 0; i < maxOrderIDAttempts; i++ {
		id := fmt.Sprintf("%d", 1_000_000_000+rand.Int63n(9_000_000_000))

		var count int64
		if err := s.db.WithContext(ctx).Model(&models.RechargeTransaction{}).
			Where("order_id = ?", id).
			Count(&count).Error; err != nil {
			return "", fmt.Errorf("check order id: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("no free order id after %d attempts", maxOrderIDAttempts)
}
