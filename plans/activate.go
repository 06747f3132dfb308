package plans

import (
	"context"
	"errors"
	"fmt"
	"log"

	"binarymlm-go/apperrors"
	"binarymlm-go/income"
	"binarymlm-go/ledger"
	"binarymlm-go/models"
	"binarymlm-go/settlement"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Payout is one direct or level income paid on activation.
type Payout struct {
	MemberID    uint              `json:"member_id"`
	Username    string            `json:"username"`
	Type        models.IncomeType `json:"type"`
	Level       int               `json:"level,omitempty"`
	Amount      decimal.Decimal   `json:"amount"`
	WalletError string            `json:"wallet_error,omitempty"`
}

// Activation is the result of a plan purchase.
type Activation struct {
	MemberPlan models.MemberPlan  `json:"member_plan"`
	Settlement *settlement.Report `json:"settlement"`
	Payouts    []Payout           `json:"payouts"`
}

type Activator struct {
	db           *gorm.DB
	engine       *settlement.Engine
	rootUsername string
}

func NewActivator(db *gorm.DB, engine *settlement.Engine, rootUsername string) *Activator {
	return &Activator{db: db, engine: engine, rootUsername: rootUsername}
}

// Activate buys planID for memberID out of the member's account balance.
// The price goes to the company wallet, the member is activated and the
// matching walk runs; then the sponsor gets direct income and the sponsor
// chain gets the plan's level income. A failed purchase changes nothing.
func (a *Activator) Activate(ctx context.Context, memberID, planID uint) (*Activation, error) {
	var result *Activation
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Member
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, memberID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.Wrap(apperrors.CodeMemberNotFound, fmt.Sprintf("member %d not found", memberID), err)
			}
			return fmt.Errorf("load member %d: %w", memberID, err)
		}

		plan, err := NewCatalog(tx).Get(ctx, planID)
		if err != nil {
			return err
		}

		current, err := NewCatalog(tx).Active(ctx, memberID)
		if err != nil {
			return err
		}
		if current != nil {
			return apperrors.WithMetadata(apperrors.CodePlanAlreadyActive,
				fmt.Sprintf("member %s already has plan %s active", m.Username, current.Plan.Name),
				map[string]string{"plan_id": fmt.Sprint(current.PlanID)})
		}

		if _, err := ledger.MemberAccount(tx, memberID).Debit(ctx, plan.Price); err != nil {
			return err
		}
		if _, err := ledger.CompanyWallet(tx).Credit(ctx, plan.Price); err != nil {
			return fmt.Errorf("credit company wallet: %w", err)
		}

		mp := models.MemberPlan{MemberID: memberID, PlanID: plan.ID, IsActive: true}
		if err := tx.Omit(clause.Associations).Create(&mp).Error; err != nil {
			return fmt.Errorf("record activation: %w", err)
		}
		mp.Plan = *plan

		report, err := a.engine.WithTx(tx).Settle(ctx, memberID)
		if err != nil {
			return fmt.Errorf("settle: %w", err)
		}

		payouts, err := a.payouts(ctx, tx, &m, plan)
		if err != nil {
			return err
		}

		result = &Activation{MemberPlan: mp, Settlement: report, Payouts: payouts}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[plans] member %d activated plan %d, %d payout(s), matching paid %s",
		memberID, planID, len(result.Payouts), result.Settlement.Paid().StringFixed(2))
	return result, nil
}

// payouts pays direct income to the sponsor and level income up the sponsor
// chain; level 1 is the sponsor. The root sentinel is never paid and ends
// the chain.
func (a *Activator) payouts(ctx context.Context, tx *gorm.DB, m *models.Member, plan *models.Plan) ([]Payout, error) {
	byLevel := make(map[int]models.Level, len(plan.Levels))
	deepest := 1
	for _, l := range plan.Levels {
		byLevel[l.Level] = l
		deepest = max(deepest, l.Level)
	}

	out := []Payout{}
	sponsorID := m.SponsorID
	for level := 1; level <= deepest && sponsorID != nil; level++ {
		var sponsor models.Member
		if err := tx.Select("id", "username", "sponsor_id").First(&sponsor, *sponsorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("[plans] sponsor %d in the chain of member %d is gone", *sponsorID, m.ID)
				break
			}
			return nil, fmt.Errorf("load sponsor %d: %w", *sponsorID, err)
		}
		if sponsor.Username == a.rootUsername {
			break
		}

		if level == 1 && plan.Direct.IsPositive() {
			p, err := a.pay(ctx, tx, &sponsor, models.IncomeDirect, 0, plan.Direct,
				fmt.Sprintf("Direct income for sponsoring %s on plan %s", m.Username, plan.Name))
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		if l, ok := byLevel[level]; ok && l.DistributedAmount.IsPositive() {
			p, err := a.pay(ctx, tx, &sponsor, models.IncomeLevel, level, l.DistributedAmount,
				fmt.Sprintf("Level %d income from %s on plan %s", level, m.Username, plan.Name))
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		sponsorID = sponsor.SponsorID
	}
	return out, nil
}

// pay credits the recipient and takes the amount from the company wallet.
// A wallet shortfall is logged and reported; the credit stands.
func (a *Activator) pay(ctx context.Context, tx *gorm.DB, to *models.Member, typ models.IncomeType, level int, amount decimal.Decimal, desc string) (Payout, error) {
	if _, err := income.Credit(ctx, tx, to.ID, typ, amount, desc); err != nil {
		return Payout{}, fmt.Errorf("credit %s to %s: %w", typ, to.Username, err)
	}
	p := Payout{MemberID: to.ID, Username: to.Username, Type: typ, Level: level, Amount: amount}
	if _, err := ledger.CompanyWallet(tx).Debit(ctx, amount); err != nil {
		log.Printf("[plans] company wallet debit of %s for %s to %s failed: %v", amount.StringFixed(2), typ, to.Username, err)
		p.WalletError = err.Error()
	}
	return p, nil
}
