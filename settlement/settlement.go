// Package settlement pays binary matching income after a member activates.
//
// Settle walks from the member's parent up to the root. At each ancestor it
// counts active members on both legs, pays the ancestor's plan matching bonus
// for every pair completed since the last walk, advances the pair counters
// and rank, and takes the payout from the company wallet. Every ancestor is
// settled in its own transaction, so a failing step undoes only itself.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log"

	"binarymlm-go/apperrors"
	"binarymlm-go/income"
	"binarymlm-go/ledger"
	"binarymlm-go/members"
	"binarymlm-go/models"
	"binarymlm-go/rank"
	"binarymlm-go/tree"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const tracerName = "binarymlm-go/settlement"

// StopReason says why a walk ended.
type StopReason string

const (
	StopRoot         StopReason = "root"
	StopNoActivation StopReason = "no_activation"
	StopStepFailed   StopReason = "step_failed"
	StopTopOfTree    StopReason = "top_of_tree"
)

// Step is the outcome at one ancestor that earned pairs.
type Step struct {
	MemberID    uint            `json:"member_id"`
	Username    string          `json:"username"`
	NewPairs    uint            `json:"new_pairs"`
	Income      decimal.Decimal `json:"income"`
	RankNo      uint            `json:"rank_no"`
	Promoted    bool            `json:"promoted"`
	WalletError string          `json:"wallet_error,omitempty"`
}

// Report summarises one Settle call.
type Report struct {
	MemberID   uint       `json:"member_id"`
	Activated  bool       `json:"activated"`
	Visited    int        `json:"visited"`
	Steps      []Step     `json:"steps"`
	StoppedAt  uint       `json:"stopped_at,omitempty"`
	StopReason StopReason `json:"stop_reason"`
	StepError  string     `json:"step_error,omitempty"`
}

// Paid is the total matching income paid by the walk.
func (r *Report) Paid() decimal.Decimal {
	total := decimal.Zero
	for _, s := range r.Steps {
		total = total.Add(s.Income)
	}
	return total
}

type Engine struct {
	db           *gorm.DB
	rootUsername string
	tracer       trace.Tracer
}

func NewEngine(db *gorm.DB, rootUsername string) *Engine {
	return &Engine{
		db:           db,
		rootUsername: rootUsername,
		tracer:       otel.Tracer(tracerName),
	}
}

// WithTx returns an engine whose steps run as savepoints of tx.
func (e *Engine) WithTx(tx *gorm.DB) *Engine {
	cp := *e
	cp.db = tx
	return &cp
}

// outcome of settling a single ancestor.
type outcome struct {
	step   *Step
	next   *uint
	root   bool
	reason error
}

// Settle activates memberID and settles every ancestor up to the root.
// Only structural failures (unknown member, unreadable ranks) are returned
// as errors; a failing ancestor ends the walk and is reported.
func (e *Engine) Settle(ctx context.Context, memberID uint) (*Report, error) {
	ctx, span := e.tracer.Start(ctx, "settlement.Settle",
		trace.WithAttributes(attribute.Int64("member.id", int64(memberID))))
	defer span.End()

	db := e.db.WithContext(ctx)
	dir := members.NewDirectory(db, e.rootUsername)

	member, err := dir.Get(ctx, memberID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load member")
		return nil, err
	}

	ranks, err := rank.Load(ctx, db)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load ranks")
		return nil, err
	}

	report := &Report{MemberID: memberID, Steps: []Step{}}

	report.Activated, err = dir.Activate(ctx, memberID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "activate")
		return nil, err
	}

	report.StopReason = StopTopOfTree
	cursor := member.ParentID
	for cursor != nil {
		report.Visited++
		out, err := e.settleAncestor(ctx, *cursor, ranks)
		if err != nil {
			log.Printf("[settlement] walk for member %d stopped at %d: %v", memberID, *cursor, err)
			span.RecordError(err)
			report.StoppedAt = *cursor
			report.StopReason = StopStepFailed
			report.StepError = err.Error()
			break
		}
		if out.root {
			report.StoppedAt = *cursor
			report.StopReason = StopRoot
			break
		}
		if out.reason != nil {
			log.Printf("[settlement] walk for member %d stopped at %d: %v", memberID, *cursor, out.reason)
			report.StoppedAt = *cursor
			report.StopReason = StopNoActivation
			break
		}
		if out.step != nil {
			report.Steps = append(report.Steps, *out.step)
		}
		cursor = out.next
	}

	span.SetAttributes(
		attribute.Int("settlement.visited", report.Visited),
		attribute.Int("settlement.paid_steps", len(report.Steps)),
		attribute.String("settlement.stop_reason", string(report.StopReason)),
	)
	return report, nil
}

func (e *Engine) settleAncestor(ctx context.Context, id uint, ranks rank.Table) (outcome, error) {
	ctx, span := e.tracer.Start(ctx, "settlement.Ancestor",
		trace.WithAttributes(attribute.Int64("ancestor.id", int64(id))))
	defer span.End()

	var out outcome
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a models.Member
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&a, id).Error; err != nil {
			return fmt.Errorf("load ancestor %d: %w", id, err)
		}
		if a.Username == e.rootUsername {
			out.root = true
			return nil
		}
		out.next = a.ParentID

		left, right, err := tree.NewCensus(tx).Legs(ctx, a.ID)
		if err != nil {
			return fmt.Errorf("census of %d: %w", a.ID, err)
		}
		completed := uint(min(left.Active, right.Active))
		if completed <= a.AllMatchingPairs {
			return nil
		}
		newPairs := completed - a.AllMatchingPairs

		var activation models.MemberPlan
		err = tx.Preload("Plan").
			Where("member_id = ?", a.ID).
			Order("activated_on DESC, id DESC").
			First(&activation).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			out.reason = apperrors.WithMetadata(apperrors.CodeNoActivationOnRecord,
				fmt.Sprintf("member %s has no plan activation", a.Username),
				map[string]string{"member_id": fmt.Sprint(a.ID)})
			return nil
		}
		if err != nil {
			return fmt.Errorf("load activation of %d: %w", a.ID, err)
		}

		amount := activation.Plan.Matching.Mul(decimal.NewFromInt(int64(newPairs)))
		desc := fmt.Sprintf("Matching income for %d pair(s) on plan %s", newPairs, activation.Plan.Name)
		if _, err := income.Credit(ctx, tx, a.ID, models.IncomeMatching, amount, desc); err != nil {
			return fmt.Errorf("credit matching income: %w", err)
		}

		a.AllMatchingPairs += newPairs
		a.MatchingPairs += newPairs
		promoted := ranks.MaybePromote(&a)
		if err := tx.Model(&models.Member{}).Where("id = ?", a.ID).Updates(map[string]interface{}{
			"all_matching_pairs": a.AllMatchingPairs,
			"matching_pairs":     a.MatchingPairs,
			"rank_no":            a.RankNo,
		}).Error; err != nil {
			return fmt.Errorf("update pair counters: %w", err)
		}

		step := &Step{
			MemberID: a.ID,
			Username: a.Username,
			NewPairs: newPairs,
			Income:   amount,
			RankNo:   a.RankNo,
			Promoted: promoted,
		}
		if promoted {
			log.Printf("[settlement] member %s promoted to rank %d", a.Username, a.RankNo)
		}

		// The member keeps the credit even when the company wallet cannot cover it.
		if _, err := ledger.CompanyWallet(tx).Debit(ctx, amount); err != nil {
			log.Printf("[settlement] company wallet debit of %s for member %s failed: %v", amount.StringFixed(2), a.Username, err)
			step.WalletError = err.Error()
		}
		out.step = step
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "step failed")
		return outcome{}, err
	}
	if out.step != nil {
		span.SetAttributes(
			attribute.Int64("ancestor.new_pairs", int64(out.step.NewPairs)),
			attribute.String("ancestor.income", out.step.Income.StringFixed(2)),
		)
	}
	return out, nil
}
