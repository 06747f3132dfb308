// Package ledger implements atomic credit and debit over a single balance
// column. The balance never goes negative: a debit larger than the balance
// fails with apperrors.ErrInsufficientFunds and leaves the row untouched.
//
// Each operation reads the balance under a row lock and writes the new value
// inside one transaction (a savepoint when the handle is already inside a
// transaction), so the check and the write cannot interleave with another
// caller. Callers record their own audit rows; the ledger keeps no history.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"binarymlm-go/apperrors"
	"binarymlm-go/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger is a non-negative balance.
type Ledger interface {
	Credit(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error)
	Debit(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error)
	Balance(ctx context.Context) (decimal.Decimal, error)
}

// ErrRowNotFound is returned when the row backing a ledger does not exist.
var ErrRowNotFound = errors.New("ledger row not found")

// Column is a Ledger stored in one decimal column of one table row.
type Column struct {
	db     *gorm.DB
	table  string
	id     uint
	column string
}

var _ Ledger = (*Column)(nil)

func NewColumn(db *gorm.DB, table string, id uint, column string) *Column {
	return &Column{db: db, table: table, id: id, column: column}
}

// CompanyWallet is the balance of the singleton company wallet.
func CompanyWallet(db *gorm.DB) *Column {
	return NewColumn(db, "company_wallets", models.CompanyWalletID, "balance")
}

// CompanyCharges is the separate fee pool of the company wallet.
func CompanyCharges(db *gorm.DB) *Column {
	return NewColumn(db, "company_wallets", models.CompanyWalletID, "charges_balance")
}

// MemberAccount is a member's account_balance (income and plan purchases).
func MemberAccount(db *gorm.DB, memberID uint) *Column {
	return NewColumn(db, "members", memberID, "account_balance")
}

// MemberWallet is a member's wallet_balance (recharges and resale income).
func MemberWallet(db *gorm.DB, memberID uint) *Column {
	return NewColumn(db, "members", memberID, "wallet_balance")
}

// WithTx returns the same ledger bound to tx.
func (c *Column) WithTx(tx *gorm.DB) *Column {
	cp := *c
	cp.db = tx
	return &cp
}

func (c *Column) String() string {
	return c.table + "." + c.column + "#" + strconv.FormatUint(uint64(c.id), 10)
}

// Credit adds amount and returns the new balance.
func (c *Column) Credit(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, c.invalidAmount("credit", amount)
	}
	return c.apply(ctx, amount)
}

// Debit subtracts amount and returns the new balance.
func (c *Column) Debit(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, c.invalidAmount("debit", amount)
	}
	return c.apply(ctx, amount.Neg())
}

// Balance returns the current balance without locking.
func (c *Column) Balance(ctx context.Context) (decimal.Decimal, error) {
	return c.read(c.db.WithContext(ctx), false)
}

func (c *Column) apply(ctx context.Context, delta decimal.Decimal) (decimal.Decimal, error) {
	var after decimal.Decimal
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := c.read(tx, true)
		if err != nil {
			return err
		}

		next := before.Add(delta)
		if next.IsNegative() {
			return apperrors.WithMetadata(apperrors.CodeInsufficientFunds,
				fmt.Sprintf("%s: balance %s is less than %s", c, before.StringFixed(2), delta.Neg().StringFixed(2)),
				map[string]string{
					"ledger":  c.String(),
					"balance": before.StringFixed(2),
					"amount":  delta.Neg().StringFixed(2),
				})
		}

		if err := tx.Table(c.table).Where("id = ?", c.id).Update(c.column, next).Error; err != nil {
			return fmt.Errorf("%s: update: %w", c, err)
		}
		after = next
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return after, nil
}

func (c *Column) read(db *gorm.DB, lock bool) (decimal.Decimal, error) {
	q := db.Table(c.table).Select(c.column).Where("id = ?", c.id)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var balance decimal.Decimal
	if err := q.Row().Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("%s: %w", c, ErrRowNotFound)
		}
		return decimal.Zero, fmt.Errorf("%s: read: %w", c, err)
	}
	return balance, nil
}

func (c *Column) invalidAmount(op string, amount decimal.Decimal) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidAmount,
		fmt.Sprintf("%s %s: amount %s must not be negative", c, op, amount.String()),
		map[string]string{"ledger": c.String(), "amount": amount.String()})
}
