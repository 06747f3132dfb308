// Package plans exposes the plan catalog and member plan activation.
package plans

import (
	"context"
	"errors"
	"fmt"

	"binarymlm-go/apperrors"
	"binarymlm-go/models"

	"gorm.io/gorm"
)

type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) WithTx(tx *gorm.DB) *Catalog {
	return &Catalog{db: tx}
}

func levelsInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("level ASC")
}

// List returns every plan with its level schedule, cheapest first.
func (c *Catalog) List(ctx context.Context) ([]models.Plan, error) {
	var out []models.Plan
	if err := c.db.WithContext(ctx).
		Preload("Levels", levelsInOrder).
		Order("price ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return out, nil
}

func (c *Catalog) Get(ctx context.Context, id uint) (*models.Plan, error) {
	var p models.Plan
	if err := c.db.WithContext(ctx).Preload("Levels", levelsInOrder).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.CodePlanNotFound, fmt.Sprintf("plan %d not found", id), err)
		}
		return nil, fmt.Errorf("load plan %d: %w", id, err)
	}
	return &p, nil
}

// Active returns the member's active plan, or nil if there is none.
func (c *Catalog) Active(ctx context.Context, memberID uint) (*models.MemberPlan, error) {
	var mp models.MemberPlan
	err := c.db.WithContext(ctx).
		Preload("Plan").
		Where("member_id = ? AND is_active = ?", memberID, true).
		Order("activated_on DESC, id DESC").
		First(&mp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load active plan: %w", err)
	}
	return &mp, nil
}
