package tree

import (
	"context"
	"errors"
	"fmt"

	"binarymlm-go/apperrors"
	"binarymlm-go/models"

	"gorm.io/gorm"
)

// batchSize bounds the IN list of one level fetch.
const batchSize = 500

// Counts is a leg tally by status.
type Counts struct {
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Total    int `json:"total"`
}

func (c Counts) add(status models.MemberStatus) Counts {
	if status == models.StatusActive {
		c.Active++
	} else {
		c.Inactive++
	}
	c.Total++
	return c
}

// Census counts downlines breadth-first, one query per level batch.
type Census struct {
	db *gorm.DB
}

func NewCensus(db *gorm.DB) *Census {
	return &Census{db: db}
}

func (c *Census) WithTx(tx *gorm.DB) *Census {
	return &Census{db: tx}
}

// Count tallies every member in the subtree rooted at memberID's side child.
// Pointers to rows that no longer exist are skipped.
func (c *Census) Count(ctx context.Context, memberID uint, side models.Position) (Counts, error) {
	if !side.Valid() {
		return Counts{}, apperrors.New(apperrors.CodeInvalidSide, fmt.Sprintf("invalid side %q", side))
	}

	db := c.db.WithContext(ctx)
	root, err := loadNode(db, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Counts{}, apperrors.Wrap(apperrors.CodeMemberNotFound, fmt.Sprintf("member %d not found", memberID), err)
		}
		return Counts{}, fmt.Errorf("load member %d: %w", memberID, err)
	}

	var counts Counts
	start := root.ChildID(side)
	if start == nil {
		return counts, nil
	}

	seen := map[uint]bool{root.ID: true}
	frontier := []uint{*start}
	for len(frontier) > 0 {
		var next []uint
		for i := 0; i < len(frontier); i += batchSize {
			end := min(i+batchSize, len(frontier))

			var rows []models.Member
			if err := db.Select("id", "status", "left_id", "right_id").
				Where("id IN ?", frontier[i:end]).
				Find(&rows).Error; err != nil {
				return Counts{}, fmt.Errorf("census level fetch: %w", err)
			}
			for _, row := range rows {
				if seen[row.ID] {
					continue
				}
				seen[row.ID] = true
				counts = counts.add(row.Status)
				if row.LeftID != nil {
					next = append(next, *row.LeftID)
				}
				if row.RightID != nil {
					next = append(next, *row.RightID)
				}
			}
		}
		frontier = next
	}
	return counts, nil
}

// Legs returns the left and right tallies of memberID.
func (c *Census) Legs(ctx context.Context, memberID uint) (left, right Counts, err error) {
	if left, err = c.Count(ctx, memberID, models.PositionLeft); err != nil {
		return Counts{}, Counts{}, err
	}
	if right, err = c.Count(ctx, memberID, models.PositionRight); err != nil {
		return Counts{}, Counts{}, err
	}
	return left, right, nil
}
