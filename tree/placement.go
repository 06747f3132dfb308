// Package tree maintains the binary placement tree: it attaches new members
// at the bottom of a sponsor's chosen leg and counts each leg's downline.
package tree

import (
	"context"
	"errors"
	"fmt"
	"log"

	"binarymlm-go/apperrors"
	"binarymlm-go/models"

	"gorm.io/gorm"
)

// Placement is where a member ended up.
type Placement struct {
	MemberID uint            `json:"member_id"`
	ParentID uint            `json:"parent_id"`
	Side     models.Position `json:"side"`
	Depth    int             `json:"depth"` // levels descended below the sponsor
}

type Placer struct {
	db *gorm.DB
}

func NewPlacer(db *gorm.DB) *Placer {
	return &Placer{db: db}
}

func (p *Placer) WithTx(tx *gorm.DB) *Placer {
	return &Placer{db: tx}
}

// Place attaches memberID under the deepest node reachable from sponsorID by
// following side children only. Slot claims are conditional updates, so two
// concurrent placements never both win the same slot; the loser keeps
// descending from the node it lost.
func (p *Placer) Place(ctx context.Context, sponsorID, memberID uint, side models.Position) (*Placement, error) {
	if !side.Valid() {
		return nil, apperrors.WithMetadata(apperrors.CodeInvalidSide,
			fmt.Sprintf("invalid side %q", side), map[string]string{"side": string(side)})
	}

	var placement *Placement
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sponsor, err := loadNode(tx, sponsorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.Wrap(apperrors.CodeSponsorNotFound, fmt.Sprintf("sponsor %d not found", sponsorID), err)
			}
			return err
		}

		member, err := loadNode(tx, memberID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.Wrap(apperrors.CodeMemberNotFound, fmt.Sprintf("member %d not found", memberID), err)
			}
			return err
		}
		if member.ID == sponsor.ID || member.ParentID != nil || member.LeftID != nil || member.RightID != nil {
			return apperrors.WithMetadata(apperrors.CodeAlreadyPlaced,
				fmt.Sprintf("member %d is already part of the tree", memberID),
				map[string]string{"member_id": fmt.Sprint(memberID)})
		}

		column := models.ChildColumn(side)
		cur := sponsor
		depth := 0
		seen := map[uint]bool{cur.ID: true}
		for {
			if child := cur.ChildID(side); child != nil {
				if seen[*child] {
					return fmt.Errorf("cycle in %s leg at member %d", side, *child)
				}
				seen[*child] = true
				if cur, err = loadNode(tx, *child); err != nil {
					return fmt.Errorf("descend to %d: %w", *child, err)
				}
				depth++
				continue
			}

			res := tx.Model(&models.Member{}).
				Where("id = ? AND "+column+" IS NULL", cur.ID).
				Update(column, memberID)
			if res.Error != nil {
				return fmt.Errorf("claim %s slot of %d: %w", side, cur.ID, res.Error)
			}
			if res.RowsAffected == 1 {
				break
			}

			// Someone else filled the slot; re-read and keep going down.
			log.Printf("[tree] lost %s slot of member %d, retrying", side, cur.ID)
			id := cur.ID
			if cur, err = loadNode(tx, id); err != nil {
				return fmt.Errorf("reload %d: %w", id, err)
			}
		}

		res := tx.Model(&models.Member{}).
			Where("id = ? AND parent_id IS NULL", memberID).
			Updates(map[string]interface{}{"parent_id": cur.ID, "position": side})
		if res.Error != nil {
			return fmt.Errorf("set parent of %d: %w", memberID, res.Error)
		}
		if res.RowsAffected != 1 {
			return apperrors.New(apperrors.CodeAlreadyPlaced, fmt.Sprintf("member %d was placed concurrently", memberID))
		}

		placement = &Placement{MemberID: memberID, ParentID: cur.ID, Side: side, Depth: depth}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placement, nil
}

func loadNode(tx *gorm.DB, id uint) (*models.Member, error) {
	var m models.Member
	err := tx.Select("id", "username", "parent_id", "left_id", "right_id", "status").
		Where("id = ?", id).
		Take(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}
