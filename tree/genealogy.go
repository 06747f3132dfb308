package tree

import (
	"context"
	"errors"
	"fmt"

	"binarymlm-go/apperrors"
	"binarymlm-go/models"

	"gorm.io/gorm"
)

const MaxGenealogyDepth = 5

// Node is one member in a genealogy view.
type Node struct {
	ID       uint                `json:"id"`
	Username string              `json:"username"`
	Status   models.MemberStatus `json:"status"`
	RankNo   uint                `json:"rank_no"`
	Position models.Position     `json:"position,omitempty"`
	Left     *Node               `json:"left,omitempty"`
	Right    *Node               `json:"right,omitempty"`

	leftID, rightID *uint
}

// Genealogy returns the subtree under memberID down to depth levels.
// depth is clamped to [1, MaxGenealogyDepth].
func (c *Census) Genealogy(ctx context.Context, memberID uint, depth int) (*Node, error) {
	depth = max(1, min(depth, MaxGenealogyDepth))
	db := c.db.WithContext(ctx)

	var m models.Member
	if err := db.Select("id", "username", "status", "rank_no", "position", "left_id", "right_id").
		Take(&m, memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.CodeMemberNotFound, fmt.Sprintf("member %d not found", memberID), err)
		}
		return nil, fmt.Errorf("load member %d: %w", memberID, err)
	}

	root := toNode(&m)
	level := []*Node{root}
	for d := 0; d < depth && len(level) > 0; d++ {
		var ids []uint
		for _, n := range level {
			if n.leftID != nil {
				ids = append(ids, *n.leftID)
			}
			if n.rightID != nil {
				ids = append(ids, *n.rightID)
			}
		}
		if len(ids) == 0 {
			break
		}

		var rows []models.Member
		if err := db.Select("id", "username", "status", "rank_no", "position", "left_id", "right_id").
			Where("id IN ?", ids).
			Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("genealogy level %d: %w", d+1, err)
		}
		byID := make(map[uint]*Node, len(rows))
		for i := range rows {
			byID[rows[i].ID] = toNode(&rows[i])
		}

		var next []*Node
		for _, n := range level {
			if n.leftID != nil {
				if child, ok := byID[*n.leftID]; ok {
					n.Left = child
					next = append(next, child)
				}
			}
			if n.rightID != nil {
				if child, ok := byID[*n.rightID]; ok {
					n.Right = child
					next = append(next, child)
				}
			}
		}
		level = next
	}
	return root, nil
}

func toNode(m *models.Member) *Node {
	return &Node{
		ID:       m.ID,
		Username: m.Username,
		Status:   m.Status,
		RankNo:   m.RankNo,
		Position: m.Position,
		leftID:   m.LeftID,
		rightID:  m.RightID,
	}
}
