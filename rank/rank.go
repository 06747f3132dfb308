// Package rank holds the rank table and the promotion rule.
package rank

import (
	"context"
	"fmt"
	"sort"

	"binarymlm-go/models"

	"gorm.io/gorm"
)

// Table is the rank ladder ordered by rank number.
type Table []models.RankAndReward

func Load(ctx context.Context, db *gorm.DB) (Table, error) {
	var ranks []models.RankAndReward
	if err := db.WithContext(ctx).Order("rank_no ASC").Find(&ranks).Error; err != nil {
		return nil, fmt.Errorf("load ranks: %w", err)
	}
	return NewTable(ranks), nil
}

// NewTable sorts ranks by rank number.
func NewTable(ranks []models.RankAndReward) Table {
	t := make(Table, len(ranks))
	copy(t, ranks)
	sort.Slice(t, func(i, j int) bool { return t[i].RankNo < t[j].RankNo })
	return t
}

// Next returns the lowest rank above the member's current one whose pair
// requirement the member's matching pairs already meet.
func (t Table) Next(m *models.Member) (models.RankAndReward, bool) {
	for _, r := range t {
		if r.RankNo > m.RankNo && r.Pairs <= m.MatchingPairs {
			return r, true
		}
	}
	return models.RankAndReward{}, false
}

// MaybePromote moves m up one qualifying rank and resets its pair counter.
// Ranks never go down.
func (t Table) MaybePromote(m *models.Member) bool {
	next, ok := t.Next(m)
	if !ok {
		return false
	}
	m.RankNo = next.RankNo
	m.MatchingPairs = 0
	return true
}

func (t Table) Lookup(rankNo uint) (models.RankAndReward, bool) {
	for _, r := range t {
		if r.RankNo == rankNo {
			return r, true
		}
	}
	return models.RankAndReward{}, false
}
