package rank_test

import (
	"context"
	"testing"

	"binarymlm-go/database"
	"binarymlm-go/database/dbtest"
	"binarymlm-go/models"
	"binarymlm-go/rank"
)

func table() rank.Table {
	return rank.NewTable([]models.RankAndReward{
		{RankNo: 3, RankName: "Platinum", Pairs: 25},
		{RankNo: 1, RankName: "Silver", Pairs: 5},
		{RankNo: 2, RankName: "Gold", Pairs: 10},
	})
}

func TestMaybePromote(t *testing.T) {
	tests := []struct {
		name        string
		rankNo      uint
		pairs       uint
		expectRank  uint
		expectPairs uint
		promoted    bool
	}{
		{"below first threshold", 0, 4, 0, 4, false},
		{"reaches first rank", 0, 5, 1, 0, true},
		{"skips nothing, takes lowest qualifying", 0, 30, 1, 0, true},
		{"next rank from silver", 1, 10, 2, 0, true},
		{"silver without enough pairs stays", 1, 4, 1, 4, false},
		{"top rank stays", 3, 100, 3, 100, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &models.Member{RankNo: tt.rankNo, MatchingPairs: tt.pairs}
			got := table().MaybePromote(m)
			if got != tt.promoted {
				t.Fatalf("expected promoted=%v, got %v", tt.promoted, got)
			}
			if m.RankNo != tt.expectRank || m.MatchingPairs != tt.expectPairs {
				t.Fatalf("expected rank %d pairs %d, got rank %d pairs %d",
					tt.expectRank, tt.expectPairs, m.RankNo, m.MatchingPairs)
			}
		})
	}
}

func TestRankNeverDecreases(t *testing.T) {
	tbl := table()
	m := &models.Member{}
	last := m.RankNo
	for i := 0; i < 200; i++ {
		m.MatchingPairs++
		tbl.MaybePromote(m)
		if m.RankNo < last {
			t.Fatalf("rank went down from %d to %d at step %d", last, m.RankNo, i)
		}
		last = m.RankNo
	}
	if m.RankNo != 3 {
		t.Fatalf("expected top rank after 200 pairs, got %d", m.RankNo)
	}
}

func TestLoadSeededRanks(t *testing.T) {
	db := dbtest.OpenSeeded(t)
	ranks := append([]models.RankAndReward(nil), database.DefaultRanks...)
	if err := db.Create(&ranks).Error; err != nil {
		t.Fatalf("seed ranks: %v", err)
	}

	tbl, err := rank.Load(context.Background(), db)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tbl) != len(database.DefaultRanks) {
		t.Fatalf("expected %d ranks, got %d", len(database.DefaultRanks), len(tbl))
	}
	for i := 1; i < len(tbl); i++ {
		if tbl[i-1].RankNo >= tbl[i].RankNo {
			t.Fatalf("ranks not ordered: %d before %d", tbl[i-1].RankNo, tbl[i].RankNo)
		}
	}
	if r, ok := tbl.Lookup(1); !ok || r.RankName != "Silver" {
		t.Fatalf("expected rank 1 Silver, got %+v", r)
	}
}
