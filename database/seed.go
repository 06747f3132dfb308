package database

import (
	"errors"
	"fmt"
	"log"

	"binarymlm-go/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultRanks is the rank ladder seeded into an empty rank_and_rewards table.
var DefaultRanks = []models.RankAndReward{
	{RankNo: 1, RankName: "Silver", Pairs: 5, Royalty: decimal.NewFromInt(500), RewardName: "Smart Watch"},
	{RankNo: 2, RankName: "Gold", Pairs: 10, Royalty: decimal.NewFromInt(1000), RewardName: "Mobile Phone"},
	{RankNo: 3, RankName: "Platinum", Pairs: 25, Royalty: decimal.NewFromInt(2500), RewardName: "Laptop"},
	{RankNo: 4, RankName: "Diamond", Pairs: 50, Royalty: decimal.NewFromInt(5000), RewardName: "Bike"},
	{RankNo: 5, RankName: "Crown", Pairs: 100, Royalty: decimal.NewFromInt(10000), RewardName: "Car Fund"},
}

func defaultPlans() []models.Plan {
	return []models.Plan{
		{
			Name:     "Basic",
			Price:    decimal.NewFromInt(1000),
			Direct:   decimal.NewFromInt(100),
			Matching: decimal.NewFromInt(100),
			Levels: []models.Level{
				{Level: 1, DistributedAmount: decimal.NewFromInt(50), ResalePercentage: decimal.NewFromInt(10)},
				{Level: 2, DistributedAmount: decimal.NewFromInt(25), ResalePercentage: decimal.NewFromInt(5)},
				{Level: 3, DistributedAmount: decimal.NewFromInt(10), ResalePercentage: decimal.NewFromInt(2)},
			},
		},
		{
			Name:     "Premium",
			Price:    decimal.NewFromInt(5000),
			Direct:   decimal.NewFromInt(500),
			Matching: decimal.NewFromInt(400),
			Levels: []models.Level{
				{Level: 1, DistributedAmount: decimal.NewFromInt(250), ResalePercentage: decimal.NewFromInt(10)},
				{Level: 2, DistributedAmount: decimal.NewFromInt(100), ResalePercentage: decimal.NewFromInt(5)},
			},
		},
	}
}

// EnsureReferenceData creates the company wallet row and the root sentinel
// member. With seedDefaults it also fills empty rank and plan tables.
func EnsureReferenceData(db *gorm.DB, rootUsername string, seedDefaults bool) error {
	return db.Transaction(func(tx *gorm.DB) error {
		wallet := models.CompanyWallet{ID: models.CompanyWalletID}
		if err := tx.FirstOrCreate(&wallet, models.CompanyWallet{ID: models.CompanyWalletID}).Error; err != nil {
			return fmt.Errorf("ensure company wallet: %w", err)
		}

		var root models.Member
		err := tx.Where("username = ?", rootUsername).First(&root).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			root = models.Member{Username: rootUsername, Status: models.StatusActive}
			if err := tx.Create(&root).Error; err != nil {
				return fmt.Errorf("create root member: %w", err)
			}
			log.Printf("Created root member %q (id=%d)", rootUsername, root.ID)
		} else if err != nil {
			return fmt.Errorf("load root member: %w", err)
		}

		if !seedDefaults {
			return nil
		}

		var count int64
		if err := tx.Model(&models.RankAndReward{}).Count(&count).Error; err != nil {
			return fmt.Errorf("count ranks: %w", err)
		}
		if count == 0 {
			ranks := append([]models.RankAndReward(nil), DefaultRanks...)
			if err := tx.Create(&ranks).Error; err != nil {
				return fmt.Errorf("seed ranks: %w", err)
			}
		}

		if err := tx.Model(&models.Plan{}).Count(&count).Error; err != nil {
			return fmt.Errorf("count plans: %w", err)
		}
		if count == 0 {
			plans := defaultPlans()
			if err := tx.Create(&plans).Error; err != nil {
				return fmt.Errorf("seed plans: %w", err)
			}
		}
		return nil
	})
}
