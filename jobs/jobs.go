// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"log"

	"binarymlm-go/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

type Scheduler struct {
	cron *cron.Cron
	db   *gorm.DB
}

// NewScheduler registers the daily income reset on schedule, a standard
// five-field cron expression.
func NewScheduler(db *gorm.DB, schedule string) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		db:   db,
	}
	if _, err := s.cron.AddFunc(schedule, s.resetTodayIncome); err != nil {
		return nil, fmt.Errorf("schedule daily reset %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("[jobs] scheduler started with %d job(s)", len(s.cron.Entries()))
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) resetTodayIncome() {
	n, err := ResetTodayIncome(context.Background(), s.db)
	if err != nil {
		log.Printf("[jobs] daily income reset failed: %v", err)
		return
	}
	log.Printf("[jobs] daily income reset for %d member(s)", n)
}

// ResetTodayIncome zeroes today_income for every member and returns how
// many rows changed.
func ResetTodayIncome(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).Model(&models.Member{}).
		Where("today_income <> 0").
		Update("today_income", 0)
	if res.Error != nil {
		return 0, fmt.Errorf("reset today income: %w", res.Error)
	}
	return res.RowsAffected, nil
}
