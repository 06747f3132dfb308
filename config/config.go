package config

import (
	"fmt"
	"log"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

type Config struct {
	DatabaseURL   string `env:"DATABASE_URL" envDefault:"binarymlm.db"`
	JWTSecret     string `env:"JWT_SECRET" envDefault:"your-secret-key-change-in-production"`
	AdminCode     string `env:"ADMIN_CODE" envDefault:"BINARYMLM_ADMIN_2025"`
	Port          string `env:"PORT" envDefault:"8080"`
	Environment   string `env:"ENVIRONMENT" envDefault:"development"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	// RootUsername names the sentinel member at which settlement walks stop.
	RootUsername string `env:"ROOT_USERNAME" envDefault:"admin"`

	RechargeSharePercent  decimal.Decimal `env:"RECHARGE_SHARE_PERCENT" envDefault:"4"`
	RechargeResalePercent decimal.Decimal `env:"RECHARGE_RESALE_PERCENT" envDefault:"50"`
	RechargeAPIURL        string          `env:"RECHARGE_API_URL" envDefault:"https://mrobotics.in/api/recharge"`
	RechargeAPIToken      string          `env:"RECHARGE_API_TOKEN"`

	DailyResetSchedule string `env:"DAILY_RESET_SCHEDULE" envDefault:"0 0 * * *"`
	SeedReferenceData  bool   `env:"SEED_REFERENCE_DATA" envDefault:"true"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func ValidateConfig(cfg *Config) {
	if len(cfg.JWTSecret) < 32 {
		log.Printf("WARNING: JWT_SECRET should be at least 32 characters for security")
	}
	if cfg.Environment == "production" && cfg.AdminCode == "BINARYMLM_ADMIN_2025" {
		log.Printf("WARNING: Change ADMIN_CODE in production environment")
	}
	if cfg.RootUsername == "" {
		log.Fatalf("ROOT_USERNAME must not be empty")
	}
	hundred := decimal.NewFromInt(100)
	if cfg.RechargeSharePercent.IsNegative() || cfg.RechargeSharePercent.GreaterThan(hundred) {
		log.Fatalf("RECHARGE_SHARE_PERCENT must be between 0 and 100, got %s", cfg.RechargeSharePercent)
	}
	if cfg.RechargeResalePercent.IsNegative() || cfg.RechargeResalePercent.GreaterThan(hundred) {
		log.Fatalf("RECHARGE_RESALE_PERCENT must be between 0 and 100, got %s", cfg.RechargeResalePercent)
	}
}
