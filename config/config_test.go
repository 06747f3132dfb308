package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RootUsername != "admin" {
		t.Fatalf("expected root username admin, got %q", cfg.RootUsername)
	}
	if cfg.RechargeSharePercent.String() != "4" {
		t.Fatalf("expected share percent 4, got %s", cfg.RechargeSharePercent)
	}
	if cfg.RechargeResalePercent.String() != "50" {
		t.Fatalf("expected resale percent 50, got %s", cfg.RechargeResalePercent)
	}
	if !cfg.SeedReferenceData {
		t.Fatal("expected reference data seeding to default on")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ROOT_USERNAME", "company")
	t.Setenv("RECHARGE_SHARE_PERCENT", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RootUsername != "company" {
		t.Fatalf("expected root username company, got %q", cfg.RootUsername)
	}
	if cfg.RechargeSharePercent.String() != "2.5" {
		t.Fatalf("expected share percent 2.5, got %s", cfg.RechargeSharePercent)
	}
}

func TestLoadError(t *testing.T) {
	t.Setenv("SEED_REFERENCE_DATA", "not-a-bool")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
