package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8089" {
		t.Errorf("expected default port 8089, got %s", cfg.Port)
	}
	if cfg.Engine.Workers != 4 {
		t.Errorf("expected default workers 4, got %d", cfg.Engine.Workers)
	}
	if cfg.Advisory.Timeout != 45*time.Second {
		t.Errorf("expected default advisory timeout 45s, got %v", cfg.Advisory.Timeout)
	}
	if cfg.Schedule.Timezone != "Asia/Shanghai" {
		t.Errorf("expected default timezone Asia/Shanghai, got %s", cfg.Schedule.Timezone)
	}
}

func TestLoadFundList(t *testing.T) {
	os.Clearenv()
	os.Setenv("ENV", "development")
	os.Setenv("FUND_LIST", `[
		{"code":"002963","name":"Gold ETF Feeder","type":"ETF_Feeder","asset_class":"GOLD_ETF"},
		{"code":"003376","name":"Pure Bond A","type":"Bond","asset_class":"BOND_PURE"}
	]`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Funds) != 2 {
		t.Fatalf("expected 2 funds, got %d", len(cfg.Funds))
	}
	if cfg.Funds[0].AssetClass != "GOLD_ETF" {
		t.Errorf("expected GOLD_ETF, got %s", cfg.Funds[0].AssetClass)
	}
	if cfg.Funds[1].Type != "Bond" {
		t.Errorf("expected Bond, got %s", cfg.Funds[1].Type)
	}
}

func TestLoadRejectsBadFundType(t *testing.T) {
	os.Clearenv()
	os.Setenv("ENV", "development")
	os.Setenv("FUND_LIST", `[{"code":"000001","name":"X","type":"Equity"}]`)

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for unknown fund type")
	}
}

func TestLoadRejectsBadEnv(t *testing.T) {
	os.Clearenv()
	os.Setenv("ENV", "qa")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for unknown ENV")
	}
}
