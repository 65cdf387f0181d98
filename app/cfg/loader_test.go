package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		Port:              "8080",
		UserAgent:         "Test Agent",
		WorkerCount:       5,
		SchedulerInterval: 300,
		APIAccessKey:      "test-key",
		FetchTimeout:      10,
		MaxRetries:        3,
		ScrollTimeoutMs:   500,
		LoadTimeoutMs:     500,
		DefaultMaxPosts:   50,
		ExtractBatchSize:  20,
		RulesetsDir:       "./rulesets",
		DBHost:            "localhost",
		DBPort:            "5432",
		DBUser:            "test_user",
		DBPassword:        "test_password",
		DBName:            "test_db",
		Timezone:          "UTC",
		Debug:             true,
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.WorkerCount != 5 {
		t.Errorf("Expected worker count 5, got %d", cfg.WorkerCount)
	}
	if cfg.SchedulerInterval != 300 {
		t.Errorf("Expected scheduler interval 300, got %d", cfg.SchedulerInterval)
	}
	if cfg.FetchTimeout != 10 {
		t.Errorf("Expected fetch timeout 10, got %d", cfg.FetchTimeout)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("Expected max retries 3, got %d", cfg.MaxRetries)
	}
	if cfg.ScrollTimeoutMs != 500 {
		t.Errorf("Expected scroll timeout 500, got %d", cfg.ScrollTimeoutMs)
	}
	if cfg.DefaultMaxPosts != 50 {
		t.Errorf("Expected default max posts 50, got %d", cfg.DefaultMaxPosts)
	}
	if cfg.ExtractBatchSize != 20 {
		t.Errorf("Expected extract batch size 20, got %d", cfg.ExtractBatchSize)
	}
	if cfg.BrowserUserAgent != "" {
		t.Errorf("Expected empty browser user agent, got '%s'", cfg.BrowserUserAgent)
	}
	if cfg.RulesetsDir != "./rulesets" {
		t.Errorf("Expected rulesets dir './rulesets', got '%s'", cfg.RulesetsDir)
	}
}

func TestGetPanicsWhenNotLoaded(t *testing.T) {
	prev := globalCfg
	globalCfg = nil
	defer func() {
		globalCfg = prev
		if r := recover(); r == nil {
			t.Error("Expected Get to panic when configuration is not loaded")
		}
	}()
	Get()
}

func TestApplyTimezone(t *testing.T) {
	if err := applyTimezone("UTC"); err != nil {
		t.Errorf("Expected no error for UTC, got: %v", err)
	}
	if err := applyTimezone("Not/AZone"); err == nil {
		t.Error("Expected error for invalid timezone")
	}
}
