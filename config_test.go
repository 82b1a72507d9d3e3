package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if config.Quantity != 1 {
		t.Errorf("Expected Quantity to be 1, got %d", config.Quantity)
	}

	if config.PollIntervalMs != 100 {
		t.Errorf("Expected PollIntervalMs to be 100, got %d", config.PollIntervalMs)
	}

	if config.NavTimeoutMs != 30000 {
		t.Errorf("Expected NavTimeoutMs to be 30000, got %d", config.NavTimeoutMs)
	}

	if config.StartBeforeSaleMinutes != 5 {
		t.Errorf("Expected StartBeforeSaleMinutes to be 5, got %d", config.StartBeforeSaleMinutes)
	}

	if config.PaymentMethod != "BCA" {
		t.Errorf("Expected PaymentMethod to be 'BCA', got '%s'", config.PaymentMethod)
	}

	if config.Headless != false {
		t.Error("Expected Headless to be false")
	}

	if config.KeepOpenMinutes != 5 {
		t.Errorf("Expected KeepOpenMinutes to be 5, got %d", config.KeepOpenMinutes)
	}

	if len(config.QueueMarkers) == 0 {
		t.Error("Expected default queue markers to be set")
	}

	if config.BrowserProfilePath == "" {
		t.Error("Expected BrowserProfilePath to be set")
	}
}

func TestConfigSaveAndLoad(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "tixwar-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	configPath := filepath.Join(tempDir, "test-config.yaml")

	config := DefaultConfig()
	config.EventURL = "https://example.com/event"
	config.Categories = []string{"VIP", "GOLD"}
	config.Quantity = 2
	config.Headless = true
	config.BrowserProfilePath = filepath.Join(tempDir, "profile")
	config.Identity = IdentityConfig{
		Name:  "Budi Santoso",
		Email: "budi@example.com",
		Phone: "081234567890",
	}

	if err := config.Save(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loadedConfig, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loadedConfig.EventURL != config.EventURL {
		t.Errorf("Expected EventURL to be '%s', got '%s'", config.EventURL, loadedConfig.EventURL)
	}

	if len(loadedConfig.Categories) != 2 || loadedConfig.Categories[0] != "VIP" {
		t.Errorf("Expected Categories [VIP GOLD], got %v", loadedConfig.Categories)
	}

	if loadedConfig.Quantity != 2 {
		t.Errorf("Expected Quantity to be 2, got %d", loadedConfig.Quantity)
	}

	if loadedConfig.Headless != true {
		t.Error("Expected Headless to be true")
	}

	if loadedConfig.Identity.Phone != "081234567890" {
		t.Errorf("Expected Phone to round-trip, got '%s'", loadedConfig.Identity.Phone)
	}
}

func TestLoadConfigCreatesDefaultIfMissing(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "tixwar-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	configPath := filepath.Join(tempDir, "new-config.yaml")

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config == nil {
		t.Fatal("LoadConfig returned nil")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created automatically")
	}

	if config.Quantity != 1 {
		t.Errorf("Expected default Quantity to be 1, got %d", config.Quantity)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "tixwar-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	configPath := filepath.Join(tempDir, "invalid-config.yaml")

	invalidYAML := "invalid: yaml: content: [unclosed"
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("Failed to write invalid YAML: %v", err)
	}

	_, err = LoadConfig(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid YAML, got nil")
	}
}

func TestLoadConfigClampsQuantity(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "tixwar-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	configPath := filepath.Join(tempDir, "qty-config.yaml")
	if err := os.WriteFile(configPath, []byte("quantity: 0\nbrowser_profile_path: \"\"\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Quantity != 1 {
		t.Errorf("Expected Quantity to be clamped to 1, got %d", config.Quantity)
	}
}

func TestConfigValidate(t *testing.T) {
	config := DefaultConfig()

	if err := config.Validate(); err == nil {
		t.Error("Expected validation error with no event URL")
	}

	config.EventURL = "https://example.com/event"
	if err := config.Validate(); err == nil {
		t.Error("Expected validation error with no identity")
	}

	config.Identity.Name = "Budi Santoso"
	config.Identity.Email = "budi@example.com"
	if err := config.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}

func TestConfigDurationHelpers(t *testing.T) {
	config := DefaultConfig()

	if config.PollInterval() != 100*time.Millisecond {
		t.Errorf("Expected 100ms poll interval, got %v", config.PollInterval())
	}

	config.PollIntervalMs = 0
	if config.PollInterval() != 100*time.Millisecond {
		t.Errorf("Expected fallback poll interval, got %v", config.PollInterval())
	}

	config.NavTimeoutMs = -1
	if config.NavTimeout() != 30*time.Second {
		t.Errorf("Expected fallback nav timeout, got %v", config.NavTimeout())
	}

	config.SettleDelayMs = 250
	if config.SettleDelay() != 250*time.Millisecond {
		t.Errorf("Expected 250ms settle delay, got %v", config.SettleDelay())
	}
}
