package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const (
	testEnvID   = "4f1e3a2b-7c6d-4e5f-8a9b-0c1d2e3f4a5b"
	testOrgID   = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
	testAdminID = "11111111-2222-4333-8444-555555555555"
)

func validBulkDelete() BulkDeleteConfig {
	cfg := DefaultBulkDelete()
	cfg.EnvironmentID = testEnvID
	cfg.ClientID = "client-id"
	cfg.ClientSecret = "client-secret"
	return cfg
}

func validProvision() ProvisionConfig {
	cfg := DefaultProvision()
	cfg.OrganizationID = testOrgID
	cfg.EnvironmentID = testEnvID
	cfg.ClientID = "client-id"
	cfg.ClientSecret = "client-secret"
	return cfg
}

func TestDefaultBulkDelete_DefaultValues(t *testing.T) {
	cfg := DefaultBulkDelete()

	if cfg.APIBaseURL != "https://api.pingone.com" {
		t.Errorf("APIBaseURL = %q, want %q", cfg.APIBaseURL, "https://api.pingone.com")
	}
	if cfg.AuthBaseURL != "https://auth.pingone.com" {
		t.Errorf("AuthBaseURL = %q, want %q", cfg.AuthBaseURL, "https://auth.pingone.com")
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, 30*time.Second)
	}
	if cfg.RateBudget != 95 {
		t.Errorf("RateBudget = %d, want %d", cfg.RateBudget, 95)
	}
	if cfg.RateWindow != time.Second {
		t.Errorf("RateWindow = %v, want %v", cfg.RateWindow, time.Second)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want %d", cfg.MaxAttempts, 3)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestBulkDeleteConfig_Validate_AllRequiredSet(t *testing.T) {
	cfg := validBulkDelete()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestBulkDeleteConfig_Validate_ZeroTimeoutAllowed(t *testing.T) {
	cfg := validBulkDelete()
	cfg.Timeout = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("タイムアウト0（無効）は許可されるべき: %v", err)
	}
}

func TestBulkDeleteConfig_Validate_MissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		clear func(*BulkDeleteConfig)
		flag  string
	}{
		{"environment", func(c *BulkDeleteConfig) { c.EnvironmentID = "" }, "--environment"},
		{"client", func(c *BulkDeleteConfig) { c.ClientID = "" }, "--client"},
		{"secret", func(c *BulkDeleteConfig) { c.ClientSecret = "" }, "--secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBulkDelete()
			tt.clear(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error for missing %s, got nil", tt.flag)
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("ErrInvalid をラップするべき: %v", err)
			}
			if !strings.Contains(err.Error(), tt.flag) {
				t.Errorf("エラーに %s が含まれるべき: %v", tt.flag, err)
			}
		})
	}
}

func TestBulkDeleteConfig_Validate_ReportsAllMissing(t *testing.T) {
	cfg := DefaultBulkDelete()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	for _, flag := range []string{"--environment", "--client", "--secret"} {
		if !strings.Contains(err.Error(), flag) {
			t.Errorf("エラーに %s が含まれるべき: %v", flag, err)
		}
	}
}

func TestBulkDeleteConfig_Validate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*BulkDeleteConfig)
	}{
		{"environment is not a UUID", func(c *BulkDeleteConfig) { c.EnvironmentID = "not-a-uuid" }},
		{"relative api url", func(c *BulkDeleteConfig) { c.APIBaseURL = "/v1" }},
		{"relative auth url", func(c *BulkDeleteConfig) { c.AuthBaseURL = "auth.pingone.com" }},
		{"negative timeout", func(c *BulkDeleteConfig) { c.Timeout = -time.Second }},
		{"zero rate budget", func(c *BulkDeleteConfig) { c.RateBudget = 0 }},
		{"zero max attempts", func(c *BulkDeleteConfig) { c.MaxAttempts = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBulkDelete()
			tt.modify(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("ErrInvalid をラップするべき: %v", err)
			}
		})
	}
}

func TestDefaultProvision_DefaultValues(t *testing.T) {
	cfg := DefaultProvision()

	if cfg.Users != 10 {
		t.Errorf("Users = %d, want %d", cfg.Users, 10)
	}
	if cfg.Region != "NA" {
		t.Errorf("Region = %q, want %q", cfg.Region, "NA")
	}
	if cfg.AssignsAdminRole() {
		t.Error("管理者未指定ではロールを割り当てないべき")
	}
}

func TestProvisionConfig_Validate_AllRequiredSet(t *testing.T) {
	cfg := validProvision()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	cfg.AdminEnvironmentID = testEnvID
	cfg.AdminUserID = testAdminID
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error with admin user, got %v", err)
	}
	if !cfg.AssignsAdminRole() {
		t.Error("管理者指定時はロールを割り当てるべき")
	}
}

func TestProvisionConfig_Validate_MissingOrganization(t *testing.T) {
	cfg := validProvision()
	cfg.OrganizationID = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing --organization, got nil")
	}
	if !strings.Contains(err.Error(), "--organization") {
		t.Errorf("エラーに --organization が含まれるべき: %v", err)
	}
}

func TestProvisionConfig_Validate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ProvisionConfig)
	}{
		{"admin user without admin environment", func(c *ProvisionConfig) { c.AdminUserID = testAdminID }},
		{"admin user is not a UUID", func(c *ProvisionConfig) {
			c.AdminEnvironmentID = testEnvID
			c.AdminUserID = "admin"
		}},
		{"negative users", func(c *ProvisionConfig) { c.Users = -1 }},
		{"unknown region", func(c *ProvisionConfig) { c.Region = "MARS" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validProvision()
			tt.modify(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("ErrInvalid をラップするべき: %v", err)
			}
		})
	}
}

func TestProvisionConfig_Validate_RegionCaseInsensitive(t *testing.T) {
	cfg := validProvision()
	cfg.Region = "eu"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
