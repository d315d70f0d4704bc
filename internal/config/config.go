package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalid は設定が不正であることを表す。CLIは使用方法エラーとして扱う。
var ErrInvalid = errors.New("invalid configuration")

// デフォルト値
const (
	DefaultAPIBaseURL  = "https://api.pingone.com"
	DefaultAuthBaseURL = "https://auth.pingone.com"
	DefaultTimeout     = 30 * time.Second
	DefaultRateBudget  = 95
	DefaultRateWindow  = time.Second
	DefaultMaxAttempts = 3
	DefaultLogLevel    = "info"
	DefaultUserCount   = 10
	DefaultRegion      = "NA"
)

// Regions はPingOneが受け付ける環境のリージョン。
var Regions = []string{"NA", "EU", "AP", "CA"}

// Common は両方のコマンドで共通の設定。
type Common struct {
	APIBaseURL  string
	AuthBaseURL string
	Timeout     time.Duration // 0で無効
	RateBudget  int
	RateWindow  time.Duration
	MetricsFile string
	LogLevel    string
}

// DefaultCommon はデフォルト値のCommonを返す。
func DefaultCommon() Common {
	return Common{
		APIBaseURL:  DefaultAPIBaseURL,
		AuthBaseURL: DefaultAuthBaseURL,
		Timeout:     DefaultTimeout,
		RateBudget:  DefaultRateBudget,
		RateWindow:  DefaultRateWindow,
		LogLevel:    DefaultLogLevel,
	}
}

// BulkDeleteConfig は一括削除の設定を保持する。
// CLIフラグから起動時に1回組み立て、Validate後はイミュータブルとして扱う。
type BulkDeleteConfig struct {
	Common

	// Required
	EnvironmentID string
	ClientID      string
	ClientSecret  string

	// Target
	PopulationID string
	Query        []string
	Skip         []string

	// Output
	Quiet bool

	MaxAttempts int
}

// DefaultBulkDelete はデフォルト値のBulkDeleteConfigを返す。
func DefaultBulkDelete() BulkDeleteConfig {
	return BulkDeleteConfig{
		Common:      DefaultCommon(),
		MaxAttempts: DefaultMaxAttempts,
	}
}

// Validate は設定を検証する。
// 未指定の必須フラグはまとめて1つのエラーとして返す。
func (c *BulkDeleteConfig) Validate() error {
	var missing []string
	if c.EnvironmentID == "" {
		missing = append(missing, "--environment")
	}
	if c.ClientID == "" {
		missing = append(missing, "--client")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "--secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: required flags are not set: %v", ErrInvalid, missing)
	}

	var problems []string
	if err := validateUUID("--environment", c.EnvironmentID); err != nil {
		problems = append(problems, err.Error())
	}
	if c.MaxAttempts <= 0 {
		problems = append(problems, "max attempts must be positive")
	}
	problems = append(problems, c.Common.validate()...)

	return joinProblems(problems)
}

// ProvisionConfig はサンプル環境のプロビジョニング設定を保持する。
type ProvisionConfig struct {
	Common

	// Required
	OrganizationID string
	EnvironmentID  string
	ClientID       string
	ClientSecret   string

	// 作成した環境を閲覧する管理者。未指定ならロール割り当てをしない。
	AdminEnvironmentID string
	AdminUserID        string

	Users  int
	Region string
}

// DefaultProvision はデフォルト値のProvisionConfigを返す。
func DefaultProvision() ProvisionConfig {
	return ProvisionConfig{
		Common: DefaultCommon(),
		Users:  DefaultUserCount,
		Region: DefaultRegion,
	}
}

// Validate は設定を検証する。
func (c *ProvisionConfig) Validate() error {
	var missing []string
	if c.OrganizationID == "" {
		missing = append(missing, "--organization")
	}
	if c.EnvironmentID == "" {
		missing = append(missing, "--environment")
	}
	if c.ClientID == "" {
		missing = append(missing, "--client")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "--secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: required flags are not set: %v", ErrInvalid, missing)
	}

	var problems []string
	for _, f := range []struct{ flag, value string }{
		{"--organization", c.OrganizationID},
		{"--environment", c.EnvironmentID},
		{"--admin-environment", c.AdminEnvironmentID},
		{"--admin-user", c.AdminUserID},
	} {
		if f.value == "" {
			continue
		}
		if err := validateUUID(f.flag, f.value); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if c.AdminUserID != "" && c.AdminEnvironmentID == "" {
		problems = append(problems, "--admin-user requires --admin-environment")
	}
	if c.Users < 0 {
		problems = append(problems, "--users must not be negative")
	}
	if !validRegion(c.Region) {
		problems = append(problems, fmt.Sprintf("--region must be one of %v", Regions))
	}
	problems = append(problems, c.Common.validate()...)

	return joinProblems(problems)
}

// AssignsAdminRole は管理者へのロール割り当てを行うかを返す。
func (c *ProvisionConfig) AssignsAdminRole() bool {
	return c.AdminUserID != ""
}

func (c *Common) validate() []string {
	var problems []string
	for _, u := range []struct{ name, value string }{
		{"--api-url", c.APIBaseURL},
		{"--auth-url", c.AuthBaseURL},
	} {
		parsed, err := url.Parse(u.value)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			problems = append(problems, fmt.Sprintf("%s must be an absolute URL: %q", u.name, u.value))
		}
	}
	if c.Timeout < 0 {
		problems = append(problems, "--timeout must not be negative")
	}
	if c.RateBudget <= 0 || c.RateWindow <= 0 {
		problems = append(problems, "rate limit budget and window must be positive")
	}
	return problems
}

func validateUUID(flag, value string) error {
	if _, err := uuid.Parse(value); err != nil {
		return fmt.Errorf("%s must be a UUID: %q", flag, value)
	}
	return nil
}

func validRegion(region string) bool {
	for _, r := range Regions {
		if strings.EqualFold(r, region) {
			return true
		}
	}
	return false
}

func joinProblems(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}
