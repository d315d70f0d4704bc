package app

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/pingone-tools/internal/auth"
	"github.com/hitoshi/pingone-tools/internal/bulkdelete"
	"github.com/hitoshi/pingone-tools/internal/config"
	"github.com/hitoshi/pingone-tools/internal/logger"
	"github.com/hitoshi/pingone-tools/internal/metrics"
	"github.com/hitoshi/pingone-tools/internal/pingone"
	"github.com/hitoshi/pingone-tools/internal/provision"
	"github.com/hitoshi/pingone-tools/internal/ratelimit"
	"github.com/hitoshi/pingone-tools/internal/security"
)

// runProvision はサンプル環境を作成する。一括削除と異なり、失敗時は終了コード1を返す。
func runProvision(ctx context.Context, env *environment, cfg config.ProvisionConfig) error {
	log := logger.SetupDefault(env.stderr, logger.ParseLevel(cfg.LogLevel)).With(
		slog.String("run_id", uuid.NewString()),
		slog.String("command", "provision"),
		slog.String("organization_id", cfg.OrganizationID),
	)

	reg := prometheus.NewRegistry()
	recorder := metrics.NewCollector(reg)

	httpClient := env.httpClient(cfg.Timeout)
	tokens := auth.NewTokenManager(auth.TokenManagerConfig{
		EnvironmentID:  cfg.EnvironmentID,
		ClientID:       cfg.ClientID,
		ClientSecret:   cfg.ClientSecret,
		SecretInParams: true,
		AuthBaseURL:    cfg.AuthBaseURL,
	}, httpClient, log)

	limiter, err := ratelimit.New(ratelimit.Config{Budget: cfg.RateBudget, Window: cfg.RateWindow})
	if err != nil {
		return usageError(err)
	}
	client := pingone.NewClient(
		pingone.ClientConfig{EnvironmentID: cfg.EnvironmentID, APIBaseURL: cfg.APIBaseURL},
		httpClient, tokens, limiter, recorder, log,
	)

	console := bulkdelete.NewConsole(env.stdout, true, security.NewBodySanitizer())
	p := provision.New(tokens, client, console, log, provision.Options{
		OrganizationID:     cfg.OrganizationID,
		AdminEnvironmentID: cfg.AdminEnvironmentID,
		AdminUserID:        cfg.AdminUserID,
		Users:              cfg.Users,
		Region:             cfg.Region,
	})

	result, err := p.Run(ctx)
	writeMetrics(log, cfg.MetricsFile, reg)
	if err != nil {
		log.Error("provisioning failed",
			slog.String("environment_id", result.Environment.ID),
			slog.String("error", err.Error()),
		)
		return failure(err)
	}

	log.Info("provisioning finished",
		slog.String("environment_id", result.Environment.ID),
		slog.String("population_id", result.Population.ID),
		slog.Int("users", len(result.Users)),
	)
	return nil
}
