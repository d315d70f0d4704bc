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
	"github.com/hitoshi/pingone-tools/internal/model"
	"github.com/hitoshi/pingone-tools/internal/pingone"
	"github.com/hitoshi/pingone-tools/internal/ratelimit"
	"github.com/hitoshi/pingone-tools/internal/security"
)

// runBulkDelete は一括削除の依存関係をワイヤリングして実行する。
// 実行時の失敗（認証エラーを含む）はコンソールとログに出力するだけで、
// 終了コードは常に0とする。
func runBulkDelete(ctx context.Context, env *environment, cfg config.BulkDeleteConfig) error {
	// 1. ログの初期化
	log := logger.SetupDefault(env.stderr, logger.ParseLevel(cfg.LogLevel)).With(
		slog.String("run_id", uuid.NewString()),
		slog.String("command", "bulk-delete"),
		slog.String("environment_id", cfg.EnvironmentID),
	)

	// 2. メトリクス
	reg := prometheus.NewRegistry()
	recorder := metrics.NewCollector(reg)

	// 3. HTTPクライアントとトークン管理
	httpClient := env.httpClient(cfg.Timeout)
	tokens := auth.NewTokenManager(auth.TokenManagerConfig{
		EnvironmentID: cfg.EnvironmentID,
		ClientID:      cfg.ClientID,
		ClientSecret:  cfg.ClientSecret,
		Scopes:        auth.DeleteUserScopes,
		AuthBaseURL:   cfg.AuthBaseURL,
	}, httpClient, log)

	// 4. レート制限とAPIクライアント
	limiter, err := ratelimit.New(ratelimit.Config{Budget: cfg.RateBudget, Window: cfg.RateWindow})
	if err != nil {
		return usageError(err)
	}
	client := pingone.NewClient(
		pingone.ClientConfig{EnvironmentID: cfg.EnvironmentID, APIBaseURL: cfg.APIBaseURL},
		httpClient, tokens, limiter, recorder, log,
	)
	guard, err := security.NewLinkGuard(client.BaseURL())
	if err != nil {
		return usageError(err)
	}

	// 5. 一括削除の組み立て
	session := &bulkdelete.Session{
		Tokens:  tokens,
		Console: bulkdelete.NewConsole(env.stdout, !cfg.Quiet, security.NewBodySanitizer()),
		Metrics: recorder,
		Logger:  log,
		Summary: &model.Summary{},
	}
	executor := bulkdelete.NewExecutor(session, client, cfg.MaxAttempts)
	walker := bulkdelete.NewWalker(session, client, guard, executor, model.NewSkipSet(cfg.Skip))
	runner := bulkdelete.NewRunner(session, tokens, client, walker, bulkdelete.Options{
		EnvironmentID: cfg.EnvironmentID,
		PopulationID:  cfg.PopulationID,
		Clauses:       cfg.Query,
		MaxAttempts:   cfg.MaxAttempts,
	})

	// 6. 実行
	if _, err := runner.Run(ctx); err != nil {
		log.Error("bulk delete aborted", slog.String("error", err.Error()))
	}

	writeMetrics(log, cfg.MetricsFile, reg)
	return nil
}

// writeMetrics はメトリクスファイルが指定されていれば書き出す。失敗はログに残すだけ。
func writeMetrics(log *slog.Logger, path string, gatherer prometheus.Gatherer) {
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path, gatherer); err != nil {
		log.Error("failed to write metrics", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	log.Info("metrics written", slog.String("path", path))
}
