package bulkdelete

import (
	"context"
	"log/slog"

	"github.com/hitoshi/pingone-tools/internal/model"
	"github.com/hitoshi/pingone-tools/internal/query"
)

// TokenManager はクレデンシャルの初回取得と再取得を行う。
type TokenManager interface {
	TokenRefresher
	Acquire(ctx context.Context) (model.Credential, error)
}

// UserLister はフィルタに一致するユーザー一覧の最初のページを取得する。
type UserLister interface {
	ListUsers(ctx context.Context, filter string) (model.UserPage, error)
}

// Options は一括削除の対象指定。
type Options struct {
	EnvironmentID string
	PopulationID  string
	Clauses       []string
	MaxAttempts   int
}

// Runner は一括削除全体の流れを制御する。
// トークン取得 → 一覧の初回取得（最大試行回数まで、401ならトークン再取得）→
// Walkerによる走査 → 集計出力 の順に実行する。
type Runner struct {
	session     *Session
	tokens      TokenManager
	lister      UserLister
	walker      *Walker
	environment string
	filter      string
	maxAttempts int
}

// NewRunner はRunnerを生成する。フィルタ式はここで1度だけ組み立てる。
func NewRunner(session *Session, tokens TokenManager, lister UserLister, walker *Walker, opts Options) *Runner {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Runner{
		session:     session,
		tokens:      tokens,
		lister:      lister,
		walker:      walker,
		environment: opts.EnvironmentID,
		filter:      query.Build(opts.PopulationID, opts.Clauses),
		maxAttempts: maxAttempts,
	}
}

// Filter は組み立て済みのフィルタ式を返す。
func (r *Runner) Filter() string {
	return r.filter
}

// Run は一括削除を実行し、集計結果を返す。
// トークンの取得・再取得に失敗した場合は*model.AuthErrorを返し、"Done"は出力しない。
// ページ取得や削除の失敗はコンソールに出力するだけで、エラーとしては返さない。
func (r *Runner) Run(ctx context.Context) (model.Summary, error) {
	s := r.session

	if _, err := r.tokens.Acquire(ctx); err != nil {
		s.Console.Error("Error requesting access token", err)
		return *s.Summary, err
	}

	s.Logger.Info("bulk delete started",
		slog.String("environment_id", r.environment),
		slog.String("filter", r.filter),
	)

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		page, err := r.lister.ListUsers(ctx, r.filter)
		if err == nil {
			s.Summary.Found = page.Count
			s.Summary.PagesFetched++
			s.Metrics.RecordPageFetch(true)

			if r.filter != "" {
				s.Console.Printf("%d user(s) found in environment %s matching %s", page.Count, r.environment, r.filter)
			} else {
				s.Console.Printf("%d user(s) found in environment %s", page.Count, r.environment)
			}

			if err := r.walker.Run(ctx, page); err != nil {
				return *s.Summary, err
			}
			break
		}

		s.Metrics.RecordPageFetch(false)
		switch ClassifyError(err) {
		case AttemptRefreshToken:
			if err := s.refreshToken(ctx); err != nil {
				return *s.Summary, err
			}
		default:
			s.Summary.PageFailures++
			s.Console.Error("Error fetching users", err)
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return *s.Summary, ctxErr
		}

		if attempt < r.maxAttempts {
			s.Console.Verbosef("Retrying... attempt %d/%d", attempt, r.maxAttempts)
		}
	}

	sum := *s.Summary
	s.Logger.Info("bulk delete finished",
		slog.String("environment_id", r.environment),
		slog.Int("found", sum.Found),
		slog.Int("deleted", sum.Deleted),
		slog.Int("skipped", sum.Skipped),
		slog.Int("abandoned", sum.Abandoned),
		slog.Int("pages_fetched", sum.PagesFetched),
		slog.Int("page_failures", sum.PageFailures),
		slog.Int("token_refreshes", sum.TokenRefreshes),
	)
	s.Console.Printf("Deleted %d, skipped %d, abandoned %d", sum.Deleted, sum.Skipped, sum.Abandoned)
	s.Console.Printf("Done")
	return sum, nil
}
