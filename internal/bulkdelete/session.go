// Package bulkdelete はPingOne環境のユーザー一括削除を提供する。
// 一覧の最初のページ取得、次ページリンクの追従、ユーザー単位の削除と
// 401時のトークン再取得を、単一goroutineで逐次に行う。
package bulkdelete

import (
	"context"
	"log/slog"

	"github.com/hitoshi/pingone-tools/internal/metrics"
	"github.com/hitoshi/pingone-tools/internal/model"
)

// TokenRefresher は401を受けたときにクレデンシャルを再取得する。
type TokenRefresher interface {
	Refresh(ctx context.Context) error
}

// Session は1回の一括削除で共有する状態。
// Runner、Walker、Executorに明示的に渡す。
type Session struct {
	Tokens  TokenRefresher
	Console *Console
	Metrics metrics.Recorder
	Logger  *slog.Logger
	Summary *model.Summary
}

// refreshToken はトークンを再取得し、回数を記録する。
// 失敗はAuthErrorとして呼び出し元に返り、実行全体が終了する。
func (s *Session) refreshToken(ctx context.Context) error {
	s.Console.Verbosef("Refreshing token...")
	s.Summary.TokenRefreshes++
	s.Metrics.RecordTokenRefresh()

	if err := s.Tokens.Refresh(ctx); err != nil {
		s.Console.Error("Error requesting access token", err)
		return err
	}
	return nil
}
