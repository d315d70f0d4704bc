package bulkdelete

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/pingone-tools/internal/model"
)

// UserDeleter はユーザーを1件削除する。
type UserDeleter interface {
	DeleteUser(ctx context.Context, userID string) error
}

// Executor はユーザー1件の削除を最大試行回数まで行う。
//   - 2xx: 削除完了
//   - 401: トークンを再取得して次の試行へ（試行回数を1消費する）
//   - その他: エラーを出力して次の試行へ
//
// 最大試行回数に達したユーザーは断念し、呼び出し元にはエラーを返さない。
type Executor struct {
	session     *Session
	deleter     UserDeleter
	maxAttempts int
}

// NewExecutor はExecutorを生成する。maxAttemptsが0以下の場合はDefaultMaxAttemptsを使う。
func NewExecutor(session *Session, deleter UserDeleter, maxAttempts int) *Executor {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Executor{
		session:     session,
		deleter:     deleter,
		maxAttempts: maxAttempts,
	}
}

// Delete はユーザーを削除する。
// エラーを返すのはトークン再取得に失敗した場合（致命的なAuthError）と
// コンテキストがキャンセルされた場合のみ。
func (e *Executor) Delete(ctx context.Context, user model.UserRecord) (model.DeleteOutcome, error) {
	s := e.session

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		err := e.deleter.DeleteUser(ctx, user.ID)

		switch ClassifyError(err) {
		case AttemptOK:
			s.Console.Verbosef("Deleting %s (%s)", user.Username, user.ID)
			s.Logger.Info("user deleted",
				slog.String("user_id", user.ID),
				slog.String("username", user.Username),
				slog.Int("attempt", attempt),
			)
			s.Summary.Record(model.OutcomeDeleted)
			s.Metrics.RecordUserDeleted()
			return model.OutcomeDeleted, nil

		case AttemptRefreshToken:
			if err := s.refreshToken(ctx); err != nil {
				return model.OutcomeAbandoned, err
			}

		case AttemptRetry:
			delErr := model.NewDeleteError(user.ID, attempt, err)
			s.Console.Error(fmt.Sprintf("Error deleting user %s", user.ID), err)
			s.Logger.Warn("user deletion failed",
				slog.String("user_id", user.ID),
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", e.maxAttempts),
				slog.String("error", delErr.Error()),
			)
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.OutcomeAbandoned, ctxErr
		}

		if attempt < e.maxAttempts {
			s.Console.Verbosef("Retrying... attempt %d/%d", attempt, e.maxAttempts)
		}
	}

	s.Logger.Warn("user deletion abandoned",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
		slog.Int("attempts", e.maxAttempts),
	)
	s.Summary.Record(model.OutcomeAbandoned)
	s.Metrics.RecordUserAbandoned()
	return model.OutcomeAbandoned, nil
}
