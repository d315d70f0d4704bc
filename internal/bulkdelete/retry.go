package bulkdelete

import "github.com/hitoshi/pingone-tools/internal/model"

// AttemptResult はAPI呼び出し1回分の結果の分類。
type AttemptResult int

const (
	// AttemptOK は成功（2xx）。
	AttemptOK AttemptResult = iota
	// AttemptRefreshToken はトークン期限切れ（401）。トークンを再取得して再試行する。
	AttemptRefreshToken
	// AttemptRetry はその他の失敗（401以外の2xx以外、通信エラー）。
	AttemptRetry
)

// DefaultMaxAttempts は1件あたりの最大試行回数。
const DefaultMaxAttempts = 3

// ClassifyError はAPIクライアントが返したエラーを試行結果に分類する。
func ClassifyError(err error) AttemptResult {
	switch {
	case err == nil:
		return AttemptOK
	case model.IsUnauthorized(err):
		return AttemptRefreshToken
	default:
		return AttemptRetry
	}
}
