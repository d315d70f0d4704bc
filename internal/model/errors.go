package model

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError はPingOne APIが2xx以外を返したことを表す。
// コンソールへのエラー出力に必要なリクエスト・レスポンスの情報を保持する。
type HTTPError struct {
	StatusCode   int
	Method       string
	URL          string
	RequestBody  string // ボディなしのリクエストでは空
	ResponseBody string
}

// Error はerrorインターフェースを実装する。
func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s returned status %d", e.Method, e.URL, e.StatusCode)
}

// IsUnauthorized はステータスが401かを返す。
func (e *HTTPError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// 定義済みエラーコード
const (
	ErrCodeAuthFailed      = "AUTH_FAILED"
	ErrCodePageFetchFailed = "PAGE_FETCH_FAILED"
	ErrCodeDeleteFailed    = "DELETE_FAILED"
)

// AuthError はトークンエンドポイントがクライアント資格情報を拒否したことを表す。
// 実行を継続できない致命的なエラーとして扱う。
type AuthError struct {
	Code string
	Err  error
}

// Error はerrorインターフェースを実装する。
func (e *AuthError) Error() string {
	return fmt.Sprintf("[%s] access token request failed: %v", e.Code, e.Err)
}

// Unwrap は元のエラーを返す。
func (e *AuthError) Unwrap() error { return e.Err }

// PageFetchError はユーザー一覧ページの取得失敗を表す。
// ログ出力のみ行い、走査はその時点で停止する。
type PageFetchError struct {
	Code string
	Link string
	Err  error
}

// Error はerrorインターフェースを実装する。
func (e *PageFetchError) Error() string {
	return fmt.Sprintf("[%s] fetching %s: %v", e.Code, e.Link, e.Err)
}

// Unwrap は元のエラーを返す。
func (e *PageFetchError) Unwrap() error { return e.Err }

// DeleteError はユーザー1件の削除失敗（401以外）を表す。
type DeleteError struct {
	Code    string
	UserID  string
	Attempt int
	Err     error
}

// Error はerrorインターフェースを実装する。
func (e *DeleteError) Error() string {
	return fmt.Sprintf("[%s] deleting user %s (attempt %d): %v", e.Code, e.UserID, e.Attempt, e.Err)
}

// Unwrap は元のエラーを返す。
func (e *DeleteError) Unwrap() error { return e.Err }

// NewAuthError はトークン取得失敗エラーを生成する。
func NewAuthError(err error) *AuthError {
	return &AuthError{Code: ErrCodeAuthFailed, Err: err}
}

// NewPageFetchError はページ取得失敗エラーを生成する。
func NewPageFetchError(link string, err error) *PageFetchError {
	return &PageFetchError{Code: ErrCodePageFetchFailed, Link: link, Err: err}
}

// NewDeleteError は削除失敗エラーを生成する。
func NewDeleteError(userID string, attempt int, err error) *DeleteError {
	return &DeleteError{Code: ErrCodeDeleteFailed, UserID: userID, Attempt: attempt, Err: err}
}

// AsHTTPError はエラーチェーンからHTTPErrorを取り出す。
func AsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// IsUnauthorized はエラーチェーンに401のHTTPErrorが含まれるかを返す。
func IsUnauthorized(err error) bool {
	httpErr, ok := AsHTTPError(err)
	return ok && httpErr.IsUnauthorized()
}
