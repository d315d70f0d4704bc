// Package auth はPingOneのクライアントクレデンシャルによるトークン取得を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/hitoshi/pingone-tools/internal/model"
)

const (
	// DefaultAuthBaseURL はPingOne認可サーバーのベースURL（北米リージョン）。
	DefaultAuthBaseURL = "https://auth.pingone.com"
)

// DeleteUserScopes はユーザー一括削除に必要なスコープ。
var DeleteUserScopes = []string{"p1:read:env:user", "p1:delete:env:user"}

// TokenManagerConfig はTokenManagerの設定。
type TokenManagerConfig struct {
	EnvironmentID string
	ClientID      string
	ClientSecret  string
	Scopes        []string

	// SecretInParams がtrueの場合はclient_secret_post、falseの場合はBasic認証で送る。
	SecretInParams bool

	// テスト用にオーバーライド可能なURL
	AuthBaseURL string
}

// TokenURL はトークンエンドポイントのURLを返す。
func (c TokenManagerConfig) TokenURL() string {
	base := c.AuthBaseURL
	if base == "" {
		base = DefaultAuthBaseURL
	}
	return strings.TrimRight(base, "/") + "/" + c.EnvironmentID + "/as/token"
}

// TokenManager はBearerクレデンシャルを取得・保持する。
// 有効期限は追跡せず、API呼び出しが401を返したときにだけ呼び出し側がRefreshする。
type TokenManager struct {
	config     clientcredentials.Config
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time

	mu         sync.RWMutex
	credential model.Credential
}

// NewTokenManager はTokenManagerを生成する。
// httpClientがnilの場合はhttp.DefaultClientを使用する。
func NewTokenManager(cfg TokenManagerConfig, httpClient *http.Client, logger *slog.Logger) *TokenManager {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}

	style := oauth2.AuthStyleInHeader
	if cfg.SecretInParams {
		style = oauth2.AuthStyleInParams
	}

	return &TokenManager{
		config: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL(),
			Scopes:       cfg.Scopes,
			AuthStyle:    style,
		},
		httpClient: httpClient,
		logger:     logger,
		now:        time.Now,
	}
}

// Acquire はクライアントクレデンシャルグラントでアクセストークンを取得する。
// トークンエンドポイントが2xx以外を返した場合は*model.AuthErrorを返す。リトライはしない。
func (m *TokenManager) Acquire(ctx context.Context) (model.Credential, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)

	tok, err := m.config.Token(ctx)
	if err != nil {
		authErr := model.NewAuthError(m.toHTTPError(err))
		m.logger.Error("access token request failed",
			slog.String("token_url", m.config.TokenURL),
			slog.String("error", err.Error()),
		)
		return model.Credential{}, authErr
	}

	cred := model.Credential{
		AccessToken: tok.AccessToken,
		ObtainedAt:  m.now(),
	}

	m.mu.Lock()
	m.credential = cred
	m.mu.Unlock()

	m.logger.Debug("access token acquired",
		slog.Time("obtained_at", cred.ObtainedAt),
	)
	return cred, nil
}

// Refresh は現在のクレデンシャルを新しいものに丸ごと置き換える。
// 401を受け取った呼び出し側から使われる。
func (m *TokenManager) Refresh(ctx context.Context) error {
	m.logger.Info("refreshing access token")
	if _, err := m.Acquire(ctx); err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}
	return nil
}

// Current は現在保持しているクレデンシャルを返す。
func (m *TokenManager) Current() model.Credential {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.credential
}

// AccessToken は現在のアクセストークン文字列を返す。
func (m *TokenManager) AccessToken() string {
	return m.Current().AccessToken
}

// toHTTPError はoauth2のエラーをコンソール出力用のHTTPErrorに変換する。
// HTTPレスポンスを伴わないエラー（接続失敗など）はそのまま返す。
func (m *TokenManager) toHTTPError(err error) error {
	var rErr *oauth2.RetrieveError
	if !errors.As(err, &rErr) || rErr.Response == nil {
		return err
	}

	return &model.HTTPError{
		StatusCode:   rErr.Response.StatusCode,
		Method:       http.MethodPost,
		URL:          m.config.TokenURL,
		ResponseBody: string(rErr.Body),
	}
}
