// Package security はPingOne API呼び出し時のセキュリティ機能を提供する。
package security

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// NewSafeClient はSSRF防止機能付きのHTTPクライアントを生成する。
// safeurlによりhttps/443以外、およびプライベートIP・ループバック・
// リンクローカル・メタデータIPへの接続がDialerレベルでブロックされる。
// timeoutが0の場合はタイムアウトを設定しない。
func NewSafeClient(timeout time.Duration) *http.Client {
	builder := safeurl.GetConfigBuilder().
		SetAllowedSchemes("https").
		SetAllowedPorts(443)
	if timeout > 0 {
		builder = builder.SetTimeout(timeout)
	}

	wrappedClient := safeurl.Client(builder.Build())
	return wrappedClient.Client
}

// LinkGuard はAPIが返す次ページリンクを検証する。
// Bearerトークンを付けて追従するため、APIベースURLと同じスキーム・ホスト・ポート
// 以外への遷移を拒否する。
type LinkGuard struct {
	base *url.URL
}

// NewLinkGuard はAPIベースURLからLinkGuardを生成する。
func NewLinkGuard(apiBaseURL string) (*LinkGuard, error) {
	base, err := url.Parse(apiBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("API base URL must be absolute: %s", apiBaseURL)
	}
	return &LinkGuard{base: base}, nil
}

// Validate はリンクがAPIホスト上を指しているかを検証する。
func (g *LinkGuard) Validate(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if !strings.EqualFold(parsed.Scheme, g.base.Scheme) {
		return fmt.Errorf("disallowed scheme: %s (expected %s)", parsed.Scheme, g.base.Scheme)
	}

	if !strings.EqualFold(parsed.Host, g.base.Host) {
		return fmt.Errorf("link points outside API host: %s (expected %s)", parsed.Host, g.base.Host)
	}

	return nil
}
