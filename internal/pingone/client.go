// Package pingone はPingOne管理APIのクライアントを提供する。
// 一括削除と環境プロビジョニングに必要なエンドポイントのみを扱う。
package pingone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/pingone-tools/internal/metrics"
	"github.com/hitoshi/pingone-tools/internal/model"
)

const (
	// DefaultAPIBaseURL はPingOne管理APIのベースURL（北米リージョン）。
	DefaultAPIBaseURL = "https://api.pingone.com"

	// userImportContentType はパスワード付きユーザー作成で使うContent-Type。
	userImportContentType = "application/vnd.pingidentity.user.import+json"

	userAgent = "pingone-tools/1.0"
)

// 操作名。メトリクスのラベルとログに使う。
const (
	OpListUsers         = "list_users"
	OpFetchPage         = "fetch_page"
	OpDeleteUser        = "delete_user"
	OpCreateEnvironment = "create_environment"
	OpCreatePopulation  = "create_population"
	OpAssignRole        = "assign_role"
	OpCreateUser        = "create_user"
)

// CredentialSource は現在のアクセストークンを提供する。
type CredentialSource interface {
	AccessToken() string
}

// Waiter は送信前にレート制限の枠を待つ。
type Waiter interface {
	Wait(ctx context.Context) error
}

// ClientConfig はClientの設定。
type ClientConfig struct {
	EnvironmentID string
	// テスト用にオーバーライド可能なURL
	APIBaseURL string
}

// Client はPingOne管理APIのクライアント。
// すべてのリクエストはレート制限を経由し、その時点のクレデンシャルで送信される。
// 401を含む2xx以外の応答は*model.HTTPErrorとして返し、トークンの再取得は呼び出し側が行う。
type Client struct {
	httpClient    *http.Client
	tokens        CredentialSource
	limiter       Waiter
	metrics       metrics.Recorder
	logger        *slog.Logger
	baseURL       string
	environmentID string
}

// NewClient はClientの新しいインスタンスを生成する。
// recorderがnilの場合は独立したレジストリのCollectorを使う。
func NewClient(
	cfg ClientConfig,
	httpClient *http.Client,
	tokens CredentialSource,
	limiter Waiter,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if recorder == nil {
		recorder = metrics.NewCollector(prometheus.NewRegistry())
	}
	if logger == nil {
		logger = slog.Default()
	}
	base := cfg.APIBaseURL
	if base == "" {
		base = DefaultAPIBaseURL
	}

	return &Client{
		httpClient:    httpClient,
		tokens:        tokens,
		limiter:       limiter,
		metrics:       recorder,
		logger:        logger,
		baseURL:       strings.TrimRight(base, "/"),
		environmentID: cfg.EnvironmentID,
	}
}

// BaseURL はAPIのベースURLを返す。
func (c *Client) BaseURL() string {
	return c.baseURL
}

// UsersURL はユーザー一覧のURLを返す。filterが空でなければfilterパラメータを付与する。
func (c *Client) UsersURL(filter string) string {
	u := fmt.Sprintf("%s/v1/environments/%s/users", c.baseURL, c.environmentID)
	if filter != "" {
		u += "?filter=" + strings.ReplaceAll(url.QueryEscape(filter), "+", "%20")
	}
	return u
}

// ListUsers はフィルタに一致するユーザー一覧の最初のページを取得する。
func (c *Client) ListUsers(ctx context.Context, filter string) (model.UserPage, error) {
	return c.getPage(ctx, OpListUsers, c.UsersURL(filter))
}

// FetchPage はレスポンスの_links.next.hrefが指すページを取得する。
func (c *Client) FetchPage(ctx context.Context, href string) (model.UserPage, error) {
	return c.getPage(ctx, OpFetchPage, href)
}

// DeleteUser はユーザーを1件削除する。
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	u := fmt.Sprintf("%s/v1/environments/%s/users/%s", c.baseURL, c.environmentID, url.PathEscape(userID))
	_, err := c.do(ctx, OpDeleteUser, http.MethodDelete, u, "", nil)
	return err
}

// CreateEnvironment は組織内に新しい環境を作成する。
func (c *Client) CreateEnvironment(ctx context.Context, organizationID string, env Environment) (Environment, error) {
	u := fmt.Sprintf("%s/v1/organizations/%s/environments", c.baseURL, organizationID)
	var created Environment
	err := c.postJSON(ctx, OpCreateEnvironment, u, "application/json", env, &created)
	return created, err
}

// CreatePopulation は環境内に母集団を作成する。
func (c *Client) CreatePopulation(ctx context.Context, environmentID string, pop Population) (Population, error) {
	u := fmt.Sprintf("%s/v1/environments/%s/populations", c.baseURL, environmentID)
	var created Population
	err := c.postJSON(ctx, OpCreatePopulation, u, "application/json", pop, &created)
	return created, err
}

// AssignRole はユーザーにロールを割り当てる。
func (c *Client) AssignRole(ctx context.Context, environmentID, userID string, ra RoleAssignment) (RoleAssignment, error) {
	u := fmt.Sprintf("%s/v1/environments/%s/users/%s/roleAssignments", c.baseURL, environmentID, url.PathEscape(userID))
	var created RoleAssignment
	err := c.postJSON(ctx, OpAssignRole, u, "application/json", ra, &created)
	return created, err
}

// CreateUser はパスワード付きでユーザーをインポートする。
func (c *Client) CreateUser(ctx context.Context, environmentID string, user NewUser) (CreatedUser, error) {
	u := fmt.Sprintf("%s/v1/environments/%s/users", c.baseURL, environmentID)
	var created CreatedUser
	err := c.postJSON(ctx, OpCreateUser, u, userImportContentType, user, &created)
	return created, err
}

// getPage はユーザー一覧ページを取得してデコードする。
func (c *Client) getPage(ctx context.Context, op, u string) (model.UserPage, error) {
	body, err := c.do(ctx, op, http.MethodGet, u, "", nil)
	if err != nil {
		return model.UserPage{}, err
	}

	var resp usersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("failed to parse users response",
			slog.String("operation", op),
			slog.String("url", u),
			slog.String("error", err.Error()),
		)
		return model.UserPage{}, fmt.Errorf("failed to parse users response: %w", err)
	}

	page := resp.toPage()
	page.SelfLink = u
	return page, nil
}

// postJSON はpayloadをJSONでPOSTし、レスポンスをoutにデコードする。
func (c *Client) postJSON(ctx context.Context, op, u, contentType string, payload, out interface{}) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", op, err)
	}

	body, err := c.do(ctx, op, http.MethodPost, u, contentType, reqBody)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", op, err)
	}
	return nil
}

// do はレート制限の枠を待ってからリクエストを送信し、レスポンスボディを返す。
// 2xx以外の場合は*model.HTTPErrorを返す。
func (c *Client) do(ctx context.Context, op, method, u, contentType string, reqBody []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait aborted: %w", err)
	}

	var bodyReader io.Reader
	if reqBody != nil {
		bodyReader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.tokens.AccessToken())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.RecordRequestLatency(op, time.Since(start))
	if err != nil {
		c.logger.Error("PingOne API request failed",
			slog.String("operation", op),
			slog.String("method", method),
			slog.String("url", u),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	c.metrics.RecordHTTPStatus(op, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("PingOne API returned error status",
			slog.String("operation", op),
			slog.String("method", method),
			slog.String("url", u),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, &model.HTTPError{
			StatusCode:   resp.StatusCode,
			Method:       method,
			URL:          u,
			RequestBody:  string(reqBody),
			ResponseBody: string(body),
		}
	}

	c.logger.Debug("PingOne API request succeeded",
		slog.String("operation", op),
		slog.String("method", method),
		slog.String("url", u),
		slog.Int("http_status", resp.StatusCode),
	)
	return body, nil
}
