package bulkdelete

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/pingone-tools/internal/metrics"
	"github.com/hitoshi/pingone-tools/internal/model"
)

// fakeTokens はTokenManagerのテスト用実装。
type fakeTokens struct {
	acquireErr error
	refreshErr error
	acquires   int
	refreshes  int
}

func (f *fakeTokens) Acquire(ctx context.Context) (model.Credential, error) {
	f.acquires++
	if f.acquireErr != nil {
		return model.Credential{}, f.acquireErr
	}
	return model.Credential{AccessToken: "token"}, nil
}

func (f *fakeTokens) Refresh(ctx context.Context) error {
	f.refreshes++
	return f.refreshErr
}

// scriptedDeleter はユーザーごとに返すエラーを順に設定できるUserDeleter。
// スクリプトを使い切った後は成功する。
type scriptedDeleter struct {
	script map[string][]error
	calls  []string
}

func newScriptedDeleter() *scriptedDeleter {
	return &scriptedDeleter{script: make(map[string][]error)}
}

func (d *scriptedDeleter) on(userID string, errs ...error) *scriptedDeleter {
	d.script[userID] = append(d.script[userID], errs...)
	return d
}

func (d *scriptedDeleter) DeleteUser(ctx context.Context, userID string) error {
	d.calls = append(d.calls, userID)
	if errs := d.script[userID]; len(errs) > 0 {
		d.script[userID] = errs[1:]
		return errs[0]
	}
	return nil
}

func (d *scriptedDeleter) callsFor(userID string) int {
	n := 0
	for _, id := range d.calls {
		if id == userID {
			n++
		}
	}
	return n
}

// mapFetcher はリンクごとにページを返すPageFetcher。
type mapFetcher struct {
	pages   map[string]model.UserPage
	errs    map[string]error
	fetched []string
}

func (f *mapFetcher) FetchPage(ctx context.Context, href string) (model.UserPage, error) {
	f.fetched = append(f.fetched, href)
	if err, ok := f.errs[href]; ok {
		return model.UserPage{}, err
	}
	page, ok := f.pages[href]
	if !ok {
		return model.UserPage{}, errors.New("unknown page: " + href)
	}
	return page, nil
}

func httpStatusErr(status int) error {
	return &model.HTTPError{
		StatusCode:   status,
		Method:       "DELETE",
		URL:          "https://api.example.com/v1/environments/env-1/users/x",
		ResponseBody: `{"code":"ERR"}`,
	}
}

// newTestSession はテスト用のSessionを生成する。コンソール出力はconsoleに書き込まれる。
func newTestSession(console *bytes.Buffer, tokens TokenRefresher, verbose bool) (*Session, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return &Session{
		Tokens:  tokens,
		Console: NewConsole(console, verbose, nil),
		Metrics: metrics.NewCollector(reg),
		Logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Summary: &model.Summary{},
	}, reg
}

func users(ids ...string) []model.UserRecord {
	out := make([]model.UserRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.UserRecord{ID: id, Username: "user-" + id})
	}
	return out
}
