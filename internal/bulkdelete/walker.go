package bulkdelete

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/pingone-tools/internal/model"
)

// PageFetcher は次ページリンクが指すユーザー一覧ページを取得する。
type PageFetcher interface {
	FetchPage(ctx context.Context, href string) (model.UserPage, error)
}

// LinkValidator は次ページリンクを追従してよいかを検証する。
type LinkValidator interface {
	Validate(rawURL string) error
}

// UserHandler はユーザー1件を処理する。通常はExecutor。
type UserHandler interface {
	Delete(ctx context.Context, user model.UserRecord) (model.DeleteOutcome, error)
}

// Walker はユーザー一覧ページを先頭から順に走査する。
// ページ内のユーザーをサーバーの返した順に処理し、ページを処理し終えてから
// 次ページリンクを追従する。同じページを2度取得することはない。
//
// 次ページの取得に失敗した場合はエラーを出力して走査を終了する。
// 401でもトークンの再取得は行わない（一覧の初回取得と削除のみが再取得する）。
type Walker struct {
	session *Session
	fetcher PageFetcher
	guard   LinkValidator
	handler UserHandler
	skip    model.SkipSet
}

// NewWalker はWalkerを生成する。guardがnilの場合はリンクを検証しない。
func NewWalker(session *Session, fetcher PageFetcher, guard LinkValidator, handler UserHandler, skip model.SkipSet) *Walker {
	return &Walker{
		session: session,
		fetcher: fetcher,
		guard:   guard,
		handler: handler,
		skip:    skip,
	}
}

// Run は最初のページから走査を始め、次ページがなくなるか取得に失敗するまで続ける。
// エラーを返すのはユーザー処理が致命的なエラーを返した場合のみ。
func (w *Walker) Run(ctx context.Context, first model.UserPage) error {
	s := w.session
	page := first
	index := 1
	visited := make(map[string]bool)
	if first.SelfLink != "" {
		visited[first.SelfLink] = true
	}

	for {
		for _, user := range page.Users {
			if w.skip.Contains(user.ID) {
				s.Logger.Debug("user skipped", slog.String("user_id", user.ID))
				s.Summary.Skipped++
				s.Metrics.RecordUserSkipped()
				continue
			}
			if _, err := w.handler.Delete(ctx, user); err != nil {
				return err
			}
		}

		if !page.HasNext() {
			return nil
		}

		link := page.NextLink
		if visited[link] {
			s.Logger.Warn("next link already visited, stopping walk", slog.String("url", link))
			return nil
		}
		visited[link] = true

		s.Console.Verbosef("Fetching next page... (%d)", index)

		next, err := w.fetchNext(ctx, link)
		if err != nil {
			s.Summary.PageFailures++
			s.Metrics.RecordPageFetch(false)
			s.Console.Error("Error fetching users", err)
			s.Logger.Error("page fetch failed, stopping walk",
				slog.String("url", link),
				slog.Int("page_index", index),
				slog.String("error", err.Error()),
			)
			return nil
		}

		s.Summary.PagesFetched++
		s.Metrics.RecordPageFetch(true)
		index++
		if next.SelfLink != "" {
			visited[next.SelfLink] = true
		}
		page = next
	}
}

// fetchNext はリンクを検証してから次ページを取得する。
func (w *Walker) fetchNext(ctx context.Context, link string) (model.UserPage, error) {
	if w.guard != nil {
		if err := w.guard.Validate(link); err != nil {
			return model.UserPage{}, model.NewPageFetchError(link, fmt.Errorf("refusing to follow next link: %w", err))
		}
	}

	page, err := w.fetcher.FetchPage(ctx, link)
	if err != nil {
		return model.UserPage{}, model.NewPageFetchError(link, err)
	}
	return page, nil
}
