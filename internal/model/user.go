// Package model はドメインモデルを定義する。
package model

import "time"

// UserRecord はPingOne環境内のユーザー1件を表す。
// このツールからは読み取り専用で、削除がライフサイクルの終端となる。
type UserRecord struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// UserPage はユーザー一覧APIの1ページ分のレスポンスを表す。
// 1回のフェッチで生成され、走査後に破棄される。
type UserPage struct {
	Count    int
	Users    []UserRecord
	NextLink string // 次ページがない場合は空文字列
	SelfLink string // このページの取得に使ったURL
}

// HasNext は次ページへのリンクが存在するかを返す。
func (p UserPage) HasNext() bool {
	return p.NextLink != ""
}

// Credential はAPI呼び出しに使用するBearerクレデンシャル。
// TokenManagerが排他的に所有し、リフレッシュ時に丸ごと置き換える。永続化はしない。
type Credential struct {
	AccessToken string
	ObtainedAt  time.Time
}

// IsZero はクレデンシャルが未取得かを返す。
func (c Credential) IsZero() bool {
	return c.AccessToken == ""
}

// SkipSet は削除対象から除外するユーザーIDの集合。
// 起動時に1回だけ構築し、実行中は変更しない。
type SkipSet map[string]struct{}

// NewSkipSet はユーザーIDのリストからSkipSetを生成する。
func NewSkipSet(ids []string) SkipSet {
	s := make(SkipSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains はIDが除外対象かを返す。nilのSkipSetは何も含まない。
func (s SkipSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}
