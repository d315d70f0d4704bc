package pingone

import "github.com/hitoshi/pingone-tools/internal/model"

// usersResponse はユーザー一覧APIのレスポンス。
type usersResponse struct {
	Count    int `json:"count"`
	Embedded struct {
		Users []model.UserRecord `json:"users"`
	} `json:"_embedded"`
	Links struct {
		Next *link `json:"next"`
	} `json:"_links"`
}

type link struct {
	Href string `json:"href"`
}

// toPage はレスポンスをドメインのUserPageに変換する。
func (r usersResponse) toPage() model.UserPage {
	page := model.UserPage{
		Count: r.Count,
		Users: r.Embedded.Users,
	}
	if r.Links.Next != nil {
		page.NextLink = r.Links.Next.Href
	}
	return page
}

// Environment は環境作成APIのリクエスト・レスポンス。
type Environment struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Region      string `json:"region"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Population は母集団作成APIのリクエスト・レスポンス。
type Population struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Reference はIDのみを持つ参照オブジェクト。
type Reference struct {
	ID string `json:"id"`
}

// RoleScope はロール割り当てのスコープ。
type RoleScope struct {
	ID   string `json:"id"`
	Type string `json:"type"` // ENVIRONMENT, POPULATION, ORGANIZATION
}

// RoleAssignment はロール割り当てAPIのリクエスト・レスポンス。
type RoleAssignment struct {
	ID    string    `json:"id,omitempty"`
	Role  Reference `json:"role"`
	Scope RoleScope `json:"scope"`
}

// UserName はユーザーの氏名。
type UserName struct {
	Given  string `json:"given,omitempty"`
	Family string `json:"family,omitempty"`
}

// UserPassword はインポート時の初期パスワード。
type UserPassword struct {
	Value string `json:"value"`
}

// NewUser はユーザーインポートAPIのリクエスト。
type NewUser struct {
	Username   string        `json:"username"`
	Email      string        `json:"email"`
	Name       UserName      `json:"name"`
	Population Reference     `json:"population"`
	Password   *UserPassword `json:"password,omitempty"`
}

// CreatedUser はユーザー作成APIのレスポンス。
type CreatedUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
