package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// BodySanitizer はコンソールに出力するレスポンスボディを整形する。
// ゲートウェイが返すHTMLエラーページなどからタグを除去し、プレーンテキストにする。
// JSONなどHTML以外のボディはそのまま返す。
type BodySanitizer struct {
	policy *bluemonday.Policy
}

// NewBodySanitizer はBodySanitizerを生成する。
// すべてのタグを除去するbluemondayのStrictPolicyを使用する。
func NewBodySanitizer() *BodySanitizer {
	return &BodySanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はボディがHTMLの場合にタグを除去し、空白を詰めたテキストを返す。
func (s *BodySanitizer) Sanitize(body string) string {
	if !looksLikeHTML(body) {
		return body
	}

	text := html.UnescapeString(s.policy.Sanitize(body))
	return strings.Join(strings.Fields(text), " ")
}

// looksLikeHTML はボディの先頭がHTMLタグかを判定する。
func looksLikeHTML(body string) bool {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "<") {
		return false
	}
	lower := strings.ToLower(trimmed)
	return strings.HasPrefix(lower, "<!doctype html") ||
		strings.HasPrefix(lower, "<html") ||
		strings.Contains(lower, "</")
}
