package security

import (
	"strings"
	"testing"
)

func TestBodySanitizer_PassesJSONThrough(t *testing.T) {
	s := NewBodySanitizer()

	body := `{"code":"NOT_FOUND","message":"The requested resource was not found"}`
	if got := s.Sanitize(body); got != body {
		t.Errorf("JSONボディは変更されてはならない: got %q", got)
	}
}

func TestBodySanitizer_StripsHTMLErrorPage(t *testing.T) {
	s := NewBodySanitizer()

	body := `<!DOCTYPE html>
<html><head><title>502 Bad Gateway</title><script>alert(1)</script></head>
<body><h1>Bad Gateway</h1><p>The upstream &amp; proxy failed.</p></body></html>`

	got := s.Sanitize(body)
	if strings.Contains(got, "<") {
		t.Errorf("タグが除去されていない: %q", got)
	}
	if strings.Contains(got, "alert") {
		t.Errorf("scriptの中身が残っている: %q", got)
	}
	if !strings.Contains(got, "Bad Gateway") {
		t.Errorf("本文テキストは残るべき: %q", got)
	}
	if !strings.Contains(got, "upstream & proxy") {
		t.Errorf("エンティティはデコードされるべき: %q", got)
	}
}

func TestBodySanitizer_EmptyBody(t *testing.T) {
	s := NewBodySanitizer()
	if got := s.Sanitize(""); got != "" {
		t.Errorf("空文字列には空文字列を返すべき: got %q", got)
	}
}
