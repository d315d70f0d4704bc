package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestNewSafeClient はSSRF防止付きHTTPクライアントの生成をテストする。
func TestNewSafeClient(t *testing.T) {
	client := NewSafeClient(10 * time.Second)
	if client == nil {
		t.Fatal("NewSafeClient() returned nil")
	}
	if client.Timeout != 10*time.Second {
		t.Errorf("expected timeout %v, got %v", 10*time.Second, client.Timeout)
	}
}

// TestNewSafeClientHasTransport はSafeClientにカスタムTransportが設定されていることをテストする。
func TestNewSafeClientHasTransport(t *testing.T) {
	client := NewSafeClient(5 * time.Second)

	if client.Transport == nil {
		t.Fatal("expected custom Transport to be set, got nil")
	}
	if client.Transport == http.DefaultTransport {
		t.Fatal("expected custom Transport, got http.DefaultTransport")
	}
}

// TestNewSafeClientBlocksLoopback はSafeClientがループバックへのリクエストをブロックすることをテストする。
// httptestサーバーは127.0.0.1のhttpで起動されるため、safeurlがブロックする。
func TestNewSafeClientBlocksLoopback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewSafeClient(5 * time.Second)

	_, err := client.Get(ts.URL)
	if err == nil {
		t.Fatal("expected error for loopback address request, got nil")
	}
}

func TestNewLinkGuard_RejectsRelativeBase(t *testing.T) {
	if _, err := NewLinkGuard("/v1"); err == nil {
		t.Error("相対URLのベースはエラーになるべき")
	}
}

func TestLinkGuard_Validate(t *testing.T) {
	guard, err := NewLinkGuard("https://api.pingone.com")
	if err != nil {
		t.Fatalf("NewLinkGuard がエラーを返した: %v", err)
	}

	tests := []struct {
		name    string
		link    string
		wantErr bool
	}{
		{"同一ホスト", "https://api.pingone.com/v1/environments/e/users?cursor=abc", false},
		{"ホストの大文字小文字は無視", "https://API.pingone.com/v1/environments/e/users", false},
		{"空文字列", "", true},
		{"別ホスト", "https://evil.example.com/v1/environments/e/users", true},
		{"スキームのダウングレード", "http://api.pingone.com/v1/environments/e/users", true},
		{"別ポート", "https://api.pingone.com:8443/v1/environments/e/users", true},
		{"相対リンク", "/v1/environments/e/users", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.Validate(tt.link)
			if tt.wantErr && err == nil {
				t.Errorf("Validate(%q) はエラーを返すべき", tt.link)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate(%q) がエラーを返した: %v", tt.link, err)
			}
		})
	}
}
