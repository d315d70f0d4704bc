// Package pingonetest はテスト用のPingOne APIフェイクサーバーを提供する。
// トークン発行、ユーザー一覧（ページング）、ユーザー削除、環境プロビジョニングの
// エンドポイントを持ち、ステータスコードをスクリプトで差し込める。
package pingonetest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/pingone-tools/internal/model"
)

// RecordedRequest はサーバーが受け取ったリクエストの記録。
type RecordedRequest struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	ContentType   string
	Body          string
}

// Server はPingOne APIのフェイク。
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	users        []model.UserRecord
	pageSize     int
	nextLinkBase string
	tokenStatus  int
	tokensIssued int
	listScript   []int
	pageScript   map[int]int
	deleteScript map[string][]int
	deleteCalls  map[string]int
	deleteDelay  time.Duration
	deleted      []string
	requests     []RecordedRequest
	environments []map[string]interface{}
	populations  []map[string]interface{}
	assignments  []map[string]interface{}
	createdUsers []map[string]interface{}
	createStatus map[string]int
}

// NewServer はフェイクサーバーを起動する。テスト終了時に自動で停止する。
// usersは一覧APIが返すユーザーで、サーバー側の順序がそのまま返る。
func NewServer(t *testing.T, users ...model.UserRecord) *Server {
	t.Helper()

	s := &Server{
		users:        users,
		pageSize:     100,
		pageScript:   make(map[int]int),
		deleteScript: make(map[string][]int),
		deleteCalls:  make(map[string]int),
		createStatus: make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Post("/{envID}/as/token", s.handleToken)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/organizations/{orgID}/environments", s.handleCreateEnvironment)
		r.Route("/environments/{envID}", func(r chi.Router) {
			r.Get("/users", s.handleListUsers)
			r.Post("/users", s.handleCreateUser)
			r.Delete("/users/{userID}", s.handleDeleteUser)
			r.Post("/users/{userID}/roleAssignments", s.handleAssignRole)
			r.Post("/populations", s.handleCreatePopulation)
		})
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// SetPageSize は1ページあたりのユーザー数を設定する。
func (s *Server) SetPageSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = n
}

// SetNextLinkBase は次ページリンクに使うベースURLを差し替える。
func (s *Server) SetNextLinkBase(base string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLinkBase = base
}

// RejectTokens はトークンエンドポイントが指定ステータスで拒否するようにする。
func (s *Server) RejectTokens(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenStatus = status
}

// ScriptList は最初の一覧取得に対して、成功する前に返すステータスを順に設定する。
func (s *Server) ScriptList(statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listScript = append(s.listScript, statuses...)
}

// ScriptPage は指定ページ（0始まり、1以上が次ページ）の取得で返すステータスを設定する。
func (s *Server) ScriptPage(index, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageScript[index] = status
}

// ScriptDelete はユーザー削除に対して順に返すステータスを設定する。
// スクリプトを使い切った後は204を返す。
func (s *Server) ScriptDelete(userID string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteScript[userID] = append(s.deleteScript[userID], statuses...)
}

// SetDeleteDelay はユーザー削除の応答を指定時間だけ遅らせる。
// クライアントが接続を切った場合はその時点で処理を打ち切る。
func (s *Server) SetDeleteDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteDelay = d
}

// FailCreate は指定した作成操作（environment, population, role, user）を失敗させる。
func (s *Server) FailCreate(kind string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createStatus[kind] = status
}

// TokensIssued は発行したトークン数を返す。
func (s *Server) TokensIssued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokensIssued
}

// DeleteCalls はユーザーごとの削除リクエスト数を返す。
func (s *Server) DeleteCalls(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteCalls[userID]
}

// Deleted は削除に成功したユーザーIDを順に返す。
func (s *Server) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// DeleteOrder は削除リクエストを受けたユーザーIDを初回受信順に返す。
func (s *Server) DeleteOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var order []string
	seen := make(map[string]bool)
	for _, req := range s.requests {
		if req.Method != http.MethodDelete {
			continue
		}
		id := req.Path[strings.LastIndex(req.Path, "/")+1:]
		if !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
	}
	return order
}

// Requests は受け取ったリクエストの記録を返す。
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// CountRequests は指定メソッドかつパスに指定文字列を含むリクエスト数を返す。
func (s *Server) CountRequests(method, pathContains string) int {
	n := 0
	for _, req := range s.Requests() {
		if req.Method == method && strings.Contains(req.Path, pathContains) {
			n++
		}
	}
	return n
}

// CreatedUsers は作成されたユーザーのリクエストボディを返す。
func (s *Server) CreatedUsers() []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]interface{}(nil), s.createdUsers...)
}

// RoleAssignments は作成されたロール割り当てのリクエストボディを返す。
func (s *Server) RoleAssignments() []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]interface{}(nil), s.assignments...)
}

// record はリクエストを記録するミドルウェア。
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			Body:          string(body),
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status := s.tokenStatus
	if status == 0 {
		s.tokensIssued++
	}
	n := s.tokensIssued
	s.mu.Unlock()

	if status != 0 {
		writeJSON(w, status, map[string]string{
			"error":             "invalid_client",
			"error_description": "Request denied: Unsupported authentication method",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": fmt.Sprintf("token-%d", n),
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	envID := chi.URLParam(r, "envID")
	index, _ := strconv.Atoi(r.URL.Query().Get("page"))

	s.mu.Lock()
	var status int
	if index == 0 && len(s.listScript) > 0 {
		status = s.listScript[0]
		s.listScript = s.listScript[1:]
	} else if st, ok := s.pageScript[index]; ok {
		status = st
	}
	pageSize := s.pageSize
	users := s.users
	base := s.nextLinkBase
	s.mu.Unlock()

	if status != 0 {
		writeError(w, status)
		return
	}

	start := index * pageSize
	if start > len(users) {
		start = len(users)
	}
	end := start + pageSize
	if end > len(users) {
		end = len(users)
	}

	if base == "" {
		base = s.URL
	}

	links := map[string]interface{}{
		"self": map[string]string{"href": base + r.URL.RequestURI()},
	}
	if end < len(users) {
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(index+1))
		links["next"] = map[string]string{
			"href": fmt.Sprintf("%s/v1/environments/%s/users?%s", base, envID, q.Encode()),
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"_links": links,
		"_embedded": map[string]interface{}{
			"users": users[start:end],
		},
		"count": len(users),
		"size":  end - start,
	})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	s.mu.Lock()
	delay := s.deleteDelay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			s.mu.Lock()
			s.deleteCalls[userID]++
			s.mu.Unlock()
			return
		}
	}

	s.mu.Lock()
	s.deleteCalls[userID]++
	status := http.StatusNoContent
	if script := s.deleteScript[userID]; len(script) > 0 {
		status = script[0]
		s.deleteScript[userID] = script[1:]
	}
	if status == http.StatusNoContent {
		s.deleted = append(s.deleted, userID)
	}
	s.mu.Unlock()

	if status == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeError(w, status)
}

func (s *Server) handleCreateEnvironment(w http.ResponseWriter, r *http.Request) {
	s.handleCreate(w, r, "environment", &s.environments)
}

func (s *Server) handleCreatePopulation(w http.ResponseWriter, r *http.Request) {
	s.handleCreate(w, r, "population", &s.populations)
}

func (s *Server) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	s.handleCreate(w, r, "role", &s.assignments)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	s.handleCreate(w, r, "user", &s.createdUsers)
}

// handleCreate はリクエストボディにIDを付けて201で返す共通処理。
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request, kind string, store *[]map[string]interface{}) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	status := s.createStatus[kind]
	if status == 0 {
		*store = append(*store, payload)
	}
	s.mu.Unlock()

	if status != 0 {
		writeError(w, status)
		return
	}

	payload["id"] = uuid.NewString()
	writeJSON(w, http.StatusCreated, payload)
}

func writeError(w http.ResponseWriter, status int) {
	writeJSON(w, status, map[string]interface{}{
		"id":      uuid.NewString(),
		"code":    strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_")),
		"message": http.StatusText(status),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
