package bulkdelete

import (
	"fmt"
	"io"

	"github.com/hitoshi/pingone-tools/internal/model"
)

// Sanitizer はコンソールに出すレスポンスボディを整形する。
type Sanitizer interface {
	Sanitize(body string) string
}

// Console は利用者向けの進捗・エラーを標準出力に書き出す。
// 構造化ログ（slog）とは別系統で、verboseがfalseの場合は進捗行を抑制する。
type Console struct {
	w         io.Writer
	verbose   bool
	sanitizer Sanitizer
}

// NewConsole はConsoleを生成する。sanitizerはnilでもよい。
func NewConsole(w io.Writer, verbose bool, sanitizer Sanitizer) *Console {
	return &Console{w: w, verbose: verbose, sanitizer: sanitizer}
}

// Printf は常に1行出力する。
func (c *Console) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.w, format+"\n", args...)
}

// Verbosef はverboseモードのときだけ1行出力する。
func (c *Console) Verbosef(format string, args ...interface{}) {
	if c.verbose {
		c.Printf(format, args...)
	}
}

// Error は失敗したリクエストの内容を[ERROR]付きで出力する。
// HTTPエラーの場合はステータス、リクエストURL、リクエストボディ（あれば）、
// レスポンスボディを順に出力する。
func (c *Console) Error(description string, err error) {
	httpErr, ok := model.AsHTTPError(err)
	if !ok {
		c.Printf("[ERROR] %s: %v", description, err)
		return
	}

	c.Printf("[ERROR] %s (%d):", description, httpErr.StatusCode)
	c.Printf("[ERROR] Request: %s", httpErr.URL)
	if httpErr.RequestBody != "" {
		c.Printf("[ERROR] %s", httpErr.RequestBody)
	}

	body := httpErr.ResponseBody
	if c.sanitizer != nil {
		body = c.sanitizer.Sanitize(body)
	}
	c.Printf("[ERROR] %s", body)
}
