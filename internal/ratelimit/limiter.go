// Package ratelimit はPingOne APIへの送信リクエスト数の制限を提供する。
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Config はレート制限の設定を保持する。
type Config struct {
	Budget int           // Window内に許可する呼び出し数
	Window time.Duration // 制限の時間窓
}

// DefaultConfig はデフォルトのレート制限設定を返す。
// PingOneの上限（100 req/sec）に余裕を持たせて 95 req/sec とする。
func DefaultConfig() Config {
	return Config{
		Budget: 95,
		Window: time.Second,
	}
}

// Limiter は送信リクエストのレートを制限する。
// 予算を超える呼び出しは拒否せず、空きができるまで待機させる。
// 呼び出し間隔をWindow/Budgetに均すため、任意のWindow幅の区間に
// Budgetを超える呼び出しが入ることはない。
type Limiter struct {
	config  Config
	limiter *rate.Limiter
}

// New は新しいLimiterを生成する。
func New(config Config) (*Limiter, error) {
	if config.Budget <= 0 {
		return nil, fmt.Errorf("rate limit budget must be positive: %d", config.Budget)
	}
	if config.Window <= 0 {
		return nil, fmt.Errorf("rate limit window must be positive: %v", config.Window)
	}

	interval := config.Window / time.Duration(config.Budget)
	return &Limiter{
		config:  config,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}, nil
}

// Wait は送信枠が空くまで呼び出し元をブロックする。
// 待機はFIFOで解放される。コンテキストがキャンセルされた場合はエラーを返す。
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Config は設定値を返す。
func (l *Limiter) Config() Config {
	return l.config
}
