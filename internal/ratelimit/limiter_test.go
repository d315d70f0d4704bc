package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Budget != 95 {
		t.Errorf("Budget = %d, want 95", cfg.Budget)
	}
	if cfg.Window != time.Second {
		t.Errorf("Window = %v, want 1s", cfg.Window)
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	if _, err := New(Config{Budget: 0, Window: time.Second}); err == nil {
		t.Error("Budget=0 はエラーになるべき")
	}
	if _, err := New(Config{Budget: 10, Window: 0}); err == nil {
		t.Error("Window=0 はエラーになるべき")
	}
}

// 200回の呼び出しは予算95/Windowのもとで少なくとも2回の待機を伴い、
// 合計で2Window近くかかる。
func TestLimiter_ThrottlesBeyondBudget(t *testing.T) {
	window := 100 * time.Millisecond
	l, err := New(Config{Budget: 95, Window: window})
	if err != nil {
		t.Fatalf("New がエラーを返した: %v", err)
	}

	start := time.Now()
	for i := 0; i < 200; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("Wait がエラーを返した: %v", err)
		}
	}
	elapsed := time.Since(start)

	epsilon := 10 * time.Millisecond
	if elapsed < 2*window-epsilon {
		t.Errorf("200回の呼び出しが %v で完了した, want >= %v", elapsed, 2*window-epsilon)
	}
}

// 仮想時計で送信時刻を求め、どの半開区間 [t, t+Window) にも予算を超える送信が入らないことを確認する。
func TestLimiter_NeverExceedsBudgetInWindow(t *testing.T) {
	window := time.Second
	budget := 8
	l, err := New(Config{Budget: budget, Window: window})
	if err != nil {
		t.Fatalf("New がエラーを返した: %v", err)
	}

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var stamps []time.Time
	for i := 0; i < 3*budget; i++ {
		r := l.limiter.ReserveN(now, 1)
		if !r.OK() {
			t.Fatalf("%d 回目の予約に失敗した", i+1)
		}
		now = now.Add(r.DelayFrom(now))
		stamps = append(stamps, now)
	}

	for i := range stamps {
		n := 0
		for j := i; j < len(stamps) && stamps[j].Before(stamps[i].Add(window)); j++ {
			n++
		}
		if n > budget {
			t.Fatalf("[%v, +%v) の送信数 = %d, 予算 %d を超えている", stamps[i].Format(time.StampMilli), window, n, budget)
		}
	}

	// 予算いっぱいまでは使い切る
	if got := stamps[budget].Sub(stamps[0]); got != window {
		t.Errorf("%d 回目の送信までの間隔 = %v, want %v", budget+1, got, window)
	}
}

func TestLimiter_WaitHonorsCancel(t *testing.T) {
	l, err := New(Config{Budget: 1, Window: time.Hour})
	if err != nil {
		t.Fatalf("New がエラーを返した: %v", err)
	}

	// 最初の1回は即時に通る
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("初回の Wait がエラーを返した: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx); err == nil {
		t.Error("キャンセル済みコンテキストでは Wait はエラーを返すべき")
	}
}
