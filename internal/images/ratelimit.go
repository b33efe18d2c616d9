package images

import (
	"context"
	"sync"
	"time"
)

// Cooldown は外部API呼び出しの最小間隔を強制します。
// プロセス全体で1インスタンスを共有し、全プロバイダインスタンスをまたいで
// 同じレート制限が効くようにします。
type Cooldown struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func NewCooldown(interval time.Duration) *Cooldown {
	return &Cooldown{interval: interval}
}

// Wait は前回の呼び出しからの経過時間が間隔に満たない場合、残り時間だけ待機します。
// コンテキストのキャンセルで中断できます。
func (c *Cooldown) Wait(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	remaining := c.interval - now.Sub(c.last)
	if remaining <= 0 {
		c.last = now
		c.mu.Unlock()
		return nil
	}
	c.last = now.Add(remaining)
	c.mu.Unlock()

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
