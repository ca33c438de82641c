package service

import (
	"context"
	"sync"
	"time"
)

// KeyLocker 按键互斥锁
// 提交审批的"查重 + 插入"临界区以 (staff, date, pending_type) 为键加锁。
// 生产环境由 Redis 实现（多实例互斥）；Redis 不可用时降级为进程内实现
type KeyLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

// localKeyLocker 进程内按键互斥锁（单实例兜底）
// 锁只在短临界区内持有且总是通过 defer 释放，故忽略 ttl
type localKeyLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocalKeyLocker 创建进程内按键互斥锁
func NewLocalKeyLocker() KeyLocker {
	return &localKeyLocker{held: make(map[string]bool)}
}

func (l *localKeyLocker) TryLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return "", false, nil
	}
	l.held[key] = true
	return key, true, nil
}

func (l *localKeyLocker) Unlock(_ context.Context, key, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}
