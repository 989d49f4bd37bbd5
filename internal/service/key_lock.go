package service

import (
	"context"
	"sync"
)

// KeyLocker 按 key 串行化读改写
type KeyLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LocalKeyLocker 进程内按 key 互斥（未启用 Redis 时使用）
type LocalKeyLocker struct {
	mu    sync.Mutex
	slots map[string]*keySlot
}

type keySlot struct {
	ch   chan struct{}
	refs int
}

// NewLocalKeyLocker 创建进程内锁
func NewLocalKeyLocker() *LocalKeyLocker {
	return &LocalKeyLocker{slots: make(map[string]*keySlot)}
}

// Lock 获取 key 对应的锁，ctx 结束时放弃等待
func (l *LocalKeyLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &keySlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, slot)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.ch
			l.release(key, slot)
		})
	}, nil
}

func (l *LocalKeyLocker) release(key string, slot *keySlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}

func (l *LocalKeyLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
