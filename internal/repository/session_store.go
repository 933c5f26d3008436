package repository

import (
	"context"
	"errors"
	"time"
)

// 持久化的两个会话字段
const (
	KeyCredential = "code"
	KeyIssuedAt   = "loginTime"
)

var ErrStoreClosed = errors.New("session store closed")

// SessionEvent 会话变更通知。Key 为空表示来源未知（如外部进程整体改写）
type SessionEvent struct {
	Key string
	At  time.Time
}

// SessionStore 会话持久化与变更广播。同一存储上的所有 gate 实例共享状态
type SessionStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// SetMany 原子写入多个键，登录时避免其他进程读到半写状态
	SetMany(ctx context.Context, values map[string]string) error
	Remove(ctx context.Context, key string) error
	// Publish 向所有 Watch 者广播 session-changed
	Publish(ctx context.Context) error
	// Watch 返回的 channel 在 ctx 结束后关闭
	Watch(ctx context.Context) (<-chan SessionEvent, error)
}

// broadcaster 进程内 fan-out，慢消费者丢弃通知而不阻塞发布方
type broadcaster struct {
	subs map[chan SessionEvent]struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[chan SessionEvent]struct{})}
}

func (b *broadcaster) add() chan SessionEvent {
	ch := make(chan SessionEvent, 8)
	b.subs[ch] = struct{}{}
	return ch
}

func (b *broadcaster) remove(ch chan SessionEvent) {
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

func (b *broadcaster) send(ev SessionEvent) {
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (b *broadcaster) closeAll() {
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
