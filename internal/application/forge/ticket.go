package forge

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Ticket 一次异步请求的回执。
// Done 在结果被应用或作为过期结果丢弃之后关闭。
type Ticket struct {
	id       string
	accepted bool
	done     chan struct{}
	once     sync.Once
}

func newTicket() *Ticket {
	return &Ticket{
		id:       uuid.NewString(),
		accepted: true,
		done:     make(chan struct{}),
	}
}

// ignoredTicket 未产生任何状态变化的请求
func ignoredTicket() *Ticket {
	t := &Ticket{done: make(chan struct{})}
	close(t.done)
	return t
}

// ID 回执 ID，未受理时为空
func (t *Ticket) ID() string { return t.id }

// Accepted 请求是否被受理
func (t *Ticket) Accepted() bool { return t.accepted }

// Done 结果落定后关闭
func (t *Ticket) Done() <-chan struct{} { return t.done }

// Wait 阻塞直到结果落定或 ctx 结束
func (t *Ticket) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Ticket) finish() {
	t.once.Do(func() { close(t.done) })
}
