package forge

import "worldforge/pkg/metrics"

// EventKind 事件类型
type EventKind string

const (
	// EventState 状态发生变化，携带最新快照
	EventState EventKind = "state"
	// EventNotice 瞬时提示（不进入状态）
	EventNotice EventKind = "notice"
)

// Notice 瞬时提示
type Notice struct {
	Message    string `json:"message"`
	LocationID string `json:"location_id,omitempty"`
}

// Event 推送给订阅者的事件
type Event struct {
	Kind     EventKind `json:"kind"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Notice   *Notice   `json:"notice,omitempty"`
}

type subscriber struct {
	ch chan Event
}

// Subscribe 订阅状态事件，立即收到一次当前快照。
// 缓冲区满时事件被丢弃而不阻塞状态变更；返回的函数用于取消订阅。
// Store 关闭后订阅只收到当前快照，随后通道即关闭。
func (s *Store) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	sub := &subscriber{ch: make(chan Event, buffer)}

	s.mu.Lock()
	snap := s.snapshotLocked()
	sub.ch <- Event{Kind: EventState, Snapshot: &snap}
	if s.closed {
		close(sub.ch)
		s.mu.Unlock()
		return sub.ch, func() {}
	}
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	metrics.EventSubscribers.Inc()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.removeSubscriberLocked(sub)
	}
	return sub.ch, cancel
}

// Close 关闭所有订阅通道，之后的订阅立即结束。
// 进行中的生成请求不受影响，仍可通过 Drain 等待。
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for sub := range s.subs {
		s.removeSubscriberLocked(sub)
	}
}

// removeSubscriberLocked 调用方必须持有 s.mu；重复调用无副作用
func (s *Store) removeSubscriberLocked(sub *subscriber) {
	if _, ok := s.subs[sub]; !ok {
		return
	}
	delete(s.subs, sub)
	close(sub.ch)
	metrics.EventSubscribers.Dec()
}

// publishLocked 调用方必须持有 s.mu
func (s *Store) publishLocked(ev Event) {
	for sub := range s.subs {
		select {
		case sub.ch <- ev:
		default:
			metrics.EventsDroppedTotal.Inc()
		}
	}
}

func (s *Store) publishStateLocked() {
	snap := s.snapshotLocked()
	s.publishLocked(Event{Kind: EventState, Snapshot: &snap})
}
