package session

import (
	"sync"
	"time"
)

// EventType はセッションイベントの種別。
type EventType string

const (
	SignedIn       EventType = "signed_in"
	SignedOut      EventType = "signed_out"
	TokenRefreshed EventType = "token_refreshed"
)

// Event はセッション状態の変化を表す。
type Event struct {
	Type       EventType `json:"type"`
	UserID     string    `json:"user_id"`
	SessionID  string    `json:"-"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Listener はイベントを受け取る関数。
type Listener func(Event)

// Observer はセッションイベントを購読者に配信する。
// リスナーは購読順に同期的に呼び出される。
type Observer struct {
	mu        sync.Mutex
	nextID    uint64
	listeners []*Subscription
}

// Subscription はSubscribeが返す購読ハンドル。
type Subscription struct {
	id       uint64
	observer *Observer
	listener Listener
	once     sync.Once

	// mu は配信中のリスナー呼び出しとUnsubscribeを排他する。
	mu     sync.RWMutex
	active bool
}

// NewObserver は新しいObserverを生成する。
func NewObserver() *Observer {
	return &Observer{}
}

// Subscribe はリスナーを登録し、解除用のハンドルを返す。
func (o *Observer) Subscribe(l Listener) *Subscription {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.nextID++
	sub := &Subscription{id: o.nextID, observer: o, listener: l, active: true}
	o.listeners = append(o.listeners, sub)
	return sub
}

// Publish は登録済みのリスナーへイベントを配信する。
// リスナーはロック外でスナップショットに対して呼び出す。
func (o *Observer) Publish(e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	o.mu.Lock()
	snapshot := make([]*Subscription, len(o.listeners))
	copy(snapshot, o.listeners)
	o.mu.Unlock()

	for _, sub := range snapshot {
		sub.deliver(e)
	}
}

// Len は現在の購読者数を返す。
func (o *Observer) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.listeners)
}

// Unsubscribe は購読を解除する。複数回呼び出しても安全。
// 実行中のリスナー呼び出しがあれば完了を待ってから戻るため、
// 戻った後にリスナーが呼び出されることはない。
// リスナー自身の中から自分のUnsubscribeを呼び出してはならない。
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.mu.Lock()
		s.active = false
		s.mu.Unlock()

		o := s.observer
		o.mu.Lock()
		defer o.mu.Unlock()
		for i, sub := range o.listeners {
			if sub.id == s.id {
				o.listeners = append(o.listeners[:i], o.listeners[i+1:]...)
				break
			}
		}
	})
}

func (s *Subscription) deliver(e Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.active {
		return
	}
	s.listener(e)
}
