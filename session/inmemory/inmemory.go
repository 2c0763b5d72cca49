package inmemory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/mohammad-safakhou/newsrag/models"
	"github.com/mohammad-safakhou/newsrag/session"
)

// Store keeps sessions in process memory. Sessions expire TTL after their
// last use, and once MaxSessions is reached the least recently used session
// is dropped. A zero TTL or MaxSessions disables that bound.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	max      int
	now      func() time.Time
	order    *list.List // front = most recently used
	sessions map[string]*list.Element
}

type entry struct {
	id        string
	turns     []models.Turn
	expiresAt time.Time
}

var _ session.Store = (*Store)(nil)

type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func NewInMemorySessionStore(ttl time.Duration, maxSessions int, opts ...Option) *Store {
	s := &Store{
		ttl:      ttl,
		max:      maxSessions,
		now:      time.Now,
		order:    list.New(),
		sessions: make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Get(_ context.Context, id string) ([]models.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el := s.lookup(id)
	if el == nil {
		return nil, nil
	}
	s.touch(el)
	turns := el.Value.(*entry).turns
	return append([]models.Turn(nil), turns...), nil
}

func (s *Store) Append(_ context.Context, id string, turns ...models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	el := s.lookup(id)
	if el == nil {
		el = s.order.PushFront(&entry{id: id})
		s.sessions[id] = el
	}
	e := el.Value.(*entry)
	e.turns = append(e.turns, turns...)
	s.touch(el)

	for s.max > 0 && s.order.Len() > s.max {
		s.remove(s.order.Back())
	}
	return nil
}

func (s *Store) Evict(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.sessions[id]; ok {
		s.remove(el)
	}
	return nil
}

// Sweep drops every expired session and reports how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for el := s.order.Back(); el != nil; {
		prev := el.Prev()
		if s.expired(el.Value.(*entry), now) {
			s.remove(el)
			removed++
		}
		el = prev
	}
	return removed
}

// Len reports the number of live sessions, including expired ones not yet swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

func (s *Store) lookup(id string) *list.Element {
	el, ok := s.sessions[id]
	if !ok {
		return nil
	}
	if s.expired(el.Value.(*entry), s.now()) {
		s.remove(el)
		return nil
	}
	return el
}

func (s *Store) touch(el *list.Element) {
	s.order.MoveToFront(el)
	if s.ttl > 0 {
		el.Value.(*entry).expiresAt = s.now().Add(s.ttl)
	}
}

func (s *Store) expired(e *entry, now time.Time) bool {
	return s.ttl > 0 && !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func (s *Store) remove(el *list.Element) {
	s.order.Remove(el)
	delete(s.sessions, el.Value.(*entry).id)
}
