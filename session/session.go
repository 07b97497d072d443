// Package session keeps the signed-in user's tokens and a small cache of
// events. A Store has an explicit lifecycle: Init before use, Dispose on
// sign-out or shutdown.
package session

import (
	"sync"
	"time"

	"github.com/mbolis/quick-event/model"
)

type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	IssuedAt     time.Time `json:"-"`
}

func (t Token) Expired(now time.Time) bool {
	if t.ExpiresIn <= 0 {
		return false
	}
	return now.After(t.IssuedAt.Add(time.Duration(t.ExpiresIn) * time.Second))
}

type Store struct {
	mu     sync.RWMutex
	ready  bool
	token  *Token
	user   string
	events map[int64]model.Event
}

func New() *Store {
	return &Store{}
}

func (s *Store) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
	s.token = nil
	s.user = ""
	s.events = map[int64]model.Event{}
}

// Dispose drops everything; the store must be Init-ed again before reuse.
func (s *Store) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = false
	s.token = nil
	s.user = ""
	s.events = nil
}

func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *Store) SignIn(user string, t Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return
	}
	s.user = user
	s.token = &t
}

// Clear signs the user out and forgets cached events, keeping the store usable.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
	s.user = ""
	if s.ready {
		s.events = map[int64]model.Event{}
	}
}

func (s *Store) Token() (Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return Token{}, false
	}
	return *s.token, true
}

func (s *Store) User() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Store) CacheEvent(e model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.events != nil {
		s.events[e.ID] = e
	}
}

func (s *Store) Event(id int64) (model.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	return e, ok
}

func (s *Store) ForgetEvent(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, id)
}
