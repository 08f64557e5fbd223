package dispatch

import (
	"sync"
	"time"

	"github.com/msto63/bes/internal/dhi"
	"github.com/msto63/bes/pkg/core/cache"
)

const (
	sessionIdle = 30 * time.Minute
	maxSessions = 1024
)

// sessions keeps the context settings of each client origin. An origin
// idle for longer than sessionIdle starts over with empty settings.
type sessions struct {
	mu       sync.Mutex
	settings *cache.Cache[*dhi.ContextManager]
}

func newSessions() *sessions {
	return &sessions{settings: cache.New[*dhi.ContextManager](cache.Config{MaxItems: maxSessions, TTL: sessionIdle})}
}

func (s *sessions) get(origin string) *dhi.ContextManager {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.settings.Get(origin)
	if !ok {
		m = dhi.NewContextManager()
	}
	s.settings.Set(origin, m)
	return m
}
