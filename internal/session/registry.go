package session

import (
	"log"
	"sync"
	"time"

	"github.com/hangoutx/hangoutx-server/internal/stats"
	"github.com/hangoutx/hangoutx-server/internal/types"
	"github.com/jonboulle/clockwork"
)

// roomInfo is the directory record a session is created from.
type roomInfo struct {
	Id        int
	Code      string
	Name      string
	Mode      types.Mode
	HostId    int
	ExpiresAt time.Time
}

// Registry owns the room-code to live-session mapping. At most one
// session exists per code; creation for a code is serialized under the
// registry lock, so concurrent callers always receive the same instance.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	log      *log.Logger
	stats    stats.StatsProvider
	clock    clockwork.Clock
}

func NewRegistry(logger *log.Logger, sp stats.StatsProvider, clock clockwork.Clock) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		log:      logger,
		stats:    sp,
		clock:    clock,
	}
}

func (r *Registry) getOrCreate(room roomInfo) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[room.Code]; ok {
		return s
	}

	s := newSession(room, r, r.log, r.stats, r.clock)
	r.sessions[room.Code] = s
	r.stats.Incr(stats.ActiveSessions)
	go s.run()

	return s
}

func (r *Registry) get(code string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[code]
	return s, ok
}

// drop removes a session from the mapping. Called by the session itself
// when its grace period or room expiry fires.
func (r *Registry) drop(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.sessions[s.code]; ok && cur == s {
		delete(r.sessions, s.code)
	}
}

// Shutdown unloads every live session and waits for each to finish
// cleaning up.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for code, s := range r.sessions {
		sessions = append(sessions, s)
		delete(r.sessions, code)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		r.log.Printf("shutting down session %q", s.code)
		done := make(chan struct{})
		select {
		case s.exit <- exitReq{done: done}:
			<-done
		case <-s.done:
		}
	}
}
