package collab

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/inamate/canvas/internal/typeid"
)

var ErrInvalidSession = errors.New("invalid session id")

// Hub owns the running sessions. Each session runs on its own goroutine
// and leaves the hub when its last client goes.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*Session // sessionID -> session
	opts     Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewHub(ctx context.Context, opts Options) *Hub {
	ctx, cancel := context.WithCancel(ctx)
	return &Hub{
		sessions: make(map[string]*Session),
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Create starts a session under a fresh id.
func (h *Hub) Create() *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.startLocked(typeid.NewSessionID())
}

// ValidateSessionID reports whether id is a well-formed session id.
func ValidateSessionID(id string) error {
	if err := typeid.Validate(id, typeid.PrefixSession); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	return nil
}

// Open returns the session with id, starting it if needed. A session nobody
// joins closes after Options.IdleTimeout.
func (h *Hub) Open(id string) (*Session, error) {
	if err := ValidateSessionID(id); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[id]; ok {
		return s, nil
	}
	return h.startLocked(id), nil
}

// Join attaches c to session id. A session that closes between lookup and
// registration is replaced by a fresh one under the same id.
func (h *Hub) Join(ctx context.Context, id string, c *Client) (*Session, error) {
	for {
		s, err := h.Open(id)
		if err != nil {
			return nil, err
		}
		err = s.Join(ctx, c)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrSessionClosed) {
			return nil, err
		}
		h.forget(id, s)
	}
}

// Len returns the number of running sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Stop ends every session and waits for their goroutines.
func (h *Hub) Stop() {
	h.cancel()
	h.wg.Wait()
}

func (h *Hub) startLocked(id string) *Session {
	s := NewSession(id, h.opts)
	h.sessions[id] = s
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		s.Run(h.ctx)
		h.forget(id, s)
	}()
	return s
}

func (h *Hub) forget(id string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[id] == s {
		delete(h.sessions, id)
	}
}
