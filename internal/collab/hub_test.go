package collab

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/inamate/canvas/internal/typeid"
)

func testHub(t *testing.T) *Hub {
	t.Helper()
	opts := testOptions(shape("a", 0, 0, 100, 100))
	opts.FrameInterval = time.Millisecond
	h := NewHub(context.Background(), opts)
	t.Cleanup(h.Stop)
	return h
}

// next waits for the next message queued for c.
func next(t *testing.T, c *Client) (*Message, bool) {
	t.Helper()
	select {
	case data, ok := <-c.send:
		if !ok {
			return nil, false
		}
		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("queued frame is not a message: %v", err)
		}
		return &m, true
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a message")
		return nil, false
	}
}

func TestHubOpenValidatesID(t *testing.T) {
	h := testHub(t)
	for _, id := range []string{"", "bogus", typeid.NewShapeID()} {
		if _, err := h.Open(id); !errors.Is(err, ErrInvalidSession) {
			t.Errorf("Open(%q) err = %v, want ErrInvalidSession", id, err)
		}
	}
	if h.Len() != 0 {
		t.Errorf("Len = %d after rejected opens, want 0", h.Len())
	}
}

func TestHubCreate(t *testing.T) {
	h := testHub(t)
	s := h.Create()
	if !strings.HasPrefix(s.ID(), typeid.PrefixSession+"_") {
		t.Errorf("id = %q, want a %s_ prefix", s.ID(), typeid.PrefixSession)
	}
	got, err := h.Open(s.ID())
	if err != nil || got != s {
		t.Errorf("Open(created) = %p, %v, want %p", got, err, s)
	}
}

func TestHubJoinAndLeave(t *testing.T) {
	h := testHub(t)
	id := typeid.NewSessionID()
	c := testClient("c1")
	s, err := h.Join(context.Background(), id, c)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	m, ok := next(t, c)
	if !ok || m.Type != TypeWelcome || m.SessionID != id {
		t.Fatalf("first message = %+v, want a welcome for %s", m, id)
	}
	for {
		m, ok := next(t, c)
		if !ok {
			t.Fatal("queue closed before the first frame")
		}
		if m.Type == TypeDraw {
			break
		}
	}

	s.Leave(c)
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session still running after its last client left")
	}
	deadline := time.Now().Add(2 * time.Second)
	for h.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if h.Len() != 0 {
		t.Errorf("Len = %d, want 0 once the session closed", h.Len())
	}
	if err := s.Submit(context.Background(), c, &Message{Type: TypeUndo}); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Submit after close err = %v, want ErrSessionClosed", err)
	}
}

func TestHubJoinReopensClosedSession(t *testing.T) {
	h := testHub(t)
	id := typeid.NewSessionID()
	first := testClient("c1")
	s1, err := h.Join(context.Background(), id, first)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	s1.Leave(first)
	<-s1.Done()

	second := testClient("c2")
	s2, err := h.Join(context.Background(), id, second)
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if s2 == s1 {
		t.Error("rejoin attached to the closed session")
	}
	if m, ok := next(t, second); !ok || m.Type != TypeWelcome {
		t.Errorf("first message = %+v, want a welcome", m)
	}
}

func TestHubStopClosesClients(t *testing.T) {
	opts := testOptions()
	h := NewHub(context.Background(), opts)
	c := testClient("c1")
	s, err := h.Join(context.Background(), typeid.NewSessionID(), c)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	h.Stop()
	<-s.Done()
	for {
		if _, ok := next(t, c); !ok {
			break
		}
	}
	if h.Len() != 0 {
		t.Errorf("Len = %d after Stop, want 0", h.Len())
	}
}

func TestHubClosesUnjoinedSessions(t *testing.T) {
	opts := testOptions()
	opts.IdleTimeout = 20 * time.Millisecond
	h := NewHub(context.Background(), opts)
	t.Cleanup(h.Stop)

	created := h.Create()
	opened, err := h.Open(typeid.NewSessionID())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for _, s := range []*Session{created, opened} {
		select {
		case <-s.Done():
		case <-time.After(2 * time.Second):
			t.Fatalf("session %s still running with no client", s.ID())
		}
	}
	deadline := time.Now().Add(2 * time.Second)
	for h.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.Len() != 0 {
		t.Errorf("Len = %d, want 0 once idle sessions closed", h.Len())
	}
}

func TestHubJoinedSessionOutlivesIdleTimeout(t *testing.T) {
	opts := testOptions()
	opts.IdleTimeout = 10 * time.Millisecond
	h := NewHub(context.Background(), opts)
	t.Cleanup(h.Stop)

	c := testClient("c1")
	s, err := h.Join(context.Background(), typeid.NewSessionID(), c)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	select {
	case <-s.Done():
		t.Fatal("session with a client closed on the idle timer")
	case <-time.After(50 * time.Millisecond):
	}
	if h.Len() != 1 {
		t.Errorf("Len = %d, want 1", h.Len())
	}
}

func TestValidateSessionID(t *testing.T) {
	if err := ValidateSessionID(typeid.NewSessionID()); err != nil {
		t.Errorf("fresh id: %v", err)
	}
	if err := ValidateSessionID("bogus"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("err = %v, want ErrInvalidSession", err)
	}
}
