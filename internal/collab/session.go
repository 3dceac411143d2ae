package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/inamate/canvas/internal/engine"
	"github.com/inamate/canvas/internal/geom"
	"github.com/inamate/canvas/internal/scene"
	"github.com/inamate/canvas/internal/snap"
	"github.com/inamate/canvas/internal/transform"
)

var ErrSessionClosed = errors.New("session closed")

const (
	// DefaultFrameInterval is the draw-list cadence when Options leaves it unset.
	DefaultFrameInterval = 16 * time.Millisecond
	// DefaultIdleTimeout is how long a session waits for its first client.
	DefaultIdleTimeout = time.Minute
)

type Options struct {
	FrameInterval time.Duration
	// IdleTimeout closes a session nobody has joined yet.
	IdleTimeout  time.Duration
	HistoryLimit int
	Snap          snap.Settings
	// NewScene builds the scene a session opens with. Nil opens the sample
	// scene.
	NewScene func() *scene.Scene
	Logger   *slog.Logger
}

type inbound struct {
	client *Client
	msg    *Message
}

// Session is one editor: an engine plus the clients attached to it. All
// engine access happens on the goroutine running Run.
type Session struct {
	id       string
	engine   *engine.Engine
	frames   *engine.FrameQueue
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
	interval time.Duration
	idle     time.Duration
	log      *slog.Logger

	inbound    chan inbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	seq      int64 // last outbound message
	opSeq    int64 // last applied operation
	dirty    bool  // the draw list changed since the last frame
	sender   *Client
	deferred []func()
}

func NewSession(id string, opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	interval := opts.FrameInterval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	idle := opts.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	var sc *scene.Scene
	if opts.NewScene != nil {
		sc = opts.NewScene()
	}

	s := &Session{
		id:         id,
		frames:     engine.NewFrameQueue(),
		clients:    make(map[string]*Client),
		presence:   NewPresenceManager(),
		interval:   interval,
		idle:       idle,
		log:        log.With("session", id),
		inbound:    make(chan inbound, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	s.engine = engine.New(engine.Options{
		Scene:        sc,
		Listener:     sessionListener{s},
		Scheduler:    s.frames,
		Snap:         opts.Snap,
		HistoryLimit: opts.HistoryLimit,
		Logger:       s.log,
	})
	return s
}

func (s *Session) ID() string { return s.id }

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} { return s.done }

// Run serializes client traffic, input and frame ticks onto the engine. It
// returns when ctx ends, when the last client leaves, or when no client
// joins within the idle timeout.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	idle := time.NewTimer(s.idle)
	defer func() {
		ticker.Stop()
		idle.Stop()
		s.closeClients()
		close(s.done)
	}()

	for {
		select {
		case c := <-s.register:
			s.addClient(c)
			idle.Stop()
		case <-idle.C:
			if len(s.clients) == 0 {
				s.log.Info("no client joined, closing")
				return
			}
		case c := <-s.unregister:
			if s.removeClient(c) {
				s.log.Info("session idle, closing")
				return
			}
		case in := <-s.inbound:
			s.handleMessage(in.client, in.msg)
		case <-ticker.C:
			s.frame()
		case <-ctx.Done():
			return
		}
	}
}

// Join attaches c to a running session.
func (s *Session) Join(ctx context.Context, c *Client) error {
	select {
	case s.register <- c:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Leave detaches c. It is a no-op once the session has closed.
func (s *Session) Leave(c *Client) {
	select {
	case s.unregister <- c:
	case <-s.done:
	}
}

// Submit queues an inbound message from c.
func (s *Session) Submit(ctx context.Context, c *Client, msg *Message) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.inbound <- inbound{client: c, msg: msg}:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) addClient(c *Client) {
	s.clients[c.ClientID] = c

	welcome, err := newMessage(TypeWelcome, WelcomePayload{
		SessionID: s.id,
		ClientID:  c.ClientID,
		Scene:     s.engine.Scene(),
		Selection: s.engine.Selection(),
		Tool:      s.engine.Tool(),
	})
	if err != nil {
		s.log.Error("marshal welcome", "error", err)
	} else {
		s.sendTo(c, welcome)
	}
	if state := s.presence.StateMessage(); state != nil {
		s.sendTo(c, state)
	}

	if join, err := newMessage(TypePresenceJoin, PresenceJoinPayload{
		ClientID:    c.ClientID,
		DisplayName: c.DisplayName,
	}); err == nil {
		s.broadcast(join, c.ClientID)
	}
	s.dirty = true

	s.log.Info("client joined", "client", c.ClientID, "clients", len(s.clients))
}

// removeClient detaches c and reports whether the session is now empty.
func (s *Session) removeClient(c *Client) bool {
	if _, ok := s.clients[c.ClientID]; !ok {
		return len(s.clients) == 0
	}
	delete(s.clients, c.ClientID)
	close(c.send)
	s.presence.Remove(c.ClientID)

	if leave, err := newMessage(TypePresenceLeave, PresenceLeavePayload{ClientID: c.ClientID}); err == nil {
		s.broadcast(leave, "")
	}

	s.log.Info("client left", "client", c.ClientID, "clients", len(s.clients))
	return len(s.clients) == 0
}

func (s *Session) closeClients() {
	for id, c := range s.clients {
		delete(s.clients, id)
		close(c.send)
	}
}

func (s *Session) handleMessage(sender *Client, msg *Message) {
	// Input can still be queued after its client left.
	if !s.attached(sender) {
		s.log.Debug("message from departed client dropped", "type", msg.Type, "client", sender.ClientID)
		return
	}
	s.sender = sender
	defer func() { s.sender = nil }()

	if err := s.dispatch(sender, msg); err != nil {
		s.log.Warn("message rejected", "type", msg.Type, "client", sender.ClientID, "error", err)
		if m, err := newMessage(TypeError, ErrorPayload{Message: err.Error()}); err == nil {
			s.sendTo(sender, m)
		}
	}
	s.runDeferred()
	s.dirty = true
}

func (s *Session) dispatch(sender *Client, msg *Message) error {
	e := s.engine
	switch msg.Type {
	case TypePointerDown, TypePointerMove, TypePointerUp, TypeDoubleClick:
		ev, err := decodePayload[engine.PointerEvent](msg)
		if err != nil {
			return fmt.Errorf("decode pointer event: %w", err)
		}
		switch msg.Type {
		case TypePointerDown:
			e.PointerDown(ev)
		case TypePointerMove:
			e.PointerMove(ev)
		case TypePointerUp:
			e.PointerUp(ev)
		case TypeDoubleClick:
			e.DoubleClick(ev)
		}
	case TypePointerCancel:
		e.PointerCancel()
	case TypeKeyDown:
		ev, err := decodePayload[engine.KeyEvent](msg)
		if err != nil {
			return fmt.Errorf("decode key event: %w", err)
		}
		e.KeyDown(ev)
	case TypeWheel:
		ev, err := decodePayload[engine.WheelEvent](msg)
		if err != nil {
			return fmt.Errorf("decode wheel event: %w", err)
		}
		e.Wheel(ev)
	case TypeDrop:
		p, err := decodePayload[engine.DropPayload](msg)
		if err != nil {
			return fmt.Errorf("decode drop: %w", err)
		}
		e.Drop(p)
	case TypeSetTool:
		p, err := decodePayload[ToolPayload](msg)
		if err != nil {
			return fmt.Errorf("decode tool: %w", err)
		}
		if !e.SetTool(p.Tool) {
			return fmt.Errorf("unknown tool %q", p.Tool)
		}
	case TypeSetSelection:
		p, err := decodePayload[SelectionPayload](msg)
		if err != nil {
			return fmt.Errorf("decode selection: %w", err)
		}
		e.SetSelection(p.IDs)
	case TypeSetSnap:
		p, err := decodePayload[snap.Settings](msg)
		if err != nil {
			return fmt.Errorf("decode snap settings: %w", err)
		}
		e.SetSnapSettings(p)
	case TypeSetStroke:
		p, err := decodePayload[scene.StrokeStyle](msg)
		if err != nil {
			return fmt.Errorf("decode stroke style: %w", err)
		}
		e.SetStrokeStyle(p)
	case TypeSetResizeMode:
		p, err := decodePayload[ResizeModePayload](msg)
		if err != nil {
			return fmt.Errorf("decode resize mode: %w", err)
		}
		mode, err := transform.ParseImageMode(p.Mode)
		if err != nil {
			return err
		}
		e.SetResizeMode(mode)
	case TypeSetViewOrigin:
		p, err := decodePayload[geom.Point](msg)
		if err != nil {
			return fmt.Errorf("decode viewport origin: %w", err)
		}
		e.SetViewportOrigin(p)
	case TypeSetText:
		p, err := decodePayload[TextPayload](msg)
		if err != nil {
			return fmt.Errorf("decode text: %w", err)
		}
		e.SetText(p.Text)
	case TypeEndTextEdit:
		e.EndTextEdit()
	case TypeLayerAction:
		p, err := decodePayload[LayerActionPayload](msg)
		if err != nil {
			return fmt.Errorf("decode layer action: %w", err)
		}
		e.LayerAction(p.Action, p.TargetID)
	case TypeUndo:
		e.Undo()
	case TypeRedo:
		e.Redo()
	case TypeOpSubmit:
		return s.handleOperation(sender, msg)
	case TypePresenceUpdate:
		return s.handlePresenceUpdate(sender, msg)
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

func (s *Session) handleOperation(sender *Client, msg *Message) error {
	p, err := decodePayload[OperationSubmitPayload](msg)
	if err != nil {
		return fmt.Errorf("decode operation: %w", err)
	}
	op := p.Operation

	id, err := ApplyOperation(s.engine, op)
	if err != nil {
		s.log.Debug("operation rejected", "op", op.Type, "id", op.ID, "error", err)
		if nack, merr := newMessage(TypeOpNack, OperationNackPayload{OperationID: op.ID, Reason: err.Error()}); merr == nil {
			s.sendTo(sender, nack)
		}
		return nil
	}

	s.opSeq++
	if ack, err := newMessage(TypeOpAck, OperationAckPayload{OperationID: op.ID, ObjectID: id, ServerSeq: s.opSeq}); err == nil {
		s.sendTo(sender, ack)
	}
	return nil
}

func (s *Session) handlePresenceUpdate(sender *Client, msg *Message) error {
	p, err := decodePayload[PresencePayload](msg)
	if err != nil {
		return fmt.Errorf("decode presence: %w", err)
	}
	p.DisplayName = sender.DisplayName
	s.presence.Update(sender.ClientID, &p)

	out, err := newMessage(TypePresenceUpdate, p)
	if err != nil {
		return err
	}
	out.ClientID = sender.ClientID
	s.broadcast(out, sender.ClientID)
	return nil
}

// frame applies the coalesced pointer move and publishes the draw list.
func (s *Session) frame() {
	if !s.dirty && !s.frames.Pending() {
		return
	}
	draw := s.engine.Tick()
	s.dirty = false
	s.broadcast(&Message{Type: TypeDraw, Payload: json.RawMessage(draw)}, "")
	s.runDeferred()
}

// runDeferred runs the work listener callbacks scheduled for after the
// current engine call.
func (s *Session) runDeferred() {
	for len(s.deferred) > 0 {
		fn := s.deferred[0]
		s.deferred = s.deferred[1:]
		fn()
	}
	s.deferred = nil
}

func (s *Session) attached(c *Client) bool {
	return c != nil && s.clients[c.ClientID] == c
}

// sendTo queues msg for c if c is still attached; a departed client's queue
// is closed.
func (s *Session) sendTo(c *Client, msg *Message) {
	if !s.attached(c) {
		return
	}
	s.seq++
	msg.Seq = s.seq
	msg.SessionID = s.id
	c.Send(msg)
}

func (s *Session) broadcast(msg *Message, excludeClientID string) {
	s.seq++
	msg.Seq = s.seq
	msg.SessionID = s.id
	for _, c := range s.clients {
		if c.ClientID != excludeClientID {
			c.Send(msg)
		}
	}
}

// notify broadcasts an engine notification.
func (s *Session) notify(typ string, payload any) {
	msg, err := newMessage(typ, payload)
	if err != nil {
		s.log.Error("marshal notification", "type", typ, "error", err)
		return
	}
	s.broadcast(msg, "")
}

// sessionListener turns engine callbacks into client messages. Completed
// drawings become nodes once the engine call that finished them returns.
type sessionListener struct {
	s *Session
}

func (l sessionListener) OnPathComplete(points []geom.Point, closed bool) {
	s := l.s
	s.deferred = append(s.deferred, func() {
		id, _ := s.engine.MaterializePath(points, closed)
		s.notify(TypePathComplete, StrokePayload{Points: points, Closed: closed, NodeID: id})
	})
}

func (l sessionListener) OnFreehandComplete(points []geom.Point) {
	s := l.s
	s.deferred = append(s.deferred, func() {
		id, _ := s.engine.MaterializeFreehand(points)
		s.notify(TypeFreehandComplete, StrokePayload{Points: points, NodeID: id})
	})
}

func (l sessionListener) OnSelectionChange(ids []string) {
	l.s.notify(TypeSelectionChange, SelectionPayload{IDs: ids})
}

func (l sessionListener) OnHistoryCheckpoint(nodes []*scene.Node) {
	l.s.notify(TypeHistoryCheckpoint, CheckpointPayload{
		Nodes:   nodes,
		CanUndo: l.s.engine.CanUndo(),
		CanRedo: l.s.engine.CanRedo(),
	})
}

func (l sessionListener) OnLayerAction(action engine.LayerAction, targetID string) {
	l.s.notify(TypeLayerRequest, LayerActionPayload{Action: action, TargetID: targetID})
}

// OnContextMenu answers only the client that right-clicked.
func (l sessionListener) OnContextMenu(menu engine.ContextMenu) {
	s := l.s
	if s.sender == nil {
		return
	}
	if msg, err := newMessage(TypeContextMenu, menu); err == nil {
		s.sendTo(s.sender, msg)
	}
}

func (l sessionListener) OnGuidesChange(guides []snap.Guide) {
	l.s.notify(TypeGuidesChange, guides)
}
