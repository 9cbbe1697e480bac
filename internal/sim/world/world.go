package world

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"railforge/internal/protocol"
	"railforge/internal/sim/rail"
)

// CommandLogEntry is one processed gesture, as persisted by the audit log
// and the command index.
type CommandLogEntry struct {
	Seq     uint64 `json:"seq"`
	Session string `json:"session"`
	Op      string `json:"op"`

	FromX    int    `json:"from_x"`
	FromY    int    `json:"from_y"`
	ToX      int    `json:"to_x"`
	ToY      int    `json:"to_y"`
	Track    string `json:"track"`
	RailType string `json:"rail_type"`
	Params   uint32 `json:"params"`

	OK       bool   `json:"ok"`
	Code     string `json:"code,omitempty"`
	Cost     int64  `json:"cost"`
	EndX     int    `json:"end_x"`
	EndY     int    `json:"end_y"`
	EndValid bool   `json:"end_valid"`

	At string `json:"at"`
}

// CommandAudit receives every processed (non-estimate) gesture.
type CommandAudit interface {
	WriteCommand(CommandLogEntry) error
}

// CommandIndex receives the same entries for queryable indexing.
type CommandIndex interface {
	InsertCommand(CommandLogEntry)
	UpsertSession(id, name string, joinedAt time.Time)
}

// GestureEnvelope routes a decoded ACT to its session.
type GestureEnvelope struct {
	SessionID string
	Act       protocol.ActMsg
}

type JoinRequest struct {
	Name  string
	Reply chan JoinReply
}

type JoinReply struct {
	SessionID string
	Out       chan []byte
	Params    protocol.WorldParams
}

type session struct {
	id   string
	name string
	out  chan []byte

	disp *rail.Dispatcher

	// Gesture ticks inside the rate-limit window.
	recent []uint64
}

// World owns the grid and applies gestures single-threaded. All state is
// confined to the Run goroutine.
type World struct {
	cfg    Config
	logger *log.Logger

	grid   *Grid
	engine *CommandEngine

	sessions map[string]*session

	tick atomic.Uint64
	seq  uint64

	inbox chan GestureEnvelope
	join  chan JoinRequest
	leave chan string
	stop  chan struct{}

	nextSessionNum atomic.Uint64
	sessionCount   atomic.Int64

	audit CommandAudit // may be nil
	index CommandIndex // may be nil
}

// Metrics is a read-only snapshot safe to call from any goroutine.
type Metrics struct {
	Tick       uint64
	Sessions   int64
	InboxDepth int
}

func New(cfg Config, logger *log.Logger) *World {
	cfg = cfg.withDefaults()
	grid := NewGrid(HeightGen{
		Seed:              cfg.Seed,
		BoundaryR:         cfg.BoundaryR,
		MaxHeight:         cfg.MaxHeight,
		RegionSize:        cfg.RegionSize,
		RoughnessPermille: cfg.RoughnessPermille,
	})
	return &World{
		cfg:      cfg,
		logger:   logger,
		grid:     grid,
		engine:   NewCommandEngine(grid),
		sessions: map[string]*session{},
		inbox:    make(chan GestureEnvelope, 1024),
		join:     make(chan JoinRequest, 16),
		leave:    make(chan string, 16),
		stop:     make(chan struct{}),
	}
}

func (w *World) SetAudit(a CommandAudit) { w.audit = a }
func (w *World) SetIndex(idx CommandIndex) { w.index = idx }

func (w *World) Inbox() chan<- GestureEnvelope { return w.inbox }
func (w *World) Leave() chan<- string          { return w.leave }

func (w *World) Params() protocol.WorldParams {
	return protocol.WorldParams{
		BoundaryR: w.cfg.BoundaryR,
		MaxHeight: w.cfg.MaxHeight,
		Seed:      w.cfg.Seed,
		RailTypes: rail.RailTypeNames(),
	}
}

// Join registers a session and returns its id and outgoing message channel.
func (w *World) Join(ctx context.Context, name string) (JoinReply, error) {
	req := JoinRequest{Name: name, Reply: make(chan JoinReply, 1)}
	select {
	case w.join <- req:
	case <-ctx.Done():
		return JoinReply{}, ctx.Err()
	}
	select {
	case rep := <-req.Reply:
		return rep, nil
	case <-ctx.Done():
		return JoinReply{}, ctx.Err()
	}
}

func (w *World) Stop() {
	close(w.stop)
}

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) Metrics() Metrics {
	return Metrics{
		Tick:       w.tick.Load(),
		Sessions:   w.sessionCount.Load(),
		InboxDepth: len(w.inbox),
	}
}

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingGestures []GestureEnvelope
	var pendingJoins []JoinRequest
	var pendingLeaves []string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-w.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-w.inbox:
			pendingGestures = append(pendingGestures, env)
		case <-ticker.C:
			w.step(pendingJoins, pendingLeaves, pendingGestures)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingGestures = pendingGestures[:0]
		}
	}
}

func (w *World) step(joins []JoinRequest, leaves []string, gestures []GestureEnvelope) {
	now := w.tick.Add(1)

	for _, req := range joins {
		w.handleJoin(req)
	}
	for _, id := range leaves {
		w.handleLeave(id)
	}
	for _, env := range gestures {
		s, ok := w.sessions[env.SessionID]
		if !ok {
			continue
		}
		w.applyAct(s, env.Act, now)
	}
}

func (w *World) handleJoin(req JoinRequest) {
	id := fmt.Sprintf("S%d", w.nextSessionNum.Add(1))
	s := &session{
		id:   id,
		name: req.Name,
		out:  make(chan []byte, 256),
		disp: rail.NewDispatcher(w.engine, w.grid),
	}
	w.sessions[id] = s
	w.sessionCount.Store(int64(len(w.sessions)))
	if w.index != nil {
		w.index.UpsertSession(id, req.Name, time.Now().UTC())
	}
	if w.logger != nil {
		w.logger.Printf("session %s joined (%s)", id, req.Name)
	}
	req.Reply <- JoinReply{SessionID: id, Out: s.out, Params: w.Params()}
}

func (w *World) handleLeave(id string) {
	s, ok := w.sessions[id]
	if !ok {
		return
	}
	delete(w.sessions, id)
	w.sessionCount.Store(int64(len(w.sessions)))
	close(s.out)
	if w.logger != nil {
		w.logger.Printf("session %s left", id)
	}
}
