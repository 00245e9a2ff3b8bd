package session

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"portsim/internal/persistence/snapshot"
	"portsim/internal/sim/world"
)

var ErrClosed = errors.New("session host closed")

// JournalSink receives every input the host feeds the engine, in order.
type JournalSink interface {
	WriteEntry(world.JournalEntry) error
}

// SaveRequest is handed to the save sink. State is immutable once published.
type SaveRequest struct {
	State  *world.State
	Client snapshot.Client
	Reason string
}

type Config struct {
	// StepEvery is how often the loop reads the wall clock and advances.
	StepEvery time.Duration
	// AutosaveEvery of zero disables autosave.
	AutosaveEvery time.Duration
	// Now is the only wall clock the host reads. Defaults to time.Now.
	Now func() time.Time
}

// Result reports the outcome of one submitted command.
type Result struct {
	Applied  bool   `json:"applied"`
	Seq      uint64 `json:"seq"`
	SimNowMs int64  `json:"sim_now_ms"`
	Digest   string `json:"digest"`
}

type submitReq struct {
	cmd  world.Command
	resp chan Result
}

type saveReq struct {
	reason string
	resp   chan saveResp
}

type saveResp struct {
	simNowMs int64
	err      error
}

// Host owns the current snapshot and serialises commands and real-time
// stepping on a single goroutine.
type Host struct {
	eng    *world.Engine
	cfg    Config
	logger *log.Logger

	journal  JournalSink
	saveSink chan<- SaveRequest

	state    atomic.Pointer[world.State]
	seq      uint64
	lastWall int64

	inbox chan submitReq
	saves chan saveReq
	stop  chan struct{}
	done  chan struct{}

	stopOnce sync.Once
	running  atomic.Bool
}

// NewHost wraps s. client is the bookkeeping restored from the save s came
// from, or the zero value for a fresh state.
func NewHost(eng *world.Engine, s *world.State, client snapshot.Client, cfg Config, logger *log.Logger) *Host {
	if cfg.StepEvery <= 0 {
		cfg.StepEvery = 100 * time.Millisecond
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if s == nil {
		s = world.NewState()
	}
	h := &Host{
		eng:      eng,
		cfg:      cfg,
		logger:   logger,
		seq:      client.JournalSeq,
		lastWall: client.WallClockMs,
		inbox:    make(chan submitReq, 256),
		saves:    make(chan saveReq, 8),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	h.state.Store(s)
	return h
}

func (h *Host) SetJournal(j JournalSink)          { h.journal = j }
func (h *Host) SetSaveSink(ch chan<- SaveRequest) { h.saveSink = ch }
func (h *Host) State() *world.State               { return h.state.Load() }
func (h *Host) Engine() *world.Engine             { return h.eng }
func (h *Host) QueueDepth() int                   { return len(h.inbox) }
func (h *Host) Stop()                             { h.stopOnce.Do(func() { close(h.stop) }) }
func (h *Host) Done() <-chan struct{}             { return h.done }
func (h *Host) client() snapshot.Client           { return snapshot.Client{WallClockMs: h.lastWall, JournalSeq: h.seq} }

// CatchUp advances the state by the wall time elapsed since the save was
// written, capped by the engine's maximum advance. It must be called before
// Run and returns the simulated milliseconds granted.
func (h *Host) CatchUp(wallNowMs int64) int64 {
	if h.running.Load() {
		return 0
	}
	defer func() { h.lastWall = wallNowMs }()
	if h.lastWall <= 0 || wallNowMs <= h.lastWall {
		return 0
	}
	gap := wallNowMs - h.lastWall
	if limit := h.eng.Tuning().MaxAdvanceMs; gap > limit {
		h.logger.Printf("offline for %dms; capping catch-up to %dms", gap, limit)
		gap = limit
	}
	h.advance(gap)
	return gap
}

// Submit queues cmd for the loop and waits for its outcome.
func (h *Host) Submit(ctx context.Context, cmd world.Command) (Result, error) {
	resp := make(chan Result, 1)
	select {
	case h.inbox <- submitReq{cmd: cmd, resp: resp}:
	case <-h.done:
		return Result{}, ErrClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	select {
	case r := <-resp:
		return r, nil
	case <-h.done:
		return Result{}, ErrClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// RequestSave asks the loop to hand the current state to the save sink.
func (h *Host) RequestSave(ctx context.Context) (simNowMs int64, err error) {
	resp := make(chan saveResp, 1)
	select {
	case h.saves <- saveReq{reason: "manual", resp: resp}:
	case <-h.done:
		return 0, ErrClosed
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case r := <-resp:
		return r.simNowMs, r.err
	case <-h.done:
		return 0, ErrClosed
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Run drives the session until ctx is cancelled or Stop is called. A final
// save is offered to the sink on the way out.
func (h *Host) Run(ctx context.Context) error {
	if !h.running.CompareAndSwap(false, true) {
		return errors.New("session host already running")
	}
	defer close(h.done)

	ticker := time.NewTicker(h.cfg.StepEvery)
	defer ticker.Stop()

	var autosave <-chan time.Time
	if h.cfg.AutosaveEvery > 0 {
		t := time.NewTicker(h.cfg.AutosaveEvery)
		defer t.Stop()
		autosave = t.C
	}

	if h.lastWall <= 0 {
		h.lastWall = h.cfg.Now().UnixMilli()
	}

	for {
		select {
		case <-ctx.Done():
			h.catchWall()
			_ = h.offerSave("shutdown")
			return ctx.Err()
		case <-h.stop:
			h.catchWall()
			_ = h.offerSave("shutdown")
			return nil
		case r := <-h.inbox:
			h.catchWall()
			r.resp <- h.apply(r.cmd)
		case r := <-h.saves:
			h.catchWall()
			err := h.offerSave(r.reason)
			r.resp <- saveResp{simNowMs: h.State().SimNowMs, err: err}
		case <-autosave:
			h.catchWall()
			if err := h.offerSave("autosave"); err != nil {
				h.logger.Printf("autosave: %v", err)
			}
		case <-ticker.C:
			h.catchWall()
		}
	}
}

// catchWall feeds the engine the wall time elapsed since the last read.
func (h *Host) catchWall() {
	now := h.cfg.Now().UnixMilli()
	if now <= h.lastWall {
		return
	}
	delta := now - h.lastWall
	h.lastWall = now
	h.advance(delta)
}

func (h *Host) advance(delta int64) {
	prev := h.State()
	next := h.eng.Advance(prev, delta)
	if next == prev {
		return
	}
	h.state.Store(next)
	h.record(world.JournalEntry{Kind: world.JournalAdvance, DeltaMs: delta}, next)
}

func (h *Host) apply(cmd world.Command) Result {
	prev := h.State()
	next := h.eng.Apply(prev, cmd)
	applied := next != prev
	h.state.Store(next)

	e := world.JournalEntry{Kind: world.JournalCommand, NoOp: !applied}
	if cmd != nil {
		if raw, err := world.EncodeCommand(cmd); err == nil {
			e.Command = raw
		}
	}
	digest := h.record(e, next)
	return Result{Applied: applied, Seq: h.seq, SimNowMs: next.SimNowMs, Digest: digest}
}

func (h *Host) record(e world.JournalEntry, s *world.State) string {
	h.seq++
	digest := world.Digest(s)
	if h.journal == nil {
		return digest
	}
	e.Seq = h.seq
	e.SimNowMs = s.SimNowMs
	e.Digest = digest
	if err := h.journal.WriteEntry(e); err != nil {
		h.logger.Printf("journal seq=%d: %v", e.Seq, err)
	}
	return digest
}

func (h *Host) offerSave(reason string) error {
	if h.saveSink == nil {
		return errors.New("save sink not configured")
	}
	select {
	case h.saveSink <- SaveRequest{State: h.State(), Client: h.client(), Reason: reason}:
		return nil
	default:
		return errors.New("save sink busy")
	}
}
