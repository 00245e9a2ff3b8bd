package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"portsim/internal/protocol"
	"portsim/internal/sim/session"
	"portsim/internal/sim/world"
)

type Options struct {
	// StatusEvery is the default STATUS push period; HELLO may override it.
	StatusEvery time.Duration
	// CommandsPerSec and Burst size the per-connection token bucket.
	CommandsPerSec float64
	Burst          int
}

// Server exposes the single session over websocket. Only one connection may
// drive it at a time.
type Server struct {
	host *session.Host
	log  *log.Logger
	opts Options

	active atomic.Bool
	kinds  map[string]struct{}

	upgrader websocket.Upgrader
}

func NewServer(h *session.Host, logger *log.Logger, opts Options) *Server {
	if opts.StatusEvery <= 0 {
		opts.StatusEvery = time.Second
	}
	if opts.CommandsPerSec <= 0 {
		opts.CommandsPerSec = 20
	}
	if opts.Burst <= 0 {
		opts.Burst = 40
	}
	kinds := map[string]struct{}{}
	for _, k := range world.CommandKinds() {
		kinds[k] = struct{}{}
	}
	return &Server{
		host:  h,
		log:   logger,
		opts:  opts,
		kinds: kinds,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		statusEvery, ok := s.handshake(conn)
		if !ok {
			return
		}
		defer s.active.Store(false)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		out := make(chan []byte, 32)

		// Writer goroutine. STATUS pushes go through the same queue.
		go func() {
			ticker := time.NewTicker(statusEvery)
			defer ticker.Stop()
			for {
				var b []byte
				select {
				case <-ctx.Done():
					return
				case <-s.host.Done():
					_ = writeJSON(conn, protocol.NewError(protocol.ErrSessionClosed, "session stopped", ""))
					cancel()
					_ = conn.Close()
					return
				case b = <-out:
				case <-ticker.C:
					b, _ = json.Marshal(protocol.NewStatus(s.host.State()))
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					cancel()
					return
				}
			}
		}()

		limiter := rate.NewLimiter(rate.Limit(s.opts.CommandsPerSec), s.opts.Burst)
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			reply := s.handleMessage(ctx, limiter, msg)
			if reply == nil {
				continue
			}
			b, err := json.Marshal(reply)
			if err != nil {
				continue
			}
			select {
			case out <- b:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Server) handleMessage(ctx context.Context, limiter *rate.Limiter, msg []byte) any {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return protocol.NewError(protocol.ErrProtoBadRequest, "malformed message", "")
	}
	if base.Type != protocol.TypeCommand {
		return protocol.NewError(protocol.ErrProtoBadRequest, "unexpected message type "+base.Type, "")
	}
	var cm protocol.CommandMsg
	if err := json.Unmarshal(msg, &cm); err != nil || cm.ProtocolVersion != protocol.Version {
		return protocol.NewError(protocol.ErrProtoBadRequest, "bad COMMAND", cm.ReqID)
	}
	if !limiter.Allow() {
		return protocol.NewError(protocol.ErrRateLimit, "too many commands", cm.ReqID)
	}
	return s.Execute(ctx, cm)
}

// Execute runs one COMMAND against the host and returns the ACK, or an
// ERROR when the host cannot take it. Rate limiting is left to the caller.
func (s *Server) Execute(ctx context.Context, cm protocol.CommandMsg) any {
	ack := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          cm.ReqID,
		SimNowMs:        s.host.State().SimNowMs,
	}
	if _, ok := s.kinds[cm.Kind]; !ok {
		ack.Code = protocol.ErrUnknownCommand
		return ack
	}
	cmd := world.DecodeEnvelope(cm.Envelope())
	if cmd == nil {
		ack.Code = protocol.ErrBadPayload
		return ack
	}

	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := s.host.Submit(sctx, cmd)
	switch {
	case errors.Is(err, session.ErrClosed):
		return protocol.NewError(protocol.ErrSessionClosed, "session stopped", cm.ReqID)
	case err != nil:
		return protocol.NewError(protocol.ErrInternal, err.Error(), cm.ReqID)
	}
	ack.Accepted = res.Applied
	ack.Seq = res.Seq
	ack.SimNowMs = res.SimNowMs
	ack.Digest = res.Digest
	if !res.Applied {
		ack.Code = protocol.ErrRejected
	}
	return ack
}

func (s *Server) handshake(conn *websocket.Conn) (statusEvery time.Duration, ok bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return 0, false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return 0, false
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return 0, false
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return 0, false
	}
	if hello.ClientName == "" {
		hello.ClientName = "client"
	}

	statusEvery = s.opts.StatusEvery
	if hello.StatusEveryMs > 0 {
		statusEvery = time.Duration(hello.StatusEveryMs) * time.Millisecond
		if statusEvery < 50*time.Millisecond {
			statusEvery = 50 * time.Millisecond
		}
	}

	if !s.active.CompareAndSwap(false, true) {
		_ = writeJSON(conn, protocol.NewError(protocol.ErrSessionBusy, "another client is driving the session", ""))
		return 0, false
	}
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		StepMs:          s.host.Engine().Tuning().StepMs,
		CommandKinds:    world.CommandKinds(),
		Status:          protocol.NewStatus(s.host.State()),
	}
	if err := writeJSON(conn, welcome); err != nil {
		s.active.Store(false)
		return 0, false
	}
	if s.log != nil {
		s.log.Printf("client %q connected (status every %s)", hello.ClientName, statusEvery)
	}
	return statusEvery, true
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
