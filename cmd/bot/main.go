package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"portsim/internal/protocol"
	"portsim/internal/sim/catalogs"
	"portsim/internal/sim/world"
)

func main() {
	var (
		url        = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name       = flag.String("name", "bot", "client name")
		configDir  = flag.String("configs", "./configs", "config directory (catalog ids for payloads)")
		seed       = flag.Uint64("seed", 1, "command stream seed")
		count      = flag.Int("n", 0, "commands to send (0 = until interrupted)")
		every      = flag.Duration("every", 250*time.Millisecond, "delay between commands")
		invalidPct = flag.Int("invalid_pct", 10, "percent of deliberately invalid commands")
		newGame    = flag.Bool("start", true, "send start_game first when the session is at the title screen")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
		StatusEveryMs:   5000,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		logger.Fatalf("read WELCOME: %v", err)
	}
	_ = conn.SetReadDeadline(time.Time{})
	var w protocol.WelcomeMsg
	if err := json.Unmarshal(msg, &w); err != nil || w.Type != protocol.TypeWelcome {
		logger.Fatalf("expected WELCOME, got %s", msg)
	}
	logger.Printf("WELCOME step_ms=%d kinds=%d mode=%s sim_now_ms=%d", w.StepMs, len(w.CommandKinds), w.Status.Mode, w.Status.SimNowMs)
	if *newGame && w.Status.Mode == "title" {
		payload, _ := json.Marshal(world.StartGame{Seed: uint32(*seed)})
		start := protocol.CommandMsg{Type: protocol.TypeCommand, ProtocolVersion: protocol.Version, ReqID: "start", Kind: "start_game", Payload: payload}
		if err := conn.WriteJSON(start); err != nil {
			logger.Fatalf("send start_game: %v", err)
		}
	}

	// Reader: logs what the server says and forwards ACKs. Writes stay on the
	// main goroutine.
	acks := make(chan protocol.AckMsg, 64)
	go func() {
		defer close(acks)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				logger.Printf("read: %v", err)
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			switch base.Type {
			case protocol.TypeStatus:
				var st protocol.StatusMsg
				if err := json.Unmarshal(msg, &st); err != nil {
					continue
				}
				logger.Printf("STATUS sim_now_ms=%d gold=%s unlocks=%d open_contracts=%d", st.SimNowMs, st.Gold, len(st.Unlocks), st.OpenContracts)
			case protocol.TypeAck:
				var a protocol.AckMsg
				if err := json.Unmarshal(msg, &a); err != nil {
					continue
				}
				acks <- a
			case protocol.TypeError:
				var em protocol.ErrorMsg
				_ = json.Unmarshal(msg, &em)
				logger.Printf("ERROR code=%s req=%s %s", em.Code, em.ReqID, em.Message)
				if em.Code == protocol.ErrSessionBusy || em.Code == protocol.ErrSessionClosed {
					return
				}
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	gen := newGenerator(*seed, cats, *invalidPct)
	ticker := time.NewTicker(*every)
	defer ticker.Stop()
	tally := map[string]int{}
	sent := 0
	for *count == 0 || sent < *count {
		select {
		case <-stop:
			report(logger, sent, tally)
			return
		case a, ok := <-acks:
			if !ok {
				report(logger, sent, tally)
				return
			}
			tally[ackKey(a)]++
			continue
		case <-ticker.C:
		}
		m := gen.next()
		if err := conn.WriteJSON(m); err != nil {
			logger.Printf("send: %v", err)
			break
		}
		sent++
	}

	// Drain the remaining ACKs briefly.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case a, ok := <-acks:
			if !ok {
				report(logger, sent, tally)
				return
			}
			tally[ackKey(a)]++
		case <-deadline:
			report(logger, sent, tally)
			return
		}
	}
}

func ackKey(a protocol.AckMsg) string {
	if a.Accepted {
		return "accepted"
	}
	return a.Code
}

func report(logger *log.Logger, sent int, tally map[string]int) {
	logger.Printf("sent=%d acks=%v", sent, tally)
}
