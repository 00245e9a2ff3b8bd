package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"portsim/internal/persistence/indexdb"
	"portsim/internal/protocol"
	"portsim/internal/sim/session"
	"portsim/internal/sim/world"
	"portsim/internal/transport/ws"
)

type api struct {
	host   *session.Host
	idx    *indexdb.SQLiteIndex
	ws     *ws.Server
	logger *log.Logger

	// commands limits POST /v1/commands across all HTTP callers.
	commands *rate.Limiter
}

func newRouter(a *api, enableAdmin bool) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	}).Methods("GET")
	r.HandleFunc("/metrics", a.handleMetrics).Methods("GET")

	r.HandleFunc("/v1/state", a.handleState).Methods("GET")
	r.HandleFunc("/v1/ships/{ship}/preview/{route}", a.handlePreview).Methods("GET")
	r.HandleFunc("/v1/commands", a.handleCommand).Methods("POST")
	r.HandleFunc("/v1/ws", a.ws.Handler())

	if enableAdmin {
		admin := r.PathPrefix("/admin/v1").Subrouter()
		admin.Use(loopbackOnly)
		admin.HandleFunc("/state", a.handleAdminState).Methods("GET")
		admin.HandleFunc("/save", a.handleAdminSave).Methods("POST")
		admin.HandleFunc("/saves", a.handleAdminSaves).Methods("GET")
	} else if a.logger != nil {
		a.logger.Printf("admin endpoints disabled (PORTSIM_ENABLE_ADMIN_HTTP=false)")
	}
	return r
}

// GET /v1/state returns the STATUS view; ?full=1 returns the whole state.
func (a *api) handleState(rw http.ResponseWriter, r *http.Request) {
	s := a.host.State()
	if r.URL.Query().Get("full") == "1" {
		writeJSON(rw, http.StatusOK, s)
		return
	}
	writeJSON(rw, http.StatusOK, protocol.NewStatus(s))
}

func (a *api) handlePreview(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	p, ok := a.host.Engine().VoyagePreview(a.host.State(), vars["ship"], vars["route"])
	if !ok {
		writeJSON(rw, http.StatusNotFound, protocol.NewError(protocol.ErrProtoBadRequest, "unknown ship or route", ""))
		return
	}
	writeJSON(rw, http.StatusOK, p)
}

// POST /v1/commands takes the same body as a websocket COMMAND. type and
// protocol_version may be omitted.
func (a *api) handleCommand(rw http.ResponseWriter, r *http.Request) {
	var cm protocol.CommandMsg
	dec := json.NewDecoder(io.LimitReader(r.Body, 64*1024))
	if err := dec.Decode(&cm); err != nil {
		writeJSON(rw, http.StatusBadRequest, protocol.NewError(protocol.ErrProtoBadRequest, "malformed command", ""))
		return
	}
	if cm.ProtocolVersion != "" && cm.ProtocolVersion != protocol.Version {
		writeJSON(rw, http.StatusBadRequest, protocol.NewError(protocol.ErrProtoBadRequest, "bad protocol_version", cm.ReqID))
		return
	}
	if !a.commands.Allow() {
		writeJSON(rw, http.StatusTooManyRequests, protocol.NewError(protocol.ErrRateLimit, "too many commands", cm.ReqID))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	switch out := a.ws.Execute(ctx, cm).(type) {
	case protocol.ErrorMsg:
		status := http.StatusInternalServerError
		if out.Code == protocol.ErrSessionClosed {
			status = http.StatusServiceUnavailable
		}
		writeJSON(rw, status, out)
	default:
		writeJSON(rw, http.StatusOK, out)
	}
}

func (a *api) handleAdminState(rw http.ResponseWriter, r *http.Request) {
	resp := struct {
		Status     protocol.StatusMsg `json:"status"`
		QueueDepth int                `json:"queue_depth"`
		Index      *indexdb.Stats     `json:"index,omitempty"`
	}{
		Status:     protocol.NewStatus(a.host.State()),
		QueueDepth: a.host.QueueDepth(),
	}
	if a.idx != nil {
		st := a.idx.Stats()
		resp.Index = &st
	}
	writeJSON(rw, http.StatusOK, resp)
}

func (a *api) handleAdminSave(rw http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	simNow, err := a.host.RequestSave(ctx)
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		writeJSON(rw, status, map[string]any{"ok": false, "sim_now_ms": simNow, "error": err.Error()})
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"ok": true, "sim_now_ms": simNow})
}

func (a *api) handleAdminSaves(rw http.ResponseWriter, r *http.Request) {
	if a.idx == nil {
		writeJSON(rw, http.StatusNotFound, map[string]any{"ok": false, "error": "index disabled"})
		return
	}
	rows, err := a.idx.ListSaves(r.Context(), 50)
	if err != nil {
		writeJSON(rw, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"ok": true, "saves": rows})
}

func (a *api) handleMetrics(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
	s := a.host.State()

	// Minimal Prometheus exposition format.
	fmt.Fprintf(rw, "# HELP portsim_sim_now_ms Simulated time of the session.\n")
	fmt.Fprintf(rw, "# TYPE portsim_sim_now_ms gauge\n")
	fmt.Fprintf(rw, "portsim_sim_now_ms{mode=%q} %d\n", s.Mode, s.SimNowMs)

	gold, _ := s.Gold.Big().Float64()
	fmt.Fprintf(rw, "# HELP portsim_gold Current gold (approximate above 2^53).\n")
	fmt.Fprintf(rw, "# TYPE portsim_gold gauge\n")
	fmt.Fprintf(rw, "portsim_gold %g\n", gold)

	fmt.Fprintf(rw, "# HELP portsim_unlocks Number of unlocks granted.\n")
	fmt.Fprintf(rw, "# TYPE portsim_unlocks gauge\n")
	fmt.Fprintf(rw, "portsim_unlocks %d\n", len(s.Unlocks))

	open := 0
	for _, c := range s.Contracts {
		if c.Status == world.ContractOpen {
			open++
		}
	}
	fmt.Fprintf(rw, "# HELP portsim_open_contracts Open contracts.\n")
	fmt.Fprintf(rw, "# TYPE portsim_open_contracts gauge\n")
	fmt.Fprintf(rw, "portsim_open_contracts %d\n", open)

	fmt.Fprintf(rw, "# HELP portsim_host_queue_depth Commands waiting for the session loop.\n")
	fmt.Fprintf(rw, "# TYPE portsim_host_queue_depth gauge\n")
	fmt.Fprintf(rw, "portsim_host_queue_depth %d\n", a.host.QueueDepth())

	if a.idx == nil {
		return
	}
	st := a.idx.Stats()
	fmt.Fprintf(rw, "# HELP portsim_index_queue_depth Index writer backlog.\n")
	fmt.Fprintf(rw, "# TYPE portsim_index_queue_depth gauge\n")
	fmt.Fprintf(rw, "portsim_index_queue_depth %d\n", st.QueueDepth)

	fmt.Fprintf(rw, "# HELP portsim_index_queue_capacity Index writer queue capacity.\n")
	fmt.Fprintf(rw, "# TYPE portsim_index_queue_capacity gauge\n")
	fmt.Fprintf(rw, "portsim_index_queue_capacity %d\n", st.QueueCapacity)

	fmt.Fprintf(rw, "# HELP portsim_index_dropped_total Rows dropped because the index writer fell behind.\n")
	fmt.Fprintf(rw, "# TYPE portsim_index_dropped_total counter\n")
	fmt.Fprintf(rw, "portsim_index_dropped_total{table=%q} %d\n", "journal", st.DropJournalTotal)
	fmt.Fprintf(rw, "portsim_index_dropped_total{table=%q} %d\n", "saves", st.DropSaveTotal)
}

func loopbackOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(rw, r)
	})
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}
