package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"portsim/internal/persistence/snapshot"
	"portsim/internal/protocol"
	"portsim/internal/sim/catalogs"
	"portsim/internal/sim/session"
	"portsim/internal/sim/tuning"
	"portsim/internal/sim/world"
	"portsim/internal/transport/ws"
)

func newTestEngine(t *testing.T) *world.Engine {
	t.Helper()
	cats, err := catalogs.Load("../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	tun, err := tuning.Load("../../configs/tuning.yaml")
	if err != nil {
		t.Fatalf("load tuning: %v", err)
	}
	e, err := world.New(world.Config{Tuning: tun, Checks: world.ChecksStrict}, cats)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e
}

func newTestAPI(t *testing.T, burst int) (*api, chan session.SaveRequest) {
	t.Helper()
	h := session.NewHost(newTestEngine(t), nil, snapshot.Client{}, session.Config{}, nil)
	saves := make(chan session.SaveRequest, 4)
	h.SetSaveSink(saves)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = h.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-h.Done()
	})
	return &api{
		host:     h,
		ws:       ws.NewServer(h, nil, ws.Options{}),
		commands: rate.NewLimiter(rate.Every(time.Hour), burst),
	}, saves
}

func do(t *testing.T, h http.Handler, method, path, body, remote string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if remote != "" {
		req.RemoteAddr = remote
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCommandEndpoint(t *testing.T) {
	a, _ := newTestAPI(t, 10)
	r := newRouter(a, false)

	rec := do(t, r, "POST", "/v1/commands", `{"req_id":"1","kind":"start_game","payload":{"seed":4}}`, "")
	var ack protocol.AckMsg
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil || rec.Code != 200 {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
	if !ack.Accepted || ack.AckFor != "1" || ack.Digest != world.Digest(a.host.State()) {
		t.Fatalf("ack=%+v", ack)
	}

	rec = do(t, r, "POST", "/v1/commands", `{"req_id":"2","kind":"buy_ship","payload":{"class_id":"frigate"}}`, "")
	_ = json.Unmarshal(rec.Body.Bytes(), &ack)
	if ack.Accepted || ack.Code != protocol.ErrRejected {
		t.Fatalf("unaffordable ship ack=%+v", ack)
	}

	rec = do(t, r, "POST", "/v1/commands", `{"req_id":"3","kind":"sink_ship"}`, "")
	_ = json.Unmarshal(rec.Body.Bytes(), &ack)
	if ack.Code != protocol.ErrUnknownCommand {
		t.Fatalf("unknown ack=%+v", ack)
	}

	if rec = do(t, r, "POST", "/v1/commands", `{"kind":`, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body code=%d", rec.Code)
	}
	if rec = do(t, r, "GET", "/v1/commands", "", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET code=%d", rec.Code)
	}
}

func TestCommandEndpointRateLimit(t *testing.T) {
	a, _ := newTestAPI(t, 1)
	r := newRouter(a, false)

	if rec := do(t, r, "POST", "/v1/commands", `{"req_id":"a","kind":"dock_work"}`, ""); rec.Code != 200 {
		t.Fatalf("first code=%d", rec.Code)
	}
	rec := do(t, r, "POST", "/v1/commands", `{"req_id":"b","kind":"dock_work"}`, "")
	var em protocol.ErrorMsg
	_ = json.Unmarshal(rec.Body.Bytes(), &em)
	if rec.Code != http.StatusTooManyRequests || em.Code != protocol.ErrRateLimit || em.ReqID != "b" {
		t.Fatalf("code=%d err=%+v", rec.Code, em)
	}
}

func TestStateAndPreview(t *testing.T) {
	a, _ := newTestAPI(t, 10)
	r := newRouter(a, false)
	do(t, r, "POST", "/v1/commands", `{"req_id":"1","kind":"start_game","payload":{"seed":4}}`, "")

	var st protocol.StatusMsg
	rec := do(t, r, "GET", "/v1/state", "", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil || st.Mode != "session" {
		t.Fatalf("state=%s", rec.Body)
	}

	var full world.State
	rec = do(t, r, "GET", "/v1/state?full=1", "", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &full); err != nil || full.Seed != 4 {
		t.Fatalf("full state=%s", rec.Body)
	}

	ship := a.host.State().Ship.ID
	var p world.VoyagePreview
	rec = do(t, r, "GET", "/v1/ships/"+ship+"/preview/pr_tortuga", "", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil || rec.Code != 200 || p.RouteID != "pr_tortuga" || p.DurationMs <= 0 {
		t.Fatalf("preview code=%d body=%s", rec.Code, rec.Body)
	}
	if rec = do(t, r, "GET", "/v1/ships/"+ship+"/preview/nowhere", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown route code=%d", rec.Code)
	}
}

func TestAdminEndpoints(t *testing.T) {
	a, saves := newTestAPI(t, 10)

	if rec := do(t, newRouter(a, false), "POST", "/admin/v1/save", "", "127.0.0.1:4000"); rec.Code != http.StatusNotFound {
		t.Fatalf("disabled admin code=%d", rec.Code)
	}

	r := newRouter(a, true)
	if rec := do(t, r, "POST", "/admin/v1/save", "", "192.0.2.1:4000"); rec.Code != http.StatusForbidden {
		t.Fatalf("remote admin code=%d", rec.Code)
	}
	rec := do(t, r, "POST", "/admin/v1/save", "", "127.0.0.1:4000")
	if rec.Code != 200 {
		t.Fatalf("save code=%d body=%s", rec.Code, rec.Body)
	}
	select {
	case req := <-saves:
		if req.Reason != "manual" {
			t.Fatalf("reason=%q", req.Reason)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no save request")
	}

	if rec := do(t, r, "GET", "/admin/v1/saves", "", "[::1]:4000"); rec.Code != http.StatusNotFound {
		t.Fatalf("saves without index code=%d", rec.Code)
	}
	if rec := do(t, r, "GET", "/admin/v1/state", "", "[::1]:4000"); rec.Code != 200 || !strings.Contains(rec.Body.String(), `"queue_depth"`) {
		t.Fatalf("admin state code=%d body=%s", rec.Code, rec.Body)
	}
}

func TestMetrics(t *testing.T) {
	a, _ := newTestAPI(t, 10)
	rec := do(t, newRouter(a, false), "GET", "/metrics", "", "")
	body := rec.Body.String()
	for _, want := range []string{`portsim_sim_now_ms{mode="title"} 0`, "portsim_gold 0", "portsim_host_queue_depth"} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "portsim_index_") {
		t.Fatalf("index metrics without an index")
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	for addr, want := range map[string]bool{
		"127.0.0.1:80": true,
		"[::1]:80":     true,
		"10.0.0.2:80":  false,
		"garbage":      false,
	} {
		if got := isLoopbackRemote(addr); got != want {
			t.Fatalf("%s: got %v", addr, got)
		}
	}
}
