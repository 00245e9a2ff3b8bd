package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	persistlog "portsim/internal/persistence/log"
	"portsim/internal/persistence/snapshot"
	"portsim/internal/sim/catalogs"
	"portsim/internal/sim/session"
	"portsim/internal/sim/tuning"
	"portsim/internal/sim/world"
	"portsim/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the save/journal index")

		savePath   = flag.String("save", "", "path to a save to resume (optional)")
		loadLatest = flag.Bool("load_latest_save", true, "resume the latest save from the data dir if present (when -save is empty)")
		autosave   = flag.Duration("autosave", time.Minute, "autosave interval (0 disables)")
		keepAutos  = flag.Int("keep_autosaves", 10, "autosave files to keep")
		statusPush = flag.Duration("status_every", time.Second, "default websocket STATUS push interval")
		strict     = flag.Bool("strict_checks", false, "panic on invariant violations instead of logging them")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	checks := world.ChecksReport
	if *strict {
		checks = world.ChecksStrict
	}
	violations := log.New(os.Stdout, "[invariants] ", log.LstdFlags|log.Lmicroseconds)
	eng, err := world.New(world.Config{
		Tuning:      tune,
		Checks:      checks,
		OnViolation: func(err error) { violations.Printf("%v", err) },
	}, cats)
	if err != nil {
		logger.Fatalf("engine: %v", err)
	}
	_ = os.MkdirAll(*dataDir, 0o755)

	// Optional read model (does not affect sim determinism).
	idx, err := openIndex(*dataDir, *disableDB, logger)
	if err != nil {
		logger.Fatalf("open index: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	var (
		st     *world.State
		client snapshot.Client
		from   string
	)
	if *savePath != "" || *loadLatest {
		st, client, from, err = resume(ctx, eng, *savePath, *dataDir, idx, logger)
		if err != nil {
			logger.Fatalf("resume: %v", err)
		}
	}

	hostLog := log.New(os.Stdout, "[session] ", log.LstdFlags|log.Lmicroseconds)
	host := session.NewHost(eng, st, client, session.Config{AutosaveEvery: *autosave}, hostLog)

	journal := persistlog.NewJournalLogger(*dataDir)
	sink := multiJournal{file: journal}
	if idx != nil {
		sink.index = idx
	}
	host.SetJournal(sink)

	if st != nil {
		granted := host.CatchUp(time.Now().UnixMilli())
		logger.Printf("resumed from save=%s sim_now_ms=%d offline_ms=%d", filepath.Base(from), host.State().SimNowMs, granted)
	} else {
		logger.Printf("no save found; starting at the title screen")
	}

	saves := make(chan session.SaveRequest, 2)
	host.SetSaveSink(saves)
	saverDone := make(chan struct{})
	go func() {
		defer close(saverDone)
		saveWriter(saves, *dataDir, *keepAutos, idx, logger)
	}()

	go func() {
		if err := host.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("session stopped: %v", err)
		}
	}()

	wsSrv := ws.NewServer(host, log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lmicroseconds), ws.Options{StatusEvery: *statusPush})
	a := &api{
		host:     host,
		idx:      idx,
		ws:       wsSrv,
		logger:   logger,
		commands: rate.NewLimiter(rate.Limit(envInt("PORTSIM_HTTP_COMMANDS_PER_SEC", 20)), envInt("PORTSIM_HTTP_COMMAND_BURST", 40)),
	}
	router := newRouter(a, envBool("PORTSIM_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()))
	if envBool("PORTSIM_ENABLE_PPROF_HTTP", false) {
		router.HandleFunc("/debug/pprof/", pprof.Index)
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (PORTSIM_ENABLE_PPROF_HTTP=false)")
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}

	// The host offers a shutdown save on its way out; let it land before the
	// index and the journal close.
	cancel()
	<-host.Done()
	close(saves)
	<-saverDone
	_ = journal.Close()
	if idx != nil {
		fctx, fcancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = idx.Flush(fctx)
		fcancel()
		_ = idx.Close()
	}
	logger.Printf("stopped at sim_now_ms=%d", host.State().SimNowMs)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
