package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	persistlog "portsim/internal/persistence/log"
	"portsim/internal/persistence/snapshot"
	"portsim/internal/sim/catalogs"
	"portsim/internal/sim/session"
	"portsim/internal/sim/tuning"
	"portsim/internal/sim/world"
)

func main() {
	var (
		savePath   = flag.String("save", "", "path to a .save.zst/.save.lz4 to start from (optional; empty replays from the title screen)")
		dataDir    = flag.String("data", "./data", "data dir containing journal/journal-*.jsonl.zst")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		toSeq      = flag.Uint64("to_seq", 0, "stop after this journal seq (inclusive, optional)")
		out        = flag.String("out", "", "write the replayed state to this save path (optional)")
	)
	flag.Parse()

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fatal("load catalogs", err)
	}
	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		fatal("load tuning", err)
	}
	eng, err := world.New(world.Config{Tuning: tune, Checks: world.ChecksStrict}, cats)
	if err != nil {
		fatal("engine", err)
	}

	start := world.NewState()
	var afterSeq uint64
	if *savePath != "" {
		h, p, err := snapshot.LoadFile(*savePath, eng)
		if err != nil {
			fatal("load save", err)
		}
		start = p.State
		afterSeq = p.Client.JournalSeq
		fmt.Printf("save v%d sim_now_ms=%d journal_seq=%d mode=%s gold=%s contracts=%d fleet=%d digest=%s\n",
			h.Version, h.SimNowMs, afterSeq, start.Mode, start.Gold, len(start.Contracts), len(start.Fleet), h.Digest)
	}

	files, err := persistlog.JournalFiles(*dataDir)
	if err != nil {
		fatal("list journal", err)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no journal files under", filepath.Join(*dataDir, "journal"))
		os.Exit(1)
	}
	entries, err := persistlog.ReadJournal(files)
	if err != nil {
		fatal("read journal", err)
	}
	entries = session.Linearize(entries)
	if *toSeq > 0 {
		cut := len(entries)
		for i, en := range entries {
			if en.Seq > *toSeq {
				cut = i
				break
			}
		}
		entries = entries[:cut]
	}

	final, checked, err := session.Replay(eng, start, afterSeq, entries)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay failed after %d entries: %v\n", checked, err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d files=%d sim_now_ms=%d digest=%s\n", checked, len(files), final.SimNowMs, world.Digest(final))

	if *out != "" {
		var lastSeq uint64
		if n := len(entries); n > 0 && entries[n-1].Seq > afterSeq {
			lastSeq = entries[n-1].Seq
		} else {
			lastSeq = afterSeq
		}
		if _, err := snapshot.WriteFile(*out, final, snapshot.Client{JournalSeq: lastSeq}); err != nil {
			fatal("write save", err)
		}
		fmt.Printf("wrote %s\n", *out)
	}
}

func fatal(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}
