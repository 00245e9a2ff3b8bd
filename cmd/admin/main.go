package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"portsim/internal/persistence/snapshot"
	"portsim/internal/sim/world"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "inspect":
			inspectCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "save":
			saveCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

type saveFile struct {
	name     string
	simNowMs int64
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	dir := filepath.Join(*dataDir, "saves")
	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	var files []saveFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, ".save.zst") || strings.HasSuffix(name, ".save.lz4")) {
			continue
		}
		ms, err := strconv.ParseInt(name[:strings.IndexByte(name, '.')], 10, 64)
		if err != nil {
			continue
		}
		files = append(files, saveFile{name: name, simNowMs: ms})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].simNowMs < files[j].simNowMs })
	for _, f := range files {
		h, _, err := snapshot.ReadFile(filepath.Join(dir, f.name))
		if err != nil {
			fmt.Printf("%-28s unreadable: %v\n", f.name, err)
			continue
		}
		fmt.Printf("%-28s v%d sim_now_ms=%d digest=%s\n", f.name, h.Version, h.SimNowMs, h.Digest)
	}
}

func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	savePath := fs.String("save", "", "save file to inspect")
	full := fs.Bool("full", false, "print the whole payload")
	_ = fs.Parse(args)

	if strings.TrimSpace(*savePath) == "" {
		fmt.Fprintln(os.Stderr, "missing -save")
		os.Exit(2)
	}
	h, raw, err := snapshot.ReadFile(*savePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read save:", err)
		os.Exit(1)
	}
	if *full {
		fmt.Println(string(raw))
		return
	}
	// Decode without an engine: schema and version checks only.
	p, err := snapshot.Decode(raw, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "decode save:", err)
		os.Exit(1)
	}
	s := p.State
	fmt.Print(summary(h, p))
	if got := world.Digest(s); got != h.Digest {
		fmt.Printf("digest MISMATCH: header=%s state=%s\n", h.Digest, got)
		os.Exit(1)
	}
}

func summary(h snapshot.Header, p snapshot.Payload) string {
	s := p.State
	var b strings.Builder
	fmt.Fprintf(&b, "version:        %d\n", h.Version)
	fmt.Fprintf(&b, "sim_now_ms:     %d\n", s.SimNowMs)
	fmt.Fprintf(&b, "digest:         %s\n", h.Digest)
	fmt.Fprintf(&b, "wall_clock_ms:  %d\n", p.Client.WallClockMs)
	fmt.Fprintf(&b, "journal_seq:    %d\n", p.Client.JournalSeq)
	fmt.Fprintf(&b, "mode:           %s\n", s.Mode)
	fmt.Fprintf(&b, "seed:           %d\n", s.Seed)
	fmt.Fprintf(&b, "gold:           %s\n", s.Gold)
	fmt.Fprintf(&b, "tutorial_stage: %d\n", s.TutorialStage)
	fmt.Fprintf(&b, "unlocks:        %s\n", strings.Join(s.Unlocks, ","))
	fmt.Fprintf(&b, "ship:           %s (%s) at %s crew=%d condition=%d voyage=%s\n",
		s.Ship.ID, s.Ship.ClassID, s.Ship.Location, s.Ship.Crew, s.Ship.Condition, s.Ship.Voyage.Status)
	fmt.Fprintf(&b, "fleet:          %d\n", len(s.Fleet))

	byStatus := map[string]int{}
	for _, c := range s.Contracts {
		byStatus[string(c.Status)]++
	}
	keys := make([]string, 0, len(byStatus))
	for k := range byStatus {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, byStatus[k]))
	}
	fmt.Fprintf(&b, "contracts:      %s\n", strings.Join(parts, " "))

	ids := make([]string, 0, len(s.Warehouses))
	for id := range s.Warehouses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	fmt.Fprintf(&b, "warehouses:     %s\n", strings.Join(ids, ","))
	return b.String()
}
