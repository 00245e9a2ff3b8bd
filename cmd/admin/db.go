package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"portsim/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (optional; defaults to <data>/index/portsim.sqlite)")
	limit := fs.Int("limit", 20, "result limit")
	after := fs.Int64("after_seq", 0, "journal: list entries after this seq")
	_ = fs.Parse(args)

	q := "saves"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "portsim.sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "index:", err)
		os.Exit(1)
	}
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer idx.Close()

	ctx := context.Background()
	var out any
	switch q {
	case "saves":
		out, err = idx.ListSaves(ctx, *limit)
	case "latest":
		row, ok, lerr := idx.LatestSave(ctx)
		if lerr == nil && !ok {
			fmt.Fprintln(os.Stderr, "no saves recorded")
			os.Exit(2)
		}
		out, err = row, lerr
	case "journal":
		out, err = idx.JournalSince(ctx, *after, *limit)
	case "commands":
		out, err = commandTable(ctx, idx)
	default:
		fmt.Fprintf(os.Stderr, "unknown query %q (want saves|latest|journal|commands)\n", q)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

type commandCount struct {
	Kind    string `json:"kind"`
	Applied int64  `json:"applied"`
	NoOp    int64  `json:"no_op"`
}

func commandTable(ctx context.Context, idx *indexdb.SQLiteIndex) ([]commandCount, error) {
	counts, err := idx.CommandCounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]commandCount, 0, len(counts))
	for kind, c := range counts {
		out = append(out, commandCount{Kind: kind, Applied: c[0], NoOp: c[1]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out, nil
}
