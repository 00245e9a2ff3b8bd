package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"portsim/internal/persistence/archive"
	"portsim/internal/persistence/indexdb"
	"portsim/internal/persistence/snapshot"
	"portsim/internal/sim/session"
	"portsim/internal/sim/world"
)

// saveWriter drains the host's save requests to <dataDir>/saves. Autosaves use
// lz4 for speed and only the newest keepAutosaves are kept; manual and
// shutdown saves use zstd. It returns when ch is closed.
func saveWriter(ch <-chan session.SaveRequest, dataDir string, keepAutosaves int, idx *indexdb.SQLiteIndex, logger *log.Logger) {
	for req := range ch {
		if req.State == nil {
			continue
		}
		ext := ".save.zst"
		if req.Reason == "autosave" {
			ext = ".save.lz4"
		}
		path := filepath.Join(dataDir, "saves", fmt.Sprintf("%d%s", req.State.SimNowMs, ext))
		h, err := snapshot.WriteFile(path, req.State, req.Client)
		if err != nil {
			logger.Printf("save write (%s): %v", req.Reason, err)
			continue
		}
		logger.Printf("saved %s sim_now_ms=%d reason=%s", filepath.Base(path), h.SimNowMs, req.Reason)
		if idx != nil {
			idx.RecordSave(path, h, req.State)
		}
		if m, archived, ok, err := archive.ArchiveMilestone(dataDir, path, h, req.State); err != nil {
			logger.Printf("archive milestone: %v", err)
		} else if ok {
			logger.Printf("archived unlock milestone %d: %s", m, archived)
		}
		if req.Reason == "autosave" {
			if _, err := archive.PruneAutosaves(dataDir, keepAutosaves); err != nil {
				logger.Printf("prune autosaves: %v", err)
			}
		}
	}
}

// latestSave returns the save with the highest sim time under dataDir/saves.
func latestSave(dataDir string) string {
	dir := filepath.Join(dataDir, "saves")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestMs int64 = -1
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		var base string
		switch {
		case strings.HasSuffix(name, ".save.zst"):
			base = strings.TrimSuffix(name, ".save.zst")
		case strings.HasSuffix(name, ".save.lz4"):
			base = strings.TrimSuffix(name, ".save.lz4")
		default:
			continue
		}
		ms, err := strconv.ParseInt(base, 10, 64)
		if err != nil {
			continue
		}
		// Same sim time: prefer the later file name (zst sorts after lz4).
		if ms > bestMs || (ms == bestMs && name > filepath.Base(best)) {
			bestMs = ms
			best = filepath.Join(dir, name)
		}
	}
	return best
}

// resume picks the save to continue from: an explicit path, then the newest
// save the index knows about, then the newest file on disk. It returns a nil
// state when there is nothing to resume.
func resume(ctx context.Context, e *world.Engine, explicit, dataDir string, idx *indexdb.SQLiteIndex, logger *log.Logger) (*world.State, snapshot.Client, string, error) {
	path := strings.TrimSpace(explicit)
	if path == "" && idx != nil {
		row, ok, err := idx.LatestSave(ctx)
		if err != nil {
			logger.Printf("index latest save: %v", err)
		} else if ok {
			if _, err := os.Stat(row.Path); err == nil {
				path = row.Path
			}
		}
	}
	if disk := latestSave(dataDir); disk != "" {
		if path == "" {
			path = disk
		} else if strings.TrimSpace(explicit) == "" && saveMs(disk) > saveMs(path) {
			path = disk
		}
	}
	if path == "" {
		return nil, snapshot.Client{}, "", nil
	}
	_, p, err := snapshot.LoadFile(path, e)
	if err != nil {
		return nil, snapshot.Client{}, path, fmt.Errorf("load %s: %w", path, err)
	}
	return p.State, p.Client, path, nil
}

func saveMs(path string) int64 {
	name := filepath.Base(path)
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	ms, err := strconv.ParseInt(name, 10, 64)
	if err != nil {
		return -1
	}
	return ms
}
