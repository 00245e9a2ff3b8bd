package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"portsim/internal/persistence/snapshot"
	"portsim/internal/sim/world"
)

type MilestoneMeta struct {
	Milestone int    `json:"milestone"`
	Unlock    string `json:"unlock"`
	SimNowMs  int64  `json:"sim_now_ms"`
	Seed      uint32 `json:"seed"`
	Digest    string `json:"digest"`
	Save      string `json:"save"`
	CreatedAt string `json:"created_at"`
}

// ArchiveMilestone keeps a copy of the first save written after each new
// unlock under `dataDir/archives/unlock_<NNN>/`. Unlocks only grow within a
// session, so the unlock count numbers the milestones. A reset starts again
// from zero and never overwrites an existing milestone.
func ArchiveMilestone(dataDir, savePath string, h snapshot.Header, st *world.State) (milestone int, archivedPath string, archived bool, err error) {
	if st == nil || len(st.Unlocks) == 0 {
		return 0, "", false, nil
	}
	milestone = len(st.Unlocks)
	archiveDir := filepath.Join(dataDir, "archives", fmt.Sprintf("unlock_%03d", milestone))
	if _, err := os.Stat(archiveDir); err == nil {
		return milestone, "", false, nil
	}
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return 0, "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(savePath))
	if err := copyFile(savePath, dst); err != nil {
		return 0, "", false, err
	}

	meta := MilestoneMeta{
		Milestone: milestone,
		Unlock:    st.Unlocks[len(st.Unlocks)-1],
		SimNowMs:  h.SimNowMs,
		Seed:      st.Seed,
		Digest:    h.Digest,
		Save:      filepath.Base(dst),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644)
	}

	return milestone, dst, true, nil
}

// PruneAutosaves deletes all but the newest keep autosaves (*.save.lz4) in
// dataDir/saves. Manual and shutdown saves are left alone.
func PruneAutosaves(dataDir string, keep int) (removed int, err error) {
	dir := filepath.Join(dataDir, "saves")
	ents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	type auto struct {
		name string
		ms   int64
	}
	var autos []auto
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".save.lz4") {
			continue
		}
		ms, perr := strconv.ParseInt(strings.TrimSuffix(name, ".save.lz4"), 10, 64)
		if perr != nil {
			continue
		}
		autos = append(autos, auto{name: name, ms: ms})
	}
	if keep < 0 {
		keep = 0
	}
	if len(autos) <= keep {
		return 0, nil
	}
	sort.Slice(autos, func(i, j int) bool { return autos[i].ms > autos[j].ms })
	for _, a := range autos[keep:] {
		if rerr := os.Remove(filepath.Join(dir, a.name)); rerr != nil && !os.IsNotExist(rerr) {
			return removed, rerr
		}
		removed++
	}
	return removed, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
