package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"portsim/internal/persistence/snapshot"
	"portsim/internal/sim/world"
)

func TestArchiveMilestone_CopiesFirstSavePerUnlock(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "saves", "5000.save.zst")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatalf("mkdir saves: %v", err)
	}
	want := []byte("dummy")
	if err := os.WriteFile(src, want, 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}

	st := world.NewState()
	if _, _, ok, err := ArchiveMilestone(dir, src, snapshot.Header{}, st); ok || err != nil {
		t.Fatalf("no unlocks: ok=%v err=%v", ok, err)
	}

	st.Seed = 42
	st.Unlocks = []string{"dock_automation"}
	h := snapshot.Header{Version: 1, SimNowMs: 5000, Digest: "abc"}
	milestone, archivedPath, ok, err := ArchiveMilestone(dir, src, h, st)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !ok || milestone != 1 {
		t.Fatalf("ok=%v milestone=%d", ok, milestone)
	}
	got, err := os.ReadFile(archivedPath)
	if err != nil {
		t.Fatalf("read archived: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("archived content mismatch: got=%q want=%q", string(got), string(want))
	}

	b, err := os.ReadFile(filepath.Join(filepath.Dir(archivedPath), "meta.json"))
	if err != nil {
		t.Fatalf("expected meta.json to exist: %v", err)
	}
	var meta MilestoneMeta
	if err := json.Unmarshal(b, &meta); err != nil || meta.Unlock != "dock_automation" || meta.Seed != 42 || meta.SimNowMs != 5000 {
		t.Fatalf("meta=%+v err=%v", meta, err)
	}

	// A later save at the same milestone is not archived again.
	if _, _, ok, err := ArchiveMilestone(dir, src, h, st); ok || err != nil {
		t.Fatalf("second archive: ok=%v err=%v", ok, err)
	}
}

func TestPruneAutosaves(t *testing.T) {
	dir := t.TempDir()
	saves := filepath.Join(dir, "saves")
	if err := os.MkdirAll(saves, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"100.save.lz4", "300.save.lz4", "200.save.lz4", "50.save.zst", "400.save.lz4"} {
		if err := os.WriteFile(filepath.Join(saves, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	removed, err := PruneAutosaves(dir, 2)
	if err != nil || removed != 2 {
		t.Fatalf("removed=%d err=%v", removed, err)
	}
	for name, exists := range map[string]bool{
		"400.save.lz4": true,
		"300.save.lz4": true,
		"200.save.lz4": false,
		"100.save.lz4": false,
		"50.save.zst":  true,
	} {
		_, err := os.Stat(filepath.Join(saves, name))
		if (err == nil) != exists {
			t.Fatalf("%s: exists=%v want %v", name, err == nil, exists)
		}
	}
	if removed, err := PruneAutosaves(t.TempDir(), 1); removed != 0 || err != nil {
		t.Fatalf("missing dir: removed=%d err=%v", removed, err)
	}
}
