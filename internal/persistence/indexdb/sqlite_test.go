package indexdb

import (
	"context"
	"path/filepath"
	"testing"

	"portsim/internal/persistence/snapshot"
	"portsim/internal/sim/world"
)

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqJournal}

	_ = s.WriteEntry(world.JournalEntry{Seq: 2})
	s.RecordSave("/tmp/x.save.zst", snapshot.Header{}, world.NewState())

	st := s.Stats()
	if st.DropJournalTotal != 1 {
		t.Fatalf("DropJournalTotal=%d want=1", st.DropJournalTotal)
	}
	if st.DropSaveTotal != 1 {
		t.Fatalf("DropSaveTotal=%d want=1", st.DropSaveTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestSQLiteIndex_SavesAndJournal(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, ok, err := idx.LatestSave(ctx); err != nil || ok {
		t.Fatalf("empty index: ok=%v err=%v", ok, err)
	}

	st := world.NewState()
	st.Mode = world.ModeSession
	st.Seed = 77
	st.Gold = world.NewAmount(1234)
	idx.RecordSave("saves/a.save.zst", snapshot.Header{Version: 1, SimNowMs: 1000, Digest: "d1"}, st)
	idx.RecordSave("saves/b.save.zst", snapshot.Header{Version: 1, SimNowMs: 2000, Digest: "d2"}, st)

	entries := []world.JournalEntry{
		{Seq: 1, Kind: world.JournalCommand, Command: []byte(`{"kind":"dock_work"}`), Digest: "x"},
		{Seq: 2, Kind: world.JournalAdvance, DeltaMs: 500, SimNowMs: 500, Digest: "y"},
		{Seq: 3, Kind: world.JournalCommand, Command: []byte(`{"kind":"dock_work"}`), SimNowMs: 500, NoOp: true, Digest: "y"},
		{Seq: 4, Kind: world.JournalCommand, Command: []byte(`{"kind":"hire_crew","payload":{"count":1}}`), SimNowMs: 500, Digest: "z"},
	}
	for _, e := range entries {
		if err := idx.WriteEntry(e); err != nil {
			t.Fatalf("write entry: %v", err)
		}
	}
	if err := idx.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	latest, ok, err := idx.LatestSave(ctx)
	if err != nil || !ok {
		t.Fatalf("latest: ok=%v err=%v", ok, err)
	}
	if latest.Path != "saves/b.save.zst" || latest.Gold != "1234" || latest.Seed != 77 || latest.Mode != "session" || latest.Ships != 1 {
		t.Fatalf("latest=%+v", latest)
	}
	saves, err := idx.ListSaves(ctx, 10)
	if err != nil || len(saves) != 2 || saves[1].Digest != "d1" {
		t.Fatalf("saves=%+v err=%v", saves, err)
	}

	rows, err := idx.JournalSince(ctx, 1, 0)
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	if len(rows) != 3 || rows[0].Seq != 2 || rows[0].DeltaMs != 500 || rows[2].CommandKind != "hire_crew" {
		t.Fatalf("journal rows=%+v", rows)
	}

	counts, err := idx.CommandCounts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts["dock_work"] != [2]int64{1, 1} || counts["hire_crew"] != [2]int64{1, 0} {
		t.Fatalf("counts=%v", counts)
	}

	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Writes after close are ignored.
	_ = idx.WriteEntry(world.JournalEntry{Seq: 9})

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if latest, ok, _ := reopened.LatestSave(ctx); !ok || latest.Digest != "d2" {
		t.Fatalf("reopened latest=%+v ok=%v", latest, ok)
	}
}
