package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"portsim/internal/persistence/snapshot"
	"portsim/internal/sim/world"
)

// SQLiteIndex is a queryable read model of saves and journal entries. The
// save file and the JSONL journal stay the source of truth; rows are written
// by one goroutine in batched transactions and dropped when it falls behind.
type SQLiteIndex struct {
	db *sqlx.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropJournal atomic.Uint64
	dropSave    atomic.Uint64
}

type Stats struct {
	QueueDepth       int    `json:"queue_depth"`
	QueueCapacity    int    `json:"queue_capacity"`
	DropJournalTotal uint64 `json:"drop_journal_total"`
	DropSaveTotal    uint64 `json:"drop_save_total"`
}

// SaveRow is one recorded save.
type SaveRow struct {
	Path       string `db:"path" json:"path"`
	SimNowMs   int64  `db:"sim_now_ms" json:"sim_now_ms"`
	Digest     string `db:"digest" json:"digest"`
	Seed       int64  `db:"seed" json:"seed"`
	Mode       string `db:"mode" json:"mode"`
	Gold       string `db:"gold" json:"gold"`
	Contracts  int    `db:"contracts" json:"contracts"`
	Ships      int    `db:"ships" json:"ships"`
	RecordedAt string `db:"recorded_at" json:"recorded_at"`
}

// JournalRow is one indexed journal entry.
type JournalRow struct {
	Seq         int64  `db:"seq" json:"seq"`
	SimNowMs    int64  `db:"sim_now_ms" json:"sim_now_ms"`
	Kind        string `db:"kind" json:"kind"`
	CommandKind string `db:"command_kind" json:"command_kind,omitempty"`
	DeltaMs     int64  `db:"delta_ms" json:"delta_ms,omitempty"`
	NoOp        bool   `db:"no_op" json:"no_op,omitempty"`
	Digest      string `db:"digest" json:"digest"`
}

type reqKind int

const (
	reqJournal reqKind = iota + 1
	reqSave
	reqFlush
)

type req struct {
	kind reqKind

	journal JournalRow
	save    SaveRow
	done    chan struct{}
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	return openSQLite(path, 65536)
}

func openSQLite(path string, queue int) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s := &SQLiteIndex{db: db, ch: make(chan req, queue)}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func migrate(db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS saves (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		sim_now_ms INTEGER NOT NULL,
		digest TEXT NOT NULL,
		seed INTEGER NOT NULL,
		mode TEXT NOT NULL,
		gold TEXT NOT NULL,
		contracts INTEGER NOT NULL,
		ships INTEGER NOT NULL,
		recorded_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS journal (
		seq INTEGER PRIMARY KEY,
		sim_now_ms INTEGER NOT NULL,
		kind TEXT NOT NULL,
		command_kind TEXT NOT NULL,
		delta_ms INTEGER NOT NULL,
		no_op INTEGER NOT NULL,
		digest TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_journal_command_kind ON journal(command_kind, seq);
	CREATE INDEX IF NOT EXISTS idx_saves_sim_now ON saves(sim_now_ms);
	`
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	_, err := db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`)
	return err
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:       len(s.ch),
		QueueCapacity:    cap(s.ch),
		DropJournalTotal: s.dropJournal.Load(),
		DropSaveTotal:    s.dropSave.Load(),
	}
}

// WriteEntry queues a journal entry. It never blocks the caller.
func (s *SQLiteIndex) WriteEntry(e world.JournalEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	row := JournalRow{
		Seq:      int64(e.Seq),
		SimNowMs: e.SimNowMs,
		Kind:     e.Kind,
		DeltaMs:  e.DeltaMs,
		NoOp:     e.NoOp,
		Digest:   e.Digest,
	}
	if len(e.Command) > 0 {
		var env world.CommandEnvelope
		if err := json.Unmarshal(e.Command, &env); err == nil {
			row.CommandKind = env.Kind
		}
	}
	select {
	case s.ch <- req{kind: reqJournal, journal: row}:
	default:
		s.dropJournal.Add(1)
	}
	return nil
}

// RecordSave queues a row describing the save written at path.
func (s *SQLiteIndex) RecordSave(path string, h snapshot.Header, st *world.State) {
	if s == nil || s.closed.Load() || st == nil {
		return
	}
	r := SaveRow{
		Path:       path,
		SimNowMs:   h.SimNowMs,
		Digest:     h.Digest,
		Seed:       int64(st.Seed),
		Mode:       string(st.Mode),
		Gold:       st.Gold.String(),
		Contracts:  len(st.Contracts),
		Ships:      1 + len(st.Fleet),
		RecordedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case s.ch <- req{kind: reqSave, save: r}:
	default:
		s.dropSave.Add(1)
	}
}

// Flush waits until everything queued before the call is committed.
func (s *SQLiteIndex) Flush(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqFlush, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ListSaves returns the newest saves first.
func (s *SQLiteIndex) ListSaves(ctx context.Context, limit int) ([]SaveRow, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []SaveRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT path, sim_now_ms, digest, seed, mode, gold, contracts, ships, recorded_at
		 FROM saves ORDER BY id DESC LIMIT ?`, limit)
	return rows, err
}

// LatestSave reports the most recent save, if any.
func (s *SQLiteIndex) LatestSave(ctx context.Context) (SaveRow, bool, error) {
	var r SaveRow
	err := s.db.GetContext(ctx, &r,
		`SELECT path, sim_now_ms, digest, seed, mode, gold, contracts, ships, recorded_at
		 FROM saves ORDER BY id DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return SaveRow{}, false, nil
	}
	if err != nil {
		return SaveRow{}, false, err
	}
	return r, true, nil
}

// JournalSince returns entries with seq greater than after, oldest first.
func (s *SQLiteIndex) JournalSince(ctx context.Context, after int64, limit int) ([]JournalRow, error) {
	if limit <= 0 {
		limit = 500
	}
	var rows []JournalRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT seq, sim_now_ms, kind, command_kind, delta_ms, no_op, digest
		 FROM journal WHERE seq > ? ORDER BY seq LIMIT ?`, after, limit)
	return rows, err
}

// CommandCounts tallies journaled commands by kind, split by whether they
// were no-ops.
func (s *SQLiteIndex) CommandCounts(ctx context.Context) (map[string][2]int64, error) {
	var rows []struct {
		CommandKind string `db:"command_kind"`
		NoOp        bool   `db:"no_op"`
		N           int64  `db:"n"`
	}
	err := s.db.SelectContext(ctx, &rows,
		`SELECT command_kind, no_op, COUNT(*) AS n FROM journal
		 WHERE kind = ? GROUP BY command_kind, no_op`, world.JournalCommand)
	if err != nil {
		return nil, err
	}
	out := map[string][2]int64{}
	for _, r := range rows {
		c := out[r.CommandKind]
		if r.NoOp {
			c[1] += r.N
		} else {
			c[0] += r.N
		}
		out[r.CommandKind] = c
	}
	return out, nil
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	var (
		tx            *sqlx.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		if r.kind == reqFlush {
			commit()
			close(r.done)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		var err error
		switch r.kind {
		case reqJournal:
			_, err = tx.NamedExec(
				`INSERT OR REPLACE INTO journal(seq,sim_now_ms,kind,command_kind,delta_ms,no_op,digest)
				 VALUES(:seq,:sim_now_ms,:kind,:command_kind,:delta_ms,:no_op,:digest)`, r.journal)
		case reqSave:
			_, err = tx.NamedExec(
				`INSERT INTO saves(path,sim_now_ms,digest,seed,mode,gold,contracts,ships,recorded_at)
				 VALUES(:path,:sim_now_ms,:digest,:seed,:mode,:gold,:contracts,:ships,:recorded_at)`, r.save)
		}
		if err != nil {
			rollback()
			continue
		}
		opCount++
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}
