package main

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"portsim/internal/persistence/indexdb"
	"portsim/internal/sim/world"
)

// openIndex opens the optional read-model index. A nil index with a nil error
// means indexing is off.
func openIndex(dataDir string, disableDB bool, logger *log.Logger) (*indexdb.SQLiteIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("PORTSIM_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		logger.Printf("index disabled (PORTSIM_INDEX_BACKEND=%s)", backend)
		return nil, nil
	case "sqlite":
		return indexdb.OpenSQLite(filepath.Join(dataDir, "index", "portsim.sqlite"))
	default:
		logger.Printf("unknown PORTSIM_INDEX_BACKEND=%q; falling back to sqlite", backend)
		return indexdb.OpenSQLite(filepath.Join(dataDir, "index", "portsim.sqlite"))
	}
}

// multiJournal fans journal entries out to the file journal and the index.
// The file journal is authoritative; index errors are ignored.
type multiJournal struct {
	file  journalWriter
	index journalWriter
}

type journalWriter interface {
	WriteEntry(world.JournalEntry) error
}

func (m multiJournal) WriteEntry(e world.JournalEntry) error {
	var err error
	if m.file != nil {
		err = m.file.WriteEntry(e)
	}
	if m.index != nil {
		_ = m.index.WriteEntry(e)
	}
	return err
}
