// Package recorder adds observed paths to a session store.
//
// A session store is an SQLite file holding one table named after the
// session, with a single unique text column. The recorder is the only code
// that writes to it. Every attempt opens its own connection, inserts, and
// closes, so threads and forked processes of the tracked program never
// share a handle.
//
// Example usage:
//
//	rec := recorder.New(os.Getenv(config.EnvStorePath), log)
//	rec.Record("/etc/app.conf") // best-effort, never fails
package recorder

import (
	"fmt"

	"github.com/0xmhha/instrack/pkg/logger"
)

// Recorder writes paths into one session store.
//
// Thread-safety: all methods are safe for concurrent use.
type Recorder struct {
	storePath string
	table     string
	log       logger.Logger
}

// New returns a recorder for the store at storePath. An empty storePath
// yields a recorder whose Record is a no-op. A nil log discards.
func New(storePath string, log logger.Logger) *Recorder {
	if log == nil {
		log = logger.Noop()
	}
	return &Recorder{
		storePath: storePath,
		table:     TableName(storePath),
		log:       log,
	}
}

// StorePath returns the bound store path.
func (r *Recorder) StorePath() string {
	return r.storePath
}

// Table returns the record table name.
func (r *Recorder) Table() string {
	return r.table
}

// Add inserts path into the record set. A path that is already recorded is
// not an error. Any other failure is returned.
func (r *Recorder) Add(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	db, table, err := open(r.storePath)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec(fmt.Sprintf("INSERT INTO %s(path) VALUES(?)", quoteIdent(table)), path)
	if err == nil || isConstraint(err) {
		return nil
	}
	return fmt.Errorf("failed to record %s: %w", path, err)
}

// Record is the best-effort form of Add: failures are logged at debug level
// and otherwise dropped.
func (r *Recorder) Record(path string) {
	if r.storePath == "" {
		return
	}
	if err := r.Add(path); err != nil {
		r.log.Debug("record skipped", "path", path, "error", err)
	}
}
