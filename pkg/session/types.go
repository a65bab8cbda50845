// Package session keeps the catalog of tracked sessions.
//
// A session is a named tracking run scope: one identifier, one store file
// under the reports directory, and a history of the commands tracked into
// it. The catalog is a BoltDB file that indexes sessions by identifier. It
// never holds recorded paths; those live in the session store.
//
// Example usage:
//
//	cat, err := session.New(session.Config{
//	    DBPath: "~/.instrack/catalog.db",
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cat.Close()
//
//	meta, err := cat.Register("build-1", "/home/u/.instrack/reports/build-1/build-1.db")
//	run, err := cat.StartRun(meta.ID, []string{"make", "install"})
package session

import "time"

// MaxRuns is the number of runs kept per session; older runs are dropped.
const MaxRuns = 20

// Metadata represents session metadata stored in the catalog.
type Metadata struct {
	// ID is the user-chosen session identifier.
	ID string `json:"id"`

	// StorePath is the session store file.
	StorePath string `json:"store_path"`

	// CreatedAt is when the session was first registered.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the last run start or finish.
	UpdatedAt time.Time `json:"updated_at"`

	// Runs is the run history, oldest first.
	Runs []Run `json:"runs,omitempty"`
}

// Run is one tracked command execution.
type Run struct {
	// ID is a random UUID.
	ID string `json:"id"`

	// Command is the tracked argument vector.
	Command []string `json:"command"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// ExitCode of the tracked command; -1 when it did not exit normally.
	ExitCode int `json:"exit_code"`

	// Dependencies is the size of the recorded dependency closure.
	Dependencies int `json:"dependencies"`

	// PathCount is the store's row count after the run.
	PathCount int `json:"path_count"`
}

// RunResult is what FinishRun stores.
type RunResult struct {
	ExitCode     int
	Dependencies int
	PathCount    int
}

// Finished reports whether the run has completed.
func (r Run) Finished() bool {
	return r.FinishedAt != nil
}

// Duration returns the run's wall time, or zero while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// LastRun returns the most recent run, or nil.
func (m *Metadata) LastRun() *Run {
	if len(m.Runs) == 0 {
		return nil
	}
	return &m.Runs[len(m.Runs)-1]
}

// Manager provides session catalog operations.
type Manager interface {
	// Register records a session the first time its identifier is seen
	// and returns the stored metadata. Registering an existing identifier
	// returns it unchanged.
	//
	// Returns error if:
	//   - the identifier is invalid
	//   - the identifier is registered with a different store path
	//   - Database operation fails
	Register(id, storePath string) (*Metadata, error)

	// Get retrieves session metadata by identifier.
	//
	// Returns:
	//   - Metadata if found
	//   - ErrSessionNotFound if not found
	//   - Error for database failures
	Get(id string) (*Metadata, error)

	// StartRun appends a run to the session's history and returns it.
	StartRun(id string, command []string) (*Run, error)

	// FinishRun completes the run with the given ID.
	//
	// Returns ErrRunNotFound if the run was dropped or never started.
	FinishRun(id, runID string, result RunResult) error

	// Delete removes a session from the catalog. It does not touch the
	// store. Does not error if the session doesn't exist.
	Delete(id string) error

	// List returns all sessions ordered by identifier.
	List() ([]*Metadata, error)

	// Close closes the database connection and releases resources.
	Close() error
}

// Config contains session catalog configuration.
type Config struct {
	// DBPath is the BoltDB file path.
	DBPath string

	// Timeout is the database lock timeout (default: 1 second).
	Timeout time.Duration
}
