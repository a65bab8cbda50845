package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/0xmhha/instrack/pkg/logger"
)

// Bucket names.
var (
	bucketSessions = []byte("sessions") // ID -> Metadata
)

// manager implements the Manager interface using BoltDB.
type manager struct {
	db     *bolt.DB
	logger logger.Logger
	config Config
	now    func() time.Time
}

// New opens the session catalog, creating it if needed.
//
// Parameters:
//   - cfg: Catalog configuration
//   - log: Logger instance
//
// Returns:
//   - Configured Manager
//   - Error if database cannot be opened
func New(cfg Config, log logger.Logger) (Manager, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}

	dbPath := expandHome(cfg.DBPath)

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		if _, createErr := tx.CreateBucketIfNotExists(bucketSessions); createErr != nil {
			return fmt.Errorf("failed to create sessions bucket: %w", createErr)
		}
		return nil
	}); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database after initialization error",
				"error", closeErr)
		}
		return nil, err
	}

	log.Debug("session catalog opened", "db_path", dbPath)

	return &manager{
		db:     db,
		logger: log,
		config: cfg,
		now:    time.Now,
	}, nil
}

// Register implements Manager.Register.
func (m *manager) Register(id, storePath string) (*Metadata, error) {
	if err := ValidateIdentifier(id); err != nil {
		return nil, err
	}

	var result *Metadata
	err := m.db.Update(func(tx *bolt.Tx) error {
		sessions := tx.Bucket(bucketSessions)

		existing, err := load(sessions, id)
		if err == nil {
			if existing.StorePath != storePath {
				return fmt.Errorf("%w: %s is bound to %s", ErrStoreMismatch, id, existing.StorePath)
			}
			result = existing
			return nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return err
		}

		now := m.now()
		metadata := &Metadata{
			ID:        id,
			StorePath: storePath,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := store(sessions, metadata); err != nil {
			return err
		}

		m.logger.Info("session registered", "id", id, "store", storePath)
		result = metadata
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Get implements Manager.Get.
func (m *manager) Get(id string) (*Metadata, error) {
	if id == "" {
		return nil, ErrEmptyIdentifier
	}

	var metadata *Metadata
	err := m.db.View(func(tx *bolt.Tx) error {
		var err error
		metadata, err = load(tx.Bucket(bucketSessions), id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return metadata, nil
}

// StartRun implements Manager.StartRun.
func (m *manager) StartRun(id string, command []string) (*Run, error) {
	if len(command) == 0 {
		return nil, ErrEmptyCommand
	}

	run := Run{
		ID:        uuid.NewString(),
		Command:   append([]string(nil), command...),
		StartedAt: m.now(),
		ExitCode:  -1,
	}

	err := m.update(id, func(metadata *Metadata) error {
		metadata.Runs = append(metadata.Runs, run)
		if len(metadata.Runs) > MaxRuns {
			metadata.Runs = metadata.Runs[len(metadata.Runs)-MaxRuns:]
		}
		metadata.UpdatedAt = run.StartedAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Debug("run started", "id", id, "run", run.ID)
	return &run, nil
}

// FinishRun implements Manager.FinishRun.
func (m *manager) FinishRun(id, runID string, result RunResult) error {
	if _, err := uuid.Parse(runID); err != nil {
		return ErrInvalidRunID
	}

	return m.update(id, func(metadata *Metadata) error {
		for i := range metadata.Runs {
			run := &metadata.Runs[i]
			if run.ID != runID {
				continue
			}

			finished := m.now()
			run.FinishedAt = &finished
			run.ExitCode = result.ExitCode
			run.Dependencies = result.Dependencies
			run.PathCount = result.PathCount
			metadata.UpdatedAt = finished

			m.logger.Debug("run finished",
				"id", id,
				"run", runID,
				"exit_code", result.ExitCode,
				"paths", result.PathCount)
			return nil
		}
		return ErrRunNotFound
	})
}

// Delete implements Manager.Delete.
func (m *manager) Delete(id string) error {
	if id == "" {
		return ErrEmptyIdentifier
	}

	return m.db.Update(func(tx *bolt.Tx) error {
		sessions := tx.Bucket(bucketSessions)
		if sessions.Get([]byte(id)) == nil {
			return nil
		}

		if err := sessions.Delete([]byte(id)); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}

		m.logger.Info("session deleted", "id", id)
		return nil
	})
}

// List implements Manager.List.
func (m *manager) List() ([]*Metadata, error) {
	sessions := make([]*Metadata, 0, 10)

	err := m.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)

		return b.ForEach(func(k, v []byte) error {
			var metadata Metadata
			if unmarshalErr := json.Unmarshal(v, &metadata); unmarshalErr != nil {
				m.logger.Warn("failed to unmarshal session",
					"id", string(k),
					"error", unmarshalErr)
				return nil // Skip invalid entries.
			}

			sessions = append(sessions, &metadata)
			return nil
		})
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return sessions, nil
}

// Close implements Manager.Close.
func (m *manager) Close() error {
	if err := m.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	m.logger.Debug("session catalog closed")
	return nil
}

// update applies fn to the stored metadata of id in one transaction.
func (m *manager) update(id string, fn func(*Metadata) error) error {
	if id == "" {
		return ErrEmptyIdentifier
	}

	return m.db.Update(func(tx *bolt.Tx) error {
		sessions := tx.Bucket(bucketSessions)

		metadata, err := load(sessions, id)
		if err != nil {
			return err
		}
		if err := fn(metadata); err != nil {
			return err
		}
		return store(sessions, metadata)
	})
}

func load(b *bolt.Bucket, id string) (*Metadata, error) {
	data := b.Get([]byte(id))
	if data == nil {
		return nil, ErrSessionNotFound
	}

	var metadata Metadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &metadata, nil
}

func store(b *bolt.Bucket, metadata *Metadata) error {
	data, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := b.Put([]byte(metadata.ID), data); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// expandHome expands ~ in file paths to the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	return filepath.Join(homeDir, path[2:])
}
