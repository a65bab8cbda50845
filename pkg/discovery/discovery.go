// Package discovery finds session stores on disk.
//
// Every session lives in its own directory under the reports directory,
// holding a store file named after the session:
//
//	<reports>/<id>/<id>.db
//
// Discovery does not consult the session catalog, so it also sees stores
// whose catalog entry was lost, and the catalog can be checked against it.
//
// Example usage:
//
//	d := discovery.New(cfg.ReportsDir(), logger.Default())
//	stores, err := d.Discover()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, s := range stores {
//	    fmt.Printf("Session: %s, Store: %s\n", s.ID, s.Path)
//	}
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// StoreExt is the session store file extension.
const StoreExt = ".db"

// Logger defines the logging interface used by the discovery package.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// StoreFile represents a discovered session store.
type StoreFile struct {
	// ID is the session identifier, taken from the directory name.
	ID string

	// Path is the store file.
	Path string

	// Dir is the session directory.
	Dir string

	// Size is the store size in bytes.
	Size int64

	// ModTime is the store's last modification time.
	ModTime time.Time
}

// Discoverer provides methods for discovering session stores.
type Discoverer interface {
	// Discover scans the reports directory and returns every store found,
	// ordered by identifier. A missing reports directory yields no stores.
	Discover() ([]StoreFile, error)

	// Find returns the store of one session.
	//
	// Returns ErrStoreNotFound if the session directory or store is absent.
	Find(id string) (StoreFile, error)
}

// discoverer implements the Discoverer interface.
type discoverer struct {
	reportsDir string
	logger     Logger
}

// New creates a new Discoverer over reportsDir.
func New(reportsDir string, logger Logger) Discoverer {
	return &discoverer{
		reportsDir: reportsDir,
		logger:     logger,
	}
}

// StorePath returns where the store of session id lives under reportsDir.
func StorePath(reportsDir, id string) string {
	return filepath.Join(reportsDir, id, id+StoreExt)
}

// Discover implements Discoverer.Discover.
func (d *discoverer) Discover() ([]StoreFile, error) {
	dir := expandHome(d.reportsDir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			d.logger.Debug("reports directory not found", "path", dir)
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPath, dir, err)
	}

	stores := make([]StoreFile, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		store, err := d.Find(entry.Name())
		if err != nil {
			d.logger.Debug("skipping directory without store",
				"path", filepath.Join(dir, entry.Name()),
				"error", err)
			continue
		}
		stores = append(stores, store)
	}

	d.logger.Debug("discovery complete", "total_stores", len(stores))
	return stores, nil
}

// Find implements Discoverer.Find.
func (d *discoverer) Find(id string) (StoreFile, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return StoreFile{}, fmt.Errorf("%w: %q", ErrInvalidPath, id)
	}

	path := StorePath(expandHome(d.reportsDir), id)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return StoreFile{}, fmt.Errorf("%w: %s", ErrStoreNotFound, id)
		}
		return StoreFile{}, fmt.Errorf("failed to stat store %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return StoreFile{}, fmt.Errorf("%w: %s is not a regular file", ErrInvalidPath, path)
	}

	return StoreFile{
		ID:      id,
		Path:    path,
		Dir:     filepath.Dir(path),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
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
