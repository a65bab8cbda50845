package recorder

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SpoolSuffix names the pending spool next to a session store. The
// interception module appends to it when it cannot run the recorder
// in-process: in a child that forked without exec, and before the module
// has finished loading.
const SpoolSuffix = ".pending"

// SpoolPath returns the pending spool path for storePath.
func SpoolPath(storePath string) string {
	return storePath + SpoolSuffix
}

// SpoolEntry is one spooled observation.
type SpoolEntry struct {
	// Hook is the intercepted symbol name.
	Hook string

	// Path is the observed path, cleaned when absolute.
	Path string
}

// ReadSpool parses a spool file. Records are "<hook>\t<path>" terminated
// by NUL; a trailing record without its terminator was cut short by a dying
// writer and is dropped. A missing spool yields no entries.
func ReadSpool(path string) ([]SpoolEntry, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read spool %s: %w", path, err)
	}

	records := bytes.Split(data, []byte{0})
	// The element after the last NUL is either empty or a torn record.
	records = records[:len(records)-1]

	entries := make([]SpoolEntry, 0, len(records))
	for _, raw := range records {
		name, p, ok := strings.Cut(string(raw), "\t")
		if !ok || name == "" || p == "" {
			continue
		}
		if filepath.IsAbs(p) {
			p = filepath.Clean(p)
		}
		entries = append(entries, SpoolEntry{Hook: name, Path: p})
	}
	return entries, nil
}

// Ingest adds every spooled entry accept admits to the store, then removes
// the spool. It returns the number of admitted entries. The spool is kept
// when an insert fails so a later Ingest can retry.
func (r *Recorder) Ingest(accept func(hook, path string) bool) (int, error) {
	if r.storePath == "" {
		return 0, ErrNoStore
	}

	spool := SpoolPath(r.storePath)
	entries, err := ReadSpool(spool)
	if err != nil {
		return 0, err
	}

	admitted := 0
	for _, e := range entries {
		if accept != nil && !accept(e.Hook, e.Path) {
			continue
		}
		if err := r.Add(e.Path); err != nil {
			return admitted, err
		}
		admitted++
	}

	if err := os.Remove(spool); err != nil && !os.IsNotExist(err) {
		return admitted, fmt.Errorf("failed to remove spool %s: %w", spool, err)
	}
	r.log.Debug("spool ingested", "spool", spool, "entries", len(entries), "admitted", admitted)
	return admitted, nil
}
