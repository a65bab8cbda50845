// Package hook implements the Go half of the interception module.
//
// The C trampolines in cmd/libinstrack hand every intercepted call to
// Dispatcher.Dispatch with the call's path arguments. The dispatcher asks
// the path filter about each path, records the allowed ones, and returns
// the authentic implementation for the trampoline to call with the
// original arguments. Nothing here can fail the intercepted call: every
// internal fault ends in "skip recording".
package hook

import (
	"fmt"
	"os"
	"sync/atomic"
	"unicode/utf8"
	"unsafe"

	"github.com/0xmhha/instrack/pkg/config"
	"github.com/0xmhha/instrack/pkg/filter"
	"github.com/0xmhha/instrack/pkg/logger"
	"github.com/0xmhha/instrack/pkg/recorder"
)

// Sink receives allowed paths. *recorder.Recorder is the production sink.
type Sink interface {
	Record(path string)
}

// Call carries the path arguments of one intercepted call. Dirfd is
// AT_FDCWD for entry points without a directory descriptor. Path2 is set
// only for renames.
type Call struct {
	ID     ID
	Dirfd  int
	Path   string
	Dirfd2 int
	Path2  string
}

// Stats counts dispatcher outcomes since process start.
type Stats struct {
	Calls    uint64
	Recorded uint64
	Denied   uint64
	Skipped  uint64
}

// Dispatcher sequences filter, recorder and authentic resolution for
// intercepted calls.
//
// Thread-safety: Dispatch is safe for concurrent use and holds no lock.
type Dispatcher struct {
	registry *Registry
	filter   *filter.Filter
	sink     Sink
	log      logger.Logger
	resolver pathResolver

	calls    atomic.Uint64
	recorded atomic.Uint64
	denied   atomic.Uint64
	skipped  atomic.Uint64
}

// NewDispatcher wires a dispatcher. A nil log discards.
func NewDispatcher(registry *Registry, f *filter.Filter, sink Sink, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Noop()
	}
	return &Dispatcher{
		registry: registry,
		filter:   f,
		sink:     sink,
		log:      log,
		resolver: procResolver{},
	}
}

// FromBindings builds the dispatcher the interception module runs with.
func FromBindings(b config.Bindings, resolve Resolver) *Dispatcher {
	log := hookLogger(b.LogPath)

	registry, unknown := NewRegistry(resolve, b.Hooks)
	if len(unknown) > 0 {
		log.Warn("ignoring unknown hooks", "hooks", unknown)
	}

	d := NewDispatcher(registry, filter.New(b.DenyPrefixes...), recorder.New(b.StorePath, log), log)
	log.Debug("interception module loaded",
		"store", b.StorePath,
		"hooks", registry.Enabled())
	return d
}

// hookLogger returns a JSON debug logger writing to path, or a discarding
// logger. It never writes to the host's stdout or stderr.
func hookLogger(path string) logger.Logger {
	if path == "" {
		return logger.Noop()
	}
	return logger.New(logger.Config{
		Level:  "debug",
		Output: path,
		Format: "json",
		Attrs:  []any{"pid", os.Getpid()},
	})
}

// Dispatch observes the call's paths and returns the authentic
// implementation, or nil when it cannot be resolved.
func (d *Dispatcher) Dispatch(c Call) unsafe.Pointer {
	reg := d.registry.Get(c.ID)
	if reg == nil {
		return nil
	}

	if reg.Enabled {
		d.calls.Add(1)
		d.observe(reg, c.Dirfd, c.Path)
		if reg.Op == OpRename {
			d.observe(reg, c.Dirfd2, c.Path2)
		}
	}

	fn := reg.Authentic()
	if fn == nil {
		d.log.Error("authentic symbol not found", "hook", reg.Name)
	}
	return fn
}

// observe records path if the filter allows it. Panics stop here.
func (d *Dispatcher) observe(reg *Registration, dirfd int, path string) {
	defer func() {
		if r := recover(); r != nil {
			d.skipped.Add(1)
			d.log.Debug("observation aborted", "hook", reg.Name, "panic", fmt.Sprint(r))
		}
	}()

	if path == "" || !utf8.ValidString(path) {
		d.skipped.Add(1)
		return
	}

	abs := absolute(d.resolver, dirfd, path)
	if rule, denied := d.filter.Match(abs); denied {
		d.denied.Add(1)
		d.log.Debug("path denied", "hook", reg.Name, "path", abs, "rule", rule.Name)
		return
	}

	d.sink.Record(abs)
	d.recorded.Add(1)
}

// Registry returns the dispatcher's hook table.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Stats returns a snapshot of the outcome counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Calls:    d.calls.Load(),
		Recorded: d.recorded.Load(),
		Denied:   d.denied.Load(),
		Skipped:  d.skipped.Load(),
	}
}
