package config

import (
	"slices"
	"strings"
)

// Environment variables shared by the orchestrator and the interception
// module.
const (
	// EnvStorePath carries the absolute path of the active session store.
	EnvStorePath = "INSTRACK_DB_PATH"

	// EnvHooks carries the comma-separated enabled hook names.
	EnvHooks = "INSTRACK_HOOKS"

	// EnvDeny carries colon-separated extra deny trees for the path filter.
	EnvDeny = "INSTRACK_DENY"

	// EnvHookLog names a log file for the interception module.
	EnvHookLog = "INSTRACK_HOOK_LOG"

	// EnvPreload is the dynamic loader's preload list.
	EnvPreload = "LD_PRELOAD"
)

// Bindings is the configuration the interception module receives through
// its environment. A zero StorePath turns every recording attempt into a
// no-op.
type Bindings struct {
	StorePath    string
	Hooks        []string
	DenyPrefixes []string
	LogPath      string
}

// BindingsFromEnv reads bindings with getenv, normally os.Getenv.
func BindingsFromEnv(getenv func(string) string) Bindings {
	return Bindings{
		StorePath:    getenv(EnvStorePath),
		Hooks:        splitList(getenv(EnvHooks), ","),
		DenyPrefixes: splitList(getenv(EnvDeny), ":"),
		LogPath:      getenv(EnvHookLog),
	}
}

// Environ returns the bindings as KEY=VALUE pairs. Empty values are omitted.
func (b Bindings) Environ() []string {
	env := []string{EnvStorePath + "=" + b.StorePath}
	if len(b.Hooks) > 0 {
		env = append(env, EnvHooks+"="+strings.Join(b.Hooks, ","))
	}
	if len(b.DenyPrefixes) > 0 {
		env = append(env, EnvDeny+"="+strings.Join(b.DenyPrefixes, ":"))
	}
	if b.LogPath != "" {
		env = append(env, EnvHookLog+"="+b.LogPath)
	}
	return env
}

// WithDeny returns a copy of b with paths appended to the deny list.
func (b Bindings) WithDeny(paths ...string) Bindings {
	deny := make([]string, 0, len(b.DenyPrefixes)+len(paths))
	deny = append(deny, b.DenyPrefixes...)
	for _, p := range paths {
		if p != "" && !slices.Contains(deny, p) {
			deny = append(deny, p)
		}
	}
	b.DenyPrefixes = deny
	return b
}

// WithPreload returns base with the bindings applied and library prepended
// to LD_PRELOAD. Existing instrack bindings in base are replaced; an
// existing preload list is kept after the library.
func (b Bindings) WithPreload(base []string, library string) []string {
	owned := map[string]bool{
		EnvStorePath: true,
		EnvHooks:     true,
		EnvDeny:      true,
		EnvHookLog:   true,
		EnvPreload:   true,
	}

	preload := library
	env := make([]string, 0, len(base)+5)
	for _, kv := range base {
		key, value, _ := strings.Cut(kv, "=")
		if !owned[key] {
			env = append(env, kv)
			continue
		}
		if key == EnvPreload && value != "" {
			preload = library + ":" + value
		}
	}

	env = append(env, b.Environ()...)
	return append(env, EnvPreload+"="+preload)
}

// splitList splits s on sep, trimming space and dropping empty items.
func splitList(s, sep string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Bindings derives the interception module bindings for a session store.
func (c *Config) Bindings(storePath string) Bindings {
	return Bindings{
		StorePath:    storePath,
		Hooks:        c.Tracking.Hooks,
		DenyPrefixes: c.Tracking.DenyPrefixes,
		LogPath:      expandHome(c.Tracking.HookLog),
	}
}
