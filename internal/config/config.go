// Package config manages keywatch's mutable settings: the per-source
// keyword sets, result limits, and the fetch interval.
//
// Settings persist as a JSON file in the settings directory. The canonical
// file is loaded at startup and rewritten after every mutating command;
// named files support explicit save/load and can be promoted to become the
// new canonical file. All mutation goes through the Manager so invariants
// (set uniqueness, valid ranges) are enforced at one boundary.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/abelbrown/keywatch/internal/fetch"
	"github.com/abelbrown/keywatch/internal/filter"
	"github.com/abelbrown/keywatch/internal/keyword"
)

// CanonicalFile is the settings file loaded automatically at startup and
// overwritten by every autosave.
const CanonicalFile = "keywatch.json"

// settingsExt is the extension required when resolving partial filenames.
const settingsExt = ".json"

// Defaults applied to a fresh configuration.
const (
	DefaultGlobalLimit     = 10
	DefaultIntervalMinutes = 15
)

var (
	// ErrNotFound means no settings file matched; callers treat this as
	// "start empty", not a failure.
	ErrNotFound = errors.New("settings file not found")
	// ErrMalformed means the file exists but is missing required fields
	// or is not valid JSON; in-memory configuration is left unchanged.
	ErrMalformed = errors.New("malformed settings file")
)

// fileConfig is the on-disk JSON shape. Pointer fields distinguish
// "absent" from "zero" so malformed files are detected precisely.
type fileConfig struct {
	Keywords             map[string][]string `json:"keywords"`
	Limits               map[string]int      `json:"limits"`
	GlobalResultLimit    *int                `json:"globalResultLimit"`
	FetchIntervalMinutes *int                `json:"fetchIntervalMinutes"`
}

// Manager owns the live configuration.
type Manager struct {
	dir      string
	keywords *keyword.Store

	mu          sync.Mutex
	perSource   map[fetch.Source]int
	globalLimit int
	intervalMin int
}

// NewManager creates a Manager with default settings, reading and writing
// settings files under dir.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:         dir,
		keywords:    keyword.New(),
		perSource:   make(map[fetch.Source]int),
		globalLimit: DefaultGlobalLimit,
		intervalMin: DefaultIntervalMinutes,
	}
}

// Keywords returns the keyword store. Mutations through it are immediately
// visible; the caller is responsible for autosaving afterward.
func (m *Manager) Keywords() *keyword.Store { return m.keywords }

// Limits snapshots the effective limit configuration.
func (m *Manager) Limits() filter.Limits {
	m.mu.Lock()
	defer m.mu.Unlock()

	per := make(map[fetch.Source]int, len(m.perSource))
	for src, n := range m.perSource {
		per[src] = n
	}
	return filter.Limits{PerSource: per, Global: m.globalLimit}
}

// Interval returns the current fetch period.
func (m *Manager) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Duration(m.intervalMin) * time.Minute
}

// IntervalMinutes returns the current fetch period in minutes.
func (m *Manager) IntervalMinutes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.intervalMin
}

// SetGlobalLimit sets the default per-source result cap.
func (m *Manager) SetGlobalLimit(n int) error {
	if n < 0 {
		return fmt.Errorf("global limit must be >= 0, got %d", n)
	}
	m.mu.Lock()
	m.globalLimit = n
	m.mu.Unlock()
	return nil
}

// SetSourceLimit sets a per-source override. Zero is valid and suppresses
// the source entirely.
func (m *Manager) SetSourceLimit(src fetch.Source, n int) error {
	if n < 0 {
		return fmt.Errorf("limit for %s must be >= 0, got %d", src, n)
	}
	m.mu.Lock()
	m.perSource[src] = n
	m.mu.Unlock()
	return nil
}

// ClearSourceLimit removes a per-source override so the source falls back
// to the global limit.
func (m *Manager) ClearSourceLimit(src fetch.Source) {
	m.mu.Lock()
	delete(m.perSource, src)
	m.mu.Unlock()
}

// SetInterval sets the fetch period in minutes. The caller reschedules
// the periodic timer with the new value.
func (m *Manager) SetInterval(minutes int) error {
	if minutes < 1 {
		return fmt.Errorf("interval must be >= 1 minute, got %d", minutes)
	}
	m.mu.Lock()
	m.intervalMin = minutes
	m.mu.Unlock()
	return nil
}

// Load reads a settings file and replaces the in-memory configuration
// atomically. The name may be a prefix; see resolve. Returns ErrNotFound
// when nothing matches (caller starts empty) and ErrMalformed when the
// file is unusable (in-memory state untouched in both cases).
func (m *Manager) Load(name string) error {
	path, err := m.resolve(name)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return err
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if fc.Keywords == nil || fc.Limits == nil || fc.GlobalResultLimit == nil || fc.FetchIntervalMinutes == nil {
		return fmt.Errorf("%w: missing required fields", ErrMalformed)
	}
	if *fc.GlobalResultLimit < 0 || *fc.FetchIntervalMinutes < 1 {
		return fmt.Errorf("%w: out-of-range limit or interval", ErrMalformed)
	}

	bySource := make(map[fetch.Source][]string)
	for name, kws := range fc.Keywords {
		if src, ok := fetch.ParseSource(name); ok {
			bySource[src] = kws
		}
	}
	perSource := make(map[fetch.Source]int)
	for name, n := range fc.Limits {
		if src, ok := fetch.ParseSource(name); ok && n >= 0 {
			perSource[src] = n
		}
	}

	m.mu.Lock()
	m.perSource = perSource
	m.globalLimit = *fc.GlobalResultLimit
	m.intervalMin = *fc.FetchIntervalMinutes
	m.mu.Unlock()
	m.keywords.Replace(bySource)

	return nil
}

// Save serializes the current configuration, overwriting the target file.
func (m *Manager) Save(name string) error {
	keywords := make(map[string][]string)
	for src, kws := range m.keywords.Snapshot() {
		keywords[string(src)] = kws
	}
	for _, src := range fetch.AllSources() {
		if _, ok := keywords[string(src)]; !ok {
			keywords[string(src)] = []string{}
		}
	}

	m.mu.Lock()
	limits := make(map[string]int, len(m.perSource))
	for src, n := range m.perSource {
		limits[string(src)] = n
	}
	global := m.globalLimit
	interval := m.intervalMin
	m.mu.Unlock()

	fc := fileConfig{
		Keywords:             keywords,
		Limits:               limits,
		GlobalResultLimit:    &global,
		FetchIntervalMinutes: &interval,
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(m.dir, name), append(data, '\n'), 0644)
}

// Autosave persists the configuration to the canonical file. Invoked
// after every state-mutating command.
func (m *Manager) Autosave() error {
	return m.Save(CanonicalFile)
}

// SetDefault byte-copies an existing settings file onto the canonical
// filename without parsing it, so the next startup load picks it up.
func (m *Manager) SetDefault(name string) error {
	path, err := m.resolve(name)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return err
	}
	return os.WriteFile(filepath.Join(m.dir, CanonicalFile), data, 0644)
}

// resolve maps a name-or-prefix onto a settings file path. The exact name
// wins; otherwise the first directory entry (listing order) that starts
// with the prefix and carries the settings extension is used.
func (m *Manager) resolve(name string) (string, error) {
	exact := filepath.Join(m.dir, name)
	if _, err := os.Stat(exact); err == nil {
		return exact, nil
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fn := entry.Name()
		if strings.HasPrefix(fn, name) && strings.HasSuffix(fn, settingsExt) {
			return filepath.Join(m.dir, fn), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}
