// File: store/favorites.go
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	utils "cointrack/utilities"
)

// Favorites is the user-curated set of coin identifiers, persisted as a JSON
// array in a single file. All reads and writes go through this store; every
// mutation re-serializes the full set and notifies subscribers, so multiple
// views converge without polling (the browser storage-event analogue).
//
// Persistence is best-effort: a failed write is logged and the in-memory
// update is kept, and an unreadable or corrupt file degrades to an empty set.
type Favorites struct {
	mu     sync.RWMutex
	path   string
	ids    map[string]bool
	subs   map[int]func(ids []string)
	nextID int
	logger *utils.Logger
}

// NewFavorites opens the store at path, reading the persisted set if one
// exists. Parse failures are logged and treated as an empty set, never
// surfaced as an error.
func NewFavorites(path string, logger *utils.Logger) (*Favorites, error) {
	if logger == nil {
		logger = utils.NewLogger(utils.Info)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	f := &Favorites{
		path:   path,
		ids:    map[string]bool{},
		subs:   map[int]func([]string){},
		logger: logger,
	}
	f.ids = f.readFile()
	return f, nil
}

// readFile loads the persisted JSON array, defaulting to an empty set on any
// failure.
func (f *Favorites) readFile() map[string]bool {
	ids := map[string]bool{}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			f.logger.LogWarn("Favorites: failed to read %s: %v; starting empty", f.path, err)
		}
		return ids
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		f.logger.LogWarn("Favorites: failed to parse %s: %v; starting empty", f.path, err)
		return ids
	}
	for _, id := range list {
		ids[id] = true
	}
	return ids
}

// persistLocked writes the current set back to disk. Callers hold f.mu. A
// write failure keeps the optimistic in-memory update.
func (f *Favorites) persistLocked() {
	data, err := json.Marshal(f.idsLocked())
	if err != nil {
		f.logger.LogWarn("Favorites: failed to marshal set: %v; keeping in-memory state", err)
		return
	}
	if err := os.WriteFile(f.path, data, 0644); err != nil {
		f.logger.LogWarn("Favorites: failed to write %s: %v; keeping in-memory state", f.path, err)
	}
}

func (f *Favorites) idsLocked() []string {
	list := make([]string, 0, len(f.ids))
	for id := range f.ids {
		list = append(list, id)
	}
	sort.Strings(list)
	return list
}

// snapshotSubsLocked copies the subscriber list and current ids so callbacks
// run outside the lock.
func (f *Favorites) snapshotSubsLocked() ([]func([]string), []string) {
	subs := make([]func([]string), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	return subs, f.idsLocked()
}

func notify(subs []func([]string), ids []string) {
	for _, fn := range subs {
		fn(ids)
	}
}

// Get returns a copy of the current set.
func (f *Favorites) Get() map[string]bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]bool, len(f.ids))
	for id := range f.ids {
		out[id] = true
	}
	return out
}

// IDs returns the current identifiers, sorted.
func (f *Favorites) IDs() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.idsLocked()
}

// Has reports whether id is favorited.
func (f *Favorites) Has(id string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.ids[id]
}

// Toggle adds id when absent and removes it when present, persists, and
// notifies subscribers. It returns whether id is favorited afterwards.
func (f *Favorites) Toggle(id string) bool {
	f.mu.Lock()
	if f.ids[id] {
		delete(f.ids, id)
	} else {
		f.ids[id] = true
	}
	favorited := f.ids[id]
	f.persistLocked()
	subs, ids := f.snapshotSubsLocked()
	f.mu.Unlock()

	notify(subs, ids)
	return favorited
}

// Set replaces the whole set, persists, and notifies subscribers.
func (f *Favorites) Set(newIDs []string) {
	f.mu.Lock()
	f.ids = make(map[string]bool, len(newIDs))
	for _, id := range newIDs {
		f.ids[id] = true
	}
	f.persistLocked()
	subs, ids := f.snapshotSubsLocked()
	f.mu.Unlock()

	notify(subs, ids)
}

// Subscribe registers fn to run after every mutation or external reload, with
// the then-current sorted ids. The returned function unsubscribes.
func (f *Favorites) Subscribe(fn func(ids []string)) (unsubscribe func()) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

// Reload re-reads the persisted file and, when the set changed externally,
// replaces the in-memory state and notifies subscribers. Last write wins;
// there is no merge.
func (f *Favorites) Reload() {
	fresh := f.readFile()

	f.mu.Lock()
	if setsEqual(f.ids, fresh) {
		f.mu.Unlock()
		return
	}
	f.ids = fresh
	subs, ids := f.snapshotSubsLocked()
	f.mu.Unlock()

	f.logger.LogDebug("Favorites: external change detected in %s, republishing %d ids", f.path, len(ids))
	notify(subs, ids)
}

func setsEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}
