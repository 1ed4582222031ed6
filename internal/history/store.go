package history

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/jmylchreest/notistack/internal/model"
)

// DefaultLimit is the number of entries kept in the history.
const DefaultLimit = 10000

// ErrStoreClosed is returned when operations are attempted on a closed store.
var ErrStoreClosed = errors.New("history store is closed")

// Store is the in-memory view of the history file, oldest first.
type Store struct {
	mu      sync.RWMutex
	entries []Entry
	limit   int
	// lines counts the records in the file, which may exceed the
	// in-memory entries until the next compaction.
	lines  int
	file   *jsonlFile
	closed bool

	logger *slog.Logger
}

// Open loads the history at path, keeping at most limit entries
// (DefaultLimit when limit is not positive).
func Open(path string, limit int, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	file, err := newJSONLFile(path)
	if err != nil {
		return nil, err
	}

	s := &Store{
		limit:  limit,
		file:   file,
		logger: logger,
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the location of the history file.
func (s *Store) Path() string {
	return s.file.path
}

// Reload replaces the in-memory entries with the file's contents.
func (s *Store) Reload() error {
	entries, skipped, err := s.file.load()
	if err != nil {
		return err
	}
	if skipped > 0 {
		s.logger.Warn("skipped malformed history lines", "path", s.file.path, "count", skipped)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.lines = len(entries)
	s.entries = trim(entries, s.limit)
	return nil
}

// Add records a notification and returns its entry.
func (s *Store) Add(n model.Notification) (Entry, error) {
	e := NewEntry(n)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Entry{}, ErrStoreClosed
	}

	if err := s.file.appendEntry(e); err != nil {
		return Entry{}, err
	}
	s.lines++
	s.entries = trim(append(s.entries, e), s.limit)

	// Compact once the file holds a tenth more than the limit.
	if s.lines > s.limit+s.limit/10 {
		if err := s.file.rewrite(s.entries); err != nil {
			s.logger.Warn("failed to compact history", "path", s.file.path, "error", err)
		} else {
			s.lines = len(s.entries)
		}
	}
	return e, nil
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// All returns every entry, oldest first.
func (s *Store) All() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.entries...)
}

// Recent returns up to n entries, newest first. n <= 0 returns all of them.
func (s *Store) Recent(n int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > len(s.entries) {
		n = len(s.entries)
	}
	out := make([]Entry, 0, n)
	for i := len(s.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.entries[i])
	}
	return out
}

// Search returns every entry matching query, oldest first.
func (s *Store) Search(query string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, e := range s.entries {
		if e.Matches(query) {
			out = append(out, e)
		}
	}
	return out
}

// Clear removes every entry from memory and disk.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if err := s.file.rewrite(nil); err != nil {
		return err
	}
	s.entries = nil
	s.lines = 0
	return nil
}

// Prune drops the entries for which remove returns true and rewrites the
// file. It returns the number of entries dropped.
func (s *Store) Prune(remove func(Entry) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	kept := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if !remove(e) {
			kept = append(kept, e)
		}
	}
	removed := len(s.entries) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	if err := s.file.rewrite(kept); err != nil {
		return 0, err
	}
	s.entries = kept
	s.lines = len(kept)
	s.logger.Debug("history pruned", "removed", removed, "kept", len(kept))
	return removed, nil
}

// Close marks the store closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func trim(entries []Entry, limit int) []Entry {
	if len(entries) <= limit {
		return entries
	}
	return append([]Entry(nil), entries[len(entries)-limit:]...)
}
