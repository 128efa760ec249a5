package classify

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Store holds the active rule table and swaps it atomically on reload.
type Store struct {
	path  string
	rules atomic.Pointer[Rules]
}

// NewStore loads rules from path, or uses DefaultRules when path is empty.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if path == "" {
		s.rules.Store(DefaultRules())
		return s, nil
	}
	rules, err := LoadRules(path)
	if err != nil {
		return nil, err
	}
	s.rules.Store(rules)
	return s, nil
}

// Rules returns the current table.
func (s *Store) Rules() *Rules { return s.rules.Load() }

// Replace swaps in a new table.
func (s *Store) Replace(r *Rules) {
	if r != nil {
		s.rules.Store(r)
	}
}

// Watch reloads the rule file whenever it is written or recreated, until ctx
// is done. A file that fails to load leaves the previous table active.
func (s *Store) Watch(ctx context.Context, logger *slog.Logger) error {
	if s.path == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Editors often replace the file, so watch the directory and filter by name.
	target := filepath.Clean(s.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				rules, err := LoadRules(target)
				if err != nil {
					logger.Warn("rule reload failed, keeping previous table", "path", target, "err", err)
					continue
				}
				s.Replace(rules)
				logger.Info("classification rules reloaded", "path", target, "rules", len(rules.Rules))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("rule watcher error", "err", err)
			}
		}
	}()
	return nil
}
