// ABOUTME: Generic validated dot-path store with snapshot/restore and change subscriptions
// ABOUTME: Set is validator-gated, Update is all-or-nothing, Get always returns a deep copy

package state

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrKeyNotFound indicates a Get on a path with no value.
var ErrKeyNotFound = errors.New("key not found")

// Wildcard subscribes to every path.
const Wildcard = "*"

// Validator inspects a candidate value before it is stored.
// Returning (false, reason) rejects the mutation and leaves state unchanged.
type Validator func(value any) (ok bool, reason string)

// ChangeFunc receives change notifications. Values are defensive copies.
type ChangeFunc func(newValue, oldValue any, path string)

type subscriber struct {
	id string
	fn ChangeFunc
}

// Store is the validated key-path tree. A single instance is constructed at
// startup and passed to the domain managers; there is no ambient global.
type Store struct {
	mu     sync.Mutex
	root   map[string]any
	subs   map[string][]subscriber
	logger *slog.Logger
}

// New creates an empty store. Pass nil logger for the default.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		root:   make(map[string]any),
		subs:   make(map[string][]subscriber),
		logger: logger.With("component", "state"),
	}
}

// Get returns a deep copy of the value at path, or ErrKeyNotFound.
// The copy never aliases internal storage.
func (s *Store) Get(path string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.lookup(path)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, path)
	}
	return deepCopy(value), nil
}

// Set validates and stores value at path, then synchronously notifies
// subscribers of that exact path and of the wildcard. On validation failure
// the prior value is retained and (false, reason) is returned.
func (s *Store) Set(path string, value any, v Validator) (bool, string) {
	if v != nil {
		if ok, reason := v(value); !ok {
			return false, reason
		}
	}

	s.mu.Lock()
	old, hadOld := s.lookup(path)
	var oldCopy any
	if hadOld {
		oldCopy = deepCopy(old)
	}
	if err := s.place(path, deepCopy(value)); err != nil {
		s.mu.Unlock()
		return false, err.Error()
	}
	s.mu.Unlock()

	s.notify(path, deepCopy(value), oldCopy)
	return true, ""
}

// Delete removes the value at path if present, notifying subscribers with a
// nil new value. Deleting an absent path is a no-op.
func (s *Store) Delete(path string) {
	s.mu.Lock()
	old, had := s.lookup(path)
	if !had {
		s.mu.Unlock()
		return
	}
	oldCopy := deepCopy(old)
	s.remove(path)
	s.mu.Unlock()

	s.notify(path, nil, oldCopy)
}

// Update applies each entry as a Set in map-iteration order, taking an
// internal snapshot first. The first validation failure triggers a full
// restore from that snapshot and returns the failure. The guarantee is
// all-or-nothing, not isolation: subscribers observe intermediate sets.
func (s *Store) Update(values map[string]any, v Validator) (bool, string) {
	snap := s.Snapshot()
	for path, value := range values {
		if ok, reason := s.Set(path, value, v); !ok {
			s.Restore(snap)
			return false, reason
		}
	}
	return true, ""
}

// Snapshot deep-copies the entire tree.
func (s *Store) Snapshot() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deepCopy(s.root).(map[string]any)
}

// Restore replaces the entire tree with a deep copy of snap.
// Restores do not notify subscribers.
func (s *Store) Restore(snap map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap == nil {
		s.root = make(map[string]any)
		return
	}
	s.root = deepCopy(snap).(map[string]any)
}

// Subscribe attaches fn to an exact path, or to every path via Wildcard.
// Returns a subscription id for Unsubscribe.
func (s *Store) Subscribe(path string, fn ChangeFunc) string {
	id := uuid.New().String()
	s.mu.Lock()
	s.subs[path] = append(s.subs[path], subscriber{id: id, fn: fn})
	s.mu.Unlock()
	return id
}

// Unsubscribe removes a subscription by id. Unknown ids are a no-op.
func (s *Store) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for path, subs := range s.subs {
		for i, sub := range subs {
			if sub.id == id {
				s.subs[path] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// notify runs subscribers synchronously, outside the store lock so a
// subscriber may re-enter the store; re-entrant mutations are processed
// depth-first before control returns. A panicking subscriber is recovered
// and logged so it never blocks the others.
func (s *Store) notify(path string, newValue, oldValue any) {
	s.mu.Lock()
	targets := make([]subscriber, 0, len(s.subs[path])+len(s.subs[Wildcard]))
	targets = append(targets, s.subs[path]...)
	targets = append(targets, s.subs[Wildcard]...)
	s.mu.Unlock()

	for _, sub := range targets {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("subscriber panic isolated",
						"path", path,
						"sub_id", sub.id,
						"panic", r)
				}
			}()
			sub.fn(newValue, oldValue, path)
		}()
	}
}

// lookup walks the dot path. Caller holds the lock.
func (s *Store) lookup(path string) (any, bool) {
	parts := strings.Split(path, ".")
	node := any(s.root)
	for _, part := range parts {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// place stores value at the dot path, creating intermediate maps.
// Caller holds the lock.
func (s *Store) place(path string, value any) error {
	parts := strings.Split(path, ".")
	node := s.root
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part]
		if !ok {
			next := make(map[string]any)
			node[part] = next
			node = next
			continue
		}
		m, ok := child.(map[string]any)
		if !ok {
			return fmt.Errorf("path conflict: %q is not a branch", part)
		}
		node = m
	}
	node[parts[len(parts)-1]] = value
	return nil
}

// remove deletes the leaf at the dot path. Caller holds the lock.
func (s *Store) remove(path string) {
	parts := strings.Split(path, ".")
	node := s.root
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]any)
		if !ok {
			return
		}
		node = child
	}
	delete(node, parts[len(parts)-1])
}

// deepCopy copies maps and slices recursively. Scalars and other
// non-container values are returned as-is; callers store plain data.
func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, val := range t {
			out[k] = val
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}
