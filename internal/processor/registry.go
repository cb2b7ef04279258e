// ABOUTME: Thread-safe registry mapping marker lines to processor descriptors
// ABOUTME: Literal matches beat predicates; among predicates, registration order wins

package processor

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrDuplicateProcessor indicates a descriptor is already registered under that name.
var ErrDuplicateProcessor = errors.New("processor already registered")

// ErrNoSuchProcessor indicates a lookup for an unregistered name.
var ErrNoSuchProcessor = errors.New("no such processor")

// ErrInvalidDescriptor indicates a descriptor missing a required field.
var ErrInvalidDescriptor = errors.New("invalid descriptor")

// Match decides whether a line begins a processor's span. It is a tagged
// variant: exactly one of literal or predicate is set.
type Match struct {
	literal   string
	predicate func(string) bool
}

// MatchLiteral matches a line equal to s after trailing-space trimming.
func MatchLiteral(s string) Match {
	return Match{literal: s}
}

// MatchPredicate matches any line for which fn returns true.
func MatchPredicate(fn func(string) bool) Match {
	return Match{predicate: fn}
}

// IsLiteral reports whether the match is a literal.
func (m Match) IsLiteral() bool { return m.literal != "" }

// Literal returns the literal marker string, or "" for predicate matches.
func (m Match) Literal() string { return m.literal }

func (m Match) matches(line string) bool {
	line = strings.TrimRight(line, " \t")
	if m.literal != "" {
		return line == m.literal
	}
	if m.predicate != nil {
		return m.predicate(line)
	}
	return false
}

func (m Match) valid() bool { return m.literal != "" || m.predicate != nil }

// Descriptor describes how to recognize, parse, and format one message or
// block type. Match, Role, and Format are required.
type Descriptor struct {
	Match Match
	Role  Role

	// Format renders content back into document text under this type's marker.
	Format func(content string) string

	// ContentTransform, when set, replaces the default blank-line trim when a
	// span of this type is finalized. It receives the raw content lines.
	// Transforms are meant for already-expanded block text.
	ContentTransform func(lines []string) string

	// ExtraFields, when set, extracts fields from the marker line itself
	// (e.g. an alias name) to be merged onto the resulting message.
	ExtraFields func(line string) map[string]string
}

type entry struct {
	name string
	desc *Descriptor
}

// Registry holds registered descriptors. Registration order is significant:
// it is the tie-breaker among predicate matches.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]*Descriptor
	ordered []entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Descriptor)}
}

// Register adds a descriptor under a unique name.
// Returns ErrDuplicateProcessor for a repeated name and ErrInvalidDescriptor
// for a descriptor missing match, role, or format.
func (r *Registry) Register(name string, desc Descriptor) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDescriptor)
	}
	if !desc.Match.valid() {
		return fmt.Errorf("%w: %q has no match rule", ErrInvalidDescriptor, name)
	}
	if desc.Role == "" {
		return fmt.Errorf("%w: %q has no role", ErrInvalidDescriptor, name)
	}
	if desc.Format == nil {
		return fmt.Errorf("%w: %q has no format function", ErrInvalidDescriptor, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateProcessor, name)
	}
	d := desc
	r.byName[name] = &d
	r.ordered = append(r.ordered, entry{name: name, desc: &d})
	return nil
}

// MatchLine finds the descriptor whose match rule accepts the line.
// Literal matches are tested before predicate matches; among predicates the
// first registered wins. Returns ("", nil) when nothing matches.
func (r *Registry) MatchLine(line string) (string, *Descriptor) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.ordered {
		if e.desc.Match.IsLiteral() && e.desc.Match.matches(line) {
			return e.name, e.desc
		}
	}
	for _, e := range r.ordered {
		if !e.desc.Match.IsLiteral() && e.desc.Match.matches(line) {
			return e.name, e.desc
		}
	}
	return "", nil
}

// Get returns the descriptor registered under name.
func (r *Registry) Get(name string) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchProcessor, name)
	}
	return desc, nil
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.ordered))
	for i, e := range r.ordered {
		names[i] = e.name
	}
	return names
}
