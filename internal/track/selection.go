// ABOUTME: UI selection state - the single picker value the host UI has chosen
// ABOUTME: Thin wrapper storing a kind/value pair under ui.selection

package track

import (
	"fmt"
	"strings"

	"github.com/2389/quill/internal/state"
)

const selectionPath = "ui.selection"

// Selection records what the host UI currently has selected (a model, a
// provider, an alias).
type Selection struct {
	store *state.Store
}

// NewSelection creates a selection manager on the given store.
func NewSelection(store *state.Store) *Selection {
	return &Selection{store: store}
}

// Set stores the current selection.
func (s *Selection) Set(kind, value string) error {
	if strings.TrimSpace(kind) == "" {
		return fmt.Errorf("selection kind must be a non-empty string")
	}
	if ok, reason := s.store.Set(selectionPath, map[string]any{
		"kind":  kind,
		"value": value,
	}, nil); !ok {
		return fmt.Errorf("%s", reason)
	}
	return nil
}

// Get returns the current selection, with ok false when nothing is selected.
func (s *Selection) Get() (kind, value string, ok bool) {
	raw, err := s.store.Get(selectionPath)
	if err != nil {
		return "", "", false
	}
	m, isMap := raw.(map[string]any)
	if !isMap {
		return "", "", false
	}
	kind, _ = m["kind"].(string)
	value, _ = m["value"].(string)
	return kind, value, kind != ""
}

// Clear removes the selection.
func (s *Selection) Clear() {
	s.store.Delete(selectionPath)
}
