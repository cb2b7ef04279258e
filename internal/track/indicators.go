// ABOUTME: UI indicator slots (spinners, status text) keyed by non-empty names
// ABOUTME: The host editor renders these; the engine only records them

package track

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/2389/quill/internal/state"
)

const indicatorsPath = "indicators"

// Indicators records named status slots for the host UI to render.
type Indicators struct {
	store  *state.Store
	logger *slog.Logger
}

// NewIndicators creates an indicator manager on the given store.
func NewIndicators(store *state.Store, logger *slog.Logger) *Indicators {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indicators{store: store, logger: logger.With("component", "indicators")}
}

// nonEmptyName validates indicator slot names.
func nonEmptyName(name string) (bool, string) {
	if strings.TrimSpace(name) == "" {
		return false, "indicator name must be a non-empty string"
	}
	return true, ""
}

// Set stores the text for a named slot.
func (i *Indicators) Set(name, text string) error {
	if ok, reason := nonEmptyName(name); !ok {
		return fmt.Errorf("%s", reason)
	}
	if ok, reason := i.store.Set(indicatorsPath+"."+name, text, nil); !ok {
		return fmt.Errorf("%s", reason)
	}
	return nil
}

// Clear removes a named slot.
func (i *Indicators) Clear(name string) {
	i.store.Delete(indicatorsPath + "." + name)
}

// All returns every slot and its text.
func (i *Indicators) All() map[string]string {
	raw, err := i.store.Get(indicatorsPath)
	if err != nil {
		return map[string]string{}
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return map[string]string{}
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
