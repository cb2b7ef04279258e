// ABOUTME: Buffer activation manager keyed by positive integer buffer handles
// ABOUTME: Tracks which host editor buffers have the engine enabled

package track

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/2389/quill/internal/state"
)

const buffersPath = "buffers.active"

// Buffers tracks which editor buffers are activated.
type Buffers struct {
	store  *state.Store
	logger *slog.Logger
}

// NewBuffers creates a buffer manager on the given store.
func NewBuffers(store *state.Store, logger *slog.Logger) *Buffers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Buffers{store: store, logger: logger.With("component", "buffers")}
}

// positiveHandle validates buffer handles.
func positiveHandle(v any) (bool, string) {
	n, ok := v.(int)
	if !ok || n <= 0 {
		return false, "buffer handle must be a positive integer"
	}
	return true, ""
}

// Activate marks a buffer handle active.
func (b *Buffers) Activate(handle int) error {
	if ok, reason := positiveHandle(handle); !ok {
		return fmt.Errorf("%s", reason)
	}
	if ok, reason := b.store.Set(buffersPath+"."+strconv.Itoa(handle), true, nil); !ok {
		return fmt.Errorf("%s", reason)
	}
	b.logger.Debug("buffer activated", "handle", handle)
	return nil
}

// Deactivate removes a buffer handle. Unknown handles are a no-op.
func (b *Buffers) Deactivate(handle int) {
	b.store.Delete(buffersPath + "." + strconv.Itoa(handle))
}

// IsActive reports whether the handle is active.
func (b *Buffers) IsActive(handle int) bool {
	raw, err := b.store.Get(buffersPath + "." + strconv.Itoa(handle))
	if err != nil {
		return false
	}
	active, _ := raw.(bool)
	return active
}

// Active returns the active handles in ascending order.
func (b *Buffers) Active() []int {
	raw, err := b.store.Get(buffersPath)
	if err != nil {
		return nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	handles := make([]int, 0, len(m))
	for k, v := range m {
		if active, _ := v.(bool); !active {
			continue
		}
		n, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		handles = append(handles, n)
	}
	slices.Sort(handles)
	return handles
}
