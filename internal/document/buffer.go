// ABOUTME: Buffer abstraction over the host editor's document lines
// ABOUTME: MemoryBuffer is the in-process implementation used by the CLI and tests

package document

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrRangeOutOfBounds indicates a replace span outside the buffer.
var ErrRangeOutOfBounds = errors.New("line range out of bounds")

// Buffer is the narrow surface the engine needs from the host editor's
// document. Line ranges are half-open [start, end), zero-based.
type Buffer interface {
	// Lines returns a snapshot copy of the buffer contents.
	Lines() []string
	// LineCount returns the current number of lines.
	LineCount() int
	// Replace substitutes the lines in [start, end) with repl.
	Replace(start, end int, repl []string) error
}

// MemoryBuffer is a thread-safe in-memory Buffer.
type MemoryBuffer struct {
	mu    sync.RWMutex
	lines []string
}

// NewMemoryBuffer creates a buffer from the given lines.
func NewMemoryBuffer(lines []string) *MemoryBuffer {
	b := &MemoryBuffer{lines: make([]string, len(lines))}
	copy(b.lines, lines)
	return b
}

// FromText creates a buffer by splitting text on newlines.
// A trailing newline does not produce a final empty line.
func FromText(text string) *MemoryBuffer {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return NewMemoryBuffer(nil)
	}
	return NewMemoryBuffer(strings.Split(text, "\n"))
}

// Lines returns a snapshot copy of the buffer contents.
func (b *MemoryBuffer) Lines() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// LineCount returns the current number of lines.
func (b *MemoryBuffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// Replace substitutes the lines in [start, end) with repl.
func (b *MemoryBuffer) Replace(start, end int, repl []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if start < 0 || end < start || end > len(b.lines) {
		return fmt.Errorf("%w: [%d, %d) of %d lines", ErrRangeOutOfBounds, start, end, len(b.lines))
	}
	next := make([]string, 0, len(b.lines)-(end-start)+len(repl))
	next = append(next, b.lines[:start]...)
	next = append(next, repl...)
	next = append(next, b.lines[end:]...)
	b.lines = next
	return nil
}

// Text joins the buffer into a single newline-terminated string.
func (b *MemoryBuffer) Text() string {
	lines := b.Lines()
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
