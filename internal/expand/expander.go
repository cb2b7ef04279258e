// ABOUTME: Asynchronous block expansion engine with span bookkeeping and offset drift
// ABOUTME: Rewrites markers through their textual states and isolates per-block executor failures

package expand

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/quill/internal/document"
	"github.com/2389/quill/internal/parser"
	"github.com/2389/quill/internal/processor"
)

// ErrCancelled distinguishes cancelled work from a genuine executor failure
// so it is never rendered into the document as an error.
var ErrCancelled = errors.New("expansion cancelled")

// ErrDuplicateBlock indicates a block type registered twice.
var ErrDuplicateBlock = errors.New("block type already registered")

// Executor performs the real work behind a block. Synchronous and
// asynchronous executors both satisfy this shape; the synchronous case
// simply invokes one of the callbacks before returning. Exactly one
// callback must be invoked per Execute call.
type Executor interface {
	Execute(target string, options map[string]string, onSuccess func(result string), onError func(err error))
}

// BlockSpec describes one block type: its marker variants and how to format
// an executor result into document lines.
type BlockSpec struct {
	Type    string
	Markers Markers
	Format  func(result string) []string
}

// Pending is one outstanding expansion, tracked only while the executor
// call is in flight. Span is half-open [StartLine, EndLine).
type Pending struct {
	ID        string
	BlockType string
	StartLine int
	EndLine   int
	Target    string
	Options   map[string]string
}

// Tracker mirrors expansion lifecycles into the request table so other
// components can poll for outstanding work. Implemented by track.Requests.
type Tracker interface {
	Register(provider, model string, payload any) (string, error)
	Complete(id string, result any) error
	Fail(id string, err error) error
	Cancel(id string) bool
	Clear(id string) error
}

// Expander scans documents for block markers in directive states and drives
// their expansion. It is safe for executors to invoke callbacks from other
// goroutines; completion order does not matter.
type Expander struct {
	mu        sync.Mutex
	reg       *processor.Registry
	tracker   Tracker
	specs     []BlockSpec
	executors map[string]Executor
	pending   map[string]*Pending
	logger    *slog.Logger
}

// New creates an expander over the given processor registry. The tracker is
// optional; pass nil to skip request mirroring, nil logger for the default.
func New(reg *processor.Registry, tracker Tracker, logger *slog.Logger) *Expander {
	if logger == nil {
		logger = slog.Default()
	}
	return &Expander{
		reg:       reg,
		tracker:   tracker,
		executors: make(map[string]Executor),
		pending:   make(map[string]*Pending),
		logger:    logger.With("component", "expand"),
	}
}

// RegisterBlock adds a block type and binds its executor.
func (e *Expander) RegisterBlock(spec BlockSpec, exec Executor) error {
	if spec.Type == "" || spec.Markers.Base == "" {
		return fmt.Errorf("block spec needs a type and a base marker")
	}
	if exec == nil {
		return fmt.Errorf("block %q needs an executor", spec.Type)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.executors[spec.Type]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateBlock, spec.Type)
	}
	if spec.Format == nil {
		spec.Format = func(result string) []string {
			return strings.Split(strings.TrimRight(result, "\n"), "\n")
		}
	}
	e.specs = append(e.specs, spec)
	e.executors[spec.Type] = exec
	return nil
}

// ExpandAll dispatches every unexpanded block of every registered type and
// reports whether any expansion was started. A failure in one block's
// executor never prevents expansion of the next: each invocation is
// isolated, and a panic is converted into that block's error callback.
func (e *Expander) ExpandAll(buf document.Buffer) bool {
	e.mu.Lock()
	specs := make([]BlockSpec, len(e.specs))
	copy(specs, e.specs)
	e.mu.Unlock()

	any := false
	for _, spec := range specs {
		for e.dispatchNext(buf, spec) {
			any = true
		}
	}
	return any
}

// HasUnexpanded reports whether the document still contains a block of the
// given type in the unexpanded state (its literal base marker).
func (e *Expander) HasUnexpanded(buf document.Buffer, blockType string) bool {
	spec, ok := e.spec(blockType)
	if !ok {
		return false
	}
	for _, line := range buf.Lines() {
		if st, ok := spec.Markers.StateOf(line); ok && st == StateUnexpanded {
			return true
		}
	}
	return false
}

// HasActiveRequests reports whether any expansion of the given type is still
// in flight. An empty type matches any block type.
func (e *Expander) HasActiveRequests(blockType string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range e.pending {
		if blockType == "" || p.BlockType == blockType {
			return true
		}
	}
	return false
}

// Active returns a snapshot of the outstanding expansions.
func (e *Expander) Active() []Pending {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Pending, 0, len(e.pending))
	for _, p := range e.pending {
		out = append(out, *p)
	}
	return out
}

// Cancel abandons an outstanding expansion by id. The in-progress marker is
// left in the document as visible, diagnosable state; transitions are
// monotonic and never reverse. Cancellation is idempotent: a second cancel,
// or a cancel racing natural completion, is a no-op returning false.
func (e *Expander) Cancel(id string) bool {
	e.mu.Lock()
	p, ok := e.pending[id]
	if !ok {
		e.mu.Unlock()
		return false
	}
	delete(e.pending, id)
	e.mu.Unlock()

	if e.tracker != nil {
		e.tracker.Cancel(id)
	}
	e.logger.Debug("expansion cancelled", "id", id, "block_type", p.BlockType)
	return true
}

// spec looks up a registered block spec by type.
func (e *Expander) spec(blockType string) (BlockSpec, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.specs {
		if s.Type == blockType {
			return s, true
		}
	}
	return BlockSpec{}, false
}

// dispatchNext finds the first unexpanded span of the given type, rewrites
// its marker to the in-progress variant, and hands it to the executor.
// Returns false when no unexpanded block remains.
func (e *Expander) dispatchNext(buf document.Buffer, spec BlockSpec) bool {
	e.mu.Lock()

	lines := buf.Lines()
	start := -1
	for i, line := range lines {
		if st, ok := spec.Markers.StateOf(line); ok && st == StateUnexpanded {
			start = i
			break
		}
	}
	if start < 0 {
		e.mu.Unlock()
		return false
	}

	end := e.spanEnd(lines, start)
	target, options := extractDirective(lines[start+1 : end])

	// Rewrite the marker first so a crash or cancellation mid-flight leaves
	// visible state in the document.
	if _, ok := Next(StateUnexpanded, OutcomeDispatch); !ok {
		e.mu.Unlock()
		return false
	}
	if err := buf.Replace(start, start+1, []string{spec.Markers.InProgress}); err != nil {
		e.mu.Unlock()
		e.logger.Error("marking block in progress", "block_type", spec.Type, "error", err)
		return false
	}

	// Insert the pending entry under a provisional id before releasing the
	// lock, so sibling completions shift this span like any other while the
	// tracker registration is in flight.
	id := uuid.New().String()
	p := &Pending{
		ID:        id,
		BlockType: spec.Type,
		StartLine: start,
		EndLine:   end,
		Target:    target,
		Options:   options,
	}
	e.pending[id] = p
	exec := e.executors[spec.Type]
	e.mu.Unlock()

	// The tracker writes through the state store, which notifies subscribers
	// synchronously, and a subscriber may re-enter the expander. No lock may
	// be held across this call.
	if trackedID, ok := e.trackDispatch(spec, target, options); ok {
		e.mu.Lock()
		if _, live := e.pending[id]; live {
			delete(e.pending, id)
			p.ID = trackedID
			e.pending[trackedID] = p
			id = trackedID
			e.mu.Unlock()
		} else {
			// Cancelled while the tracker registration was in flight.
			e.mu.Unlock()
			e.tracker.Cancel(trackedID)
			return true
		}
	}

	e.logger.Debug("block dispatched",
		"id", id,
		"block_type", spec.Type,
		"start", start,
		"end", end,
		"target", target)

	e.invoke(exec, buf, spec, id, target, options)
	return true
}

// invoke runs the executor with per-block isolation: a panic becomes the
// block's error callback instead of unwinding the expansion pass.
func (e *Expander) invoke(exec Executor, buf document.Buffer, spec BlockSpec, id, target string, options map[string]string) {
	onSuccess := func(result string) { e.complete(buf, spec, id, result) }
	onError := func(err error) { e.fail(buf, spec, id, err) }

	defer func() {
		if r := recover(); r != nil {
			e.fail(buf, spec, id, fmt.Errorf("executor panic: %v", r))
		}
	}()
	exec.Execute(target, options, onSuccess, onError)
}

// complete replaces the span with the completed marker and formatted result.
// A no-op if the expansion was cancelled first.
func (e *Expander) complete(buf document.Buffer, spec BlockSpec, id, result string) {
	repl := append([]string{spec.Markers.CompletedLine(time.Now())}, spec.Format(result)...)
	if !e.resolve(buf, id, repl) {
		return
	}
	if e.tracker != nil {
		if err := e.tracker.Complete(id, result); err == nil {
			e.tracker.Clear(id)
		}
	}
	e.logger.Debug("block completed", "id", id, "block_type", spec.Type)
}

// fail replaces the span with the error marker and a human-readable error
// line, unless the failure is a cancellation, which leaves the document
// untouched. A no-op if the expansion was cancelled first.
func (e *Expander) fail(buf document.Buffer, spec BlockSpec, id string, cause error) {
	if errors.Is(cause, ErrCancelled) {
		e.mu.Lock()
		_, still := e.pending[id]
		delete(e.pending, id)
		e.mu.Unlock()
		if still && e.tracker != nil {
			e.tracker.Cancel(id)
		}
		return
	}

	repl := []string{spec.Markers.Error, "error: " + cause.Error()}
	if !e.resolve(buf, id, repl) {
		return
	}
	if e.tracker != nil {
		if err := e.tracker.Fail(id, cause); err == nil {
			e.tracker.Clear(id)
		}
	}
	e.logger.Warn("block failed", "id", id, "block_type", spec.Type, "error", cause)
}

// resolve replaces a pending span with repl and shifts the boundaries of
// sibling pending spans by the net line delta. Returns false when the
// pending entry is gone (cancelled, or a duplicate callback).
func (e *Expander) resolve(buf document.Buffer, id string, repl []string) bool {
	e.mu.Lock()
	p, ok := e.pending[id]
	if !ok {
		e.mu.Unlock()
		return false
	}
	delete(e.pending, id)

	// A span that ended with a blank separator keeps it, so the expanded
	// block stays visually separated from the following marker.
	lines := buf.Lines()
	if p.EndLine-1 > p.StartLine && p.EndLine-1 < len(lines) && strings.TrimSpace(lines[p.EndLine-1]) == "" {
		repl = append(repl, "")
	}

	if err := buf.Replace(p.StartLine, p.EndLine, repl); err != nil {
		e.mu.Unlock()
		e.logger.Error("replacing block span", "id", id, "error", err)
		return false
	}

	delta := len(repl) - (p.EndLine - p.StartLine)
	if delta != 0 {
		for _, q := range e.pending {
			if q.StartLine > p.StartLine {
				q.StartLine += delta
				q.EndLine += delta
			}
		}
	}
	e.mu.Unlock()
	return true
}

// trackDispatch mirrors the dispatch into the tracker when present,
// returning the tracker's request id so cancellation reaches both tables.
func (e *Expander) trackDispatch(spec BlockSpec, target string, options map[string]string) (string, bool) {
	if e.tracker == nil {
		return "", false
	}
	id, err := e.tracker.Register("local", spec.Type, map[string]any{
		"target":  target,
		"options": options,
	})
	if err != nil {
		e.logger.Warn("tracker register failed", "block_type", spec.Type, "error", err)
		return "", false
	}
	return id, true
}

// spanEnd finds the line after the last line of the span starting at the
// marker: the line before the next top-level marker, or end-of-document
// with trailing blank lines trimmed.
func (e *Expander) spanEnd(lines []string, start int) int {
	for i := start + 1; i < len(lines); i++ {
		if e.isTopLevelMarker(lines[i]) {
			return i
		}
	}
	end := len(lines)
	for end > start+1 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return end
}

// isTopLevelMarker reports whether the line begins another span: a
// registry-matched marker, a parser region marker, or any variant of a
// registered block type. Caller holds the lock or tolerates stale specs.
func (e *Expander) isTopLevelMarker(line string) bool {
	if parser.IsRegionMarker(line) {
		return true
	}
	if _, desc := e.reg.MatchLine(line); desc != nil {
		return true
	}
	for _, s := range e.specs {
		if _, ok := s.Markers.StateOf(line); ok {
			return true
		}
	}
	return false
}

// extractDirective splits span body lines into the target (contiguous
// non-blank, non-option lines immediately after the marker) and options
// ("-- key: value" comment-style lines).
func extractDirective(body []string) (string, map[string]string) {
	var target []string
	options := make(map[string]string)

	inTarget := true
	for _, line := range body {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "--") {
			kv := strings.TrimSpace(strings.TrimPrefix(trimmed, "--"))
			key, value, ok := strings.Cut(kv, ":")
			if ok {
				options[strings.TrimSpace(key)] = strings.TrimSpace(value)
			}
			continue
		}
		if trimmed == "" {
			inTarget = false
			continue
		}
		if inTarget {
			target = append(target, trimmed)
		}
	}
	return strings.Join(target, "\n"), options
}
