// ABOUTME: Built-in processor descriptors and block specs with their marker grammar
// ABOUTME: RegisterBuiltins is called once at startup; literals register before predicates

package blocks

import (
	"strings"

	"github.com/2389/quill/internal/expand"
	"github.com/2389/quill/internal/processor"
)

// Marker grammar for the core roles.
const (
	MarkerUser      = ">>> user"
	MarkerAssistant = "<<< assistant"
	MarkerSystem    = ">>> system"
	MarkerAliasPfx  = ">>> alias:"
)

// IncludeMarkers are the four textual variants of the file-include block.
var IncludeMarkers = expand.Markers{
	Base:       ">>> include",
	InProgress: ">>> including",
	Completed:  ">>> included",
	Error:      ">>> include-error",
}

// FetchMarkers are the four textual variants of the URL-fetch block.
var FetchMarkers = expand.Markers{
	Base:       ">>> fetch",
	InProgress: ">>> fetching",
	Completed:  ">>> fetched",
	Error:      ">>> fetch-error",
}

// RunMarkers are the four textual variants of the command block.
var RunMarkers = expand.Markers{
	Base:       ">>> run",
	InProgress: ">>> running",
	Completed:  ">>> ran",
	Error:      ">>> run-error",
}

// RegisterBuiltins registers every built-in descriptor. Literal descriptors
// are registered before predicate descriptors; the predicates (alias,
// completed/error variants) depend on literal-first precedence, so this
// ordering is explicit rather than an accident of import order.
func RegisterBuiltins(reg *processor.Registry) error {
	literals := []struct {
		name   string
		marker string
		role   processor.Role
	}{
		{"user", MarkerUser, processor.RoleUser},
		{"assistant", MarkerAssistant, processor.RoleAssistant},
		{"system", MarkerSystem, processor.RoleSystem},
		{"include", IncludeMarkers.Base, processor.RoleUser},
		{"including", IncludeMarkers.InProgress, processor.RoleUser},
		{"fetch", FetchMarkers.Base, processor.RoleUser},
		{"fetching", FetchMarkers.InProgress, processor.RoleUser},
		{"run", RunMarkers.Base, processor.RoleUser},
		{"running", RunMarkers.InProgress, processor.RoleUser},
	}
	for _, l := range literals {
		marker := l.marker
		if err := reg.Register(l.name, processor.Descriptor{
			Match:  processor.MatchLiteral(marker),
			Role:   l.role,
			Format: markerFormat(marker),
		}); err != nil {
			return err
		}
	}

	if err := reg.Register("alias", processor.Descriptor{
		Match: processor.MatchPredicate(func(line string) bool {
			return strings.HasPrefix(line, MarkerAliasPfx)
		}),
		Role:   processor.RoleUser,
		Format: markerFormat(MarkerUser),
		ExtraFields: func(line string) map[string]string {
			name := strings.TrimSpace(strings.TrimPrefix(line, MarkerAliasPfx))
			return map[string]string{"alias": name}
		},
	}); err != nil {
		return err
	}

	variants := []struct {
		name      string
		errName   string
		markers   expand.Markers
		transform func([]string) string
	}{
		{"included", "include-error", IncludeMarkers, nil},
		{"fetched", "fetch-error", FetchMarkers, nil},
		// Command output reaches the model fenced; the document keeps it raw.
		{"ran", "run-error", RunMarkers, fencedTransform},
	}
	for _, v := range variants {
		markers := v.markers
		if err := reg.Register(v.name, processor.Descriptor{
			Match: processor.MatchPredicate(func(line string) bool {
				st, ok := markers.StateOf(line)
				return ok && st == expand.StateCompleted
			}),
			Role:             processor.RoleUser,
			Format:           markerFormat(markers.Completed),
			ContentTransform: v.transform,
		}); err != nil {
			return err
		}
		if err := reg.Register(v.errName, processor.Descriptor{
			Match: processor.MatchPredicate(func(line string) bool {
				st, ok := markers.StateOf(line)
				return ok && st == expand.StateError
			}),
			Role:   processor.RoleUser,
			Format: markerFormat(markers.Error),
		}); err != nil {
			return err
		}
	}
	return nil
}

// Specs returns the block specs for the expander, in the order they should
// be expanded.
func Specs() []expand.BlockSpec {
	return []expand.BlockSpec{
		{Type: "include", Markers: IncludeMarkers, Format: rawLines},
		{Type: "fetch", Markers: FetchMarkers, Format: rawLines},
		{Type: "run", Markers: RunMarkers, Format: rawLines},
	}
}

// markerFormat renders content under the given marker line.
func markerFormat(marker string) func(string) string {
	return func(content string) string {
		return marker + "\n" + strings.TrimRight(content, "\n") + "\n"
	}
}

// rawLines splits an executor result into document lines unchanged.
func rawLines(result string) []string {
	return strings.Split(strings.TrimRight(result, "\n"), "\n")
}

// fencedTransform wraps expanded command output in a code fence after
// trimming blank edges.
func fencedTransform(lines []string) string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	if start == end {
		return ""
	}
	return "```\n" + strings.Join(lines[start:end], "\n") + "\n```"
}
