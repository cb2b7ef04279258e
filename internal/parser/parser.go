// ABOUTME: Single-pass marker-driven parser producing messages and embedded config
// ABOUTME: Region states (header, ignore, config) take precedence over registry matching

package parser

import (
	"strings"

	"github.com/2389/quill/internal/processor"
)

// Marker grammar for the regions the parser owns. Role and block markers
// come from the processor registry instead.
const (
	HeaderDelimiter = "---"
	IgnoreBegin     = ">>> ignore"
	IgnoreEnd       = "<<< ignore"
	ConfigBegin     = ">>> config"
	ConfigEnd       = "<<< config"
)

// DefaultSystemPrompt is prepended when the document produced no system message.
const DefaultSystemPrompt = "You are a helpful assistant."

// AutoTitleInstruction is appended to the default system prompt when the
// document has no title yet, asking the model to propose one.
const AutoTitleInstruction = "Begin your reply with a short conversation title on a line of the form 'Title: ...'."

// Options controls parse behavior supplied by the host.
type Options struct {
	// TitleSet indicates the document already carries a title, suppressing
	// the auto-title instruction.
	TitleSet bool
	// NoDefaultSystem suppresses default system message injection. Used by
	// callers that resolve aliases first and call EnsureSystem afterwards,
	// since an alias may supply the system message itself.
	NoDefaultSystem bool
}

// IsRegionMarker reports whether the line opens or closes a parser-owned
// region. The expander uses this to find span boundaries.
func IsRegionMarker(line string) bool {
	line = strings.TrimRight(line, " \t")
	switch line {
	case IgnoreBegin, IgnoreEnd, ConfigBegin, ConfigEnd:
		return true
	}
	return false
}

// Parse scans the document lines left to right and returns the conversation
// messages plus the config parsed from the document's config region.
//
// Precedence per line: header region, ignore region, config region, then
// registry matching. Lines matching nothing are content of the message
// being accumulated. Malformed input degrades permissively to literal
// content; Parse never fails.
func Parse(lines []string, reg *processor.Registry, opts Options) ([]processor.Message, map[string]string) {
	config := make(map[string]string)

	var messages []processor.Message

	// Accumulating message. Content before the first marker belongs to an
	// implicit user message.
	curRole := processor.RoleUser
	var curDesc *processor.Descriptor
	var curLines []string
	var curExtra map[string]string

	finalize := func() {
		content := finalizeContent(curLines, curDesc)
		if content == "" && len(curExtra) == 0 {
			curLines = nil
			return
		}
		messages = append(messages, processor.Message{
			Role:    curRole,
			Content: content,
			Extra:   curExtra,
		})
		curLines = nil
	}

	i := 0

	// Header region: a leading delimiter skips everything through the next
	// occurrence of the same delimiter.
	if len(lines) > 0 && strings.TrimRight(lines[0], " \t") == HeaderDelimiter {
		i = 1
		for i < len(lines) && strings.TrimRight(lines[i], " \t") != HeaderDelimiter {
			i++
		}
		if i < len(lines) {
			i++ // consume the closing delimiter
		}
	}

	inIgnore := false
	inConfig := false

	for ; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimRight(line, " \t")

		if inIgnore {
			// Only the first end marker closes the region; nesting is
			// intentionally unsupported, so an inner begin marker is content.
			if trimmed == IgnoreEnd {
				inIgnore = false
				continue
			}
			curLines = append(curLines, line)
			continue
		}

		if inConfig {
			if trimmed == ConfigEnd {
				inConfig = false
				continue
			}
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				continue // malformed config line, skip
			}
			config[strings.TrimSpace(key)] = strings.TrimSpace(value)
			continue
		}

		switch trimmed {
		case IgnoreBegin:
			inIgnore = true
			continue
		case ConfigBegin:
			inConfig = true
			continue
		}

		if _, desc := reg.MatchLine(line); desc != nil {
			finalize()
			curRole = desc.Role
			curDesc = desc
			curExtra = nil
			if desc.ExtraFields != nil {
				if fields := desc.ExtraFields(trimmed); len(fields) > 0 {
					curExtra = fields
				}
			}
			continue
		}

		curLines = append(curLines, line)
	}

	finalize()

	if !opts.NoDefaultSystem {
		messages = EnsureSystem(messages, opts)
	}
	return messages, config
}

// finalizeContent trims leading/trailing blank lines, or applies the
// descriptor's content transform when it has one. Transforms act on
// already-expanded text; an unexpanded block's raw directive is trimmed
// like plain content.
func finalizeContent(lines []string, desc *processor.Descriptor) string {
	if desc != nil && desc.ContentTransform != nil {
		return desc.ContentTransform(lines)
	}
	start := 0
	end := len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

// EnsureSystem prepends a default system message when the conversation has
// none, with the auto-title instruction attached unless a title is set.
func EnsureSystem(messages []processor.Message, opts Options) []processor.Message {
	for _, m := range messages {
		if m.Role == processor.RoleSystem {
			return messages
		}
	}
	prompt := DefaultSystemPrompt
	if !opts.TitleSet {
		prompt += " " + AutoTitleInstruction
	}
	out := make([]processor.Message, 0, len(messages)+1)
	out = append(out, processor.Message{Role: processor.RoleSystem, Content: prompt})
	return append(out, messages...)
}
