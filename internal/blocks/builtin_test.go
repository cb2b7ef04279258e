// ABOUTME: Tests for built-in registration and the end-to-end parse/expand grammar
// ABOUTME: Covers registration ordering, round-trips, and the fenced run transform

package blocks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/quill/internal/document"
	"github.com/2389/quill/internal/expand"
	"github.com/2389/quill/internal/parser"
	"github.com/2389/quill/internal/processor"
)

func builtinRegistry(t *testing.T) *processor.Registry {
	t.Helper()
	reg := processor.NewRegistry()
	require.NoError(t, RegisterBuiltins(reg))
	return reg
}

func TestRegisterBuiltins_Idempotence(t *testing.T) {
	reg := builtinRegistry(t)
	err := RegisterBuiltins(reg)
	require.ErrorIs(t, err, processor.ErrDuplicateProcessor)
}

func TestBuiltins_RoleMarkers(t *testing.T) {
	reg := builtinRegistry(t)

	name, desc := reg.MatchLine(">>> user")
	require.NotNil(t, desc)
	assert.Equal(t, "user", name)
	assert.Equal(t, processor.RoleUser, desc.Role)

	name, desc = reg.MatchLine("<<< assistant")
	require.NotNil(t, desc)
	assert.Equal(t, "assistant", name)
	assert.Equal(t, processor.RoleAssistant, desc.Role)
}

func TestBuiltins_BaseMarkerNotShadowedByVariants(t *testing.T) {
	reg := builtinRegistry(t)

	name, _ := reg.MatchLine(">>> include")
	assert.Equal(t, "include", name)
	name, _ = reg.MatchLine(">>> including")
	assert.Equal(t, "including", name)
	name, _ = reg.MatchLine(">>> included [2026-08-31T10:00:00Z]")
	assert.Equal(t, "included", name)
	name, _ = reg.MatchLine(">>> include-error")
	assert.Equal(t, "include-error", name)
}

func TestBuiltins_AliasCapture(t *testing.T) {
	reg := builtinRegistry(t)

	name, desc := reg.MatchLine(">>> alias:coder")
	require.NotNil(t, desc)
	assert.Equal(t, "alias", name)
	fields := desc.ExtraFields(">>> alias:coder")
	assert.Equal(t, "coder", fields["alias"])
}

func TestBuiltins_FormatParseRoundTrip(t *testing.T) {
	reg := builtinRegistry(t)

	for _, name := range []string{"user", "assistant", "system"} {
		desc, err := reg.Get(name)
		require.NoError(t, err)

		text := desc.Format("round trip body")
		msgs, _ := parser.Parse(strings.Split(strings.TrimSuffix(text, "\n"), "\n"), reg, parser.Options{TitleSet: true})

		var found bool
		for _, m := range msgs {
			if m.Role == desc.Role && m.Content == "round trip body" {
				found = true
			}
		}
		assert.True(t, found, "processor %q did not round-trip", name)
	}
}

func TestBuiltins_RanTransformFencesOutput(t *testing.T) {
	reg := builtinRegistry(t)

	doc := ">>> ran [2026-08-31T10:00:00Z]\ntotal 4\ndrwxr-xr-x notes\n"
	msgs, _ := parser.Parse(strings.Split(strings.TrimSuffix(doc, "\n"), "\n"), reg, parser.Options{TitleSet: true})

	require.Len(t, msgs, 2)
	assert.Equal(t, "```\ntotal 4\ndrwxr-xr-x notes\n```", msgs[1].Content)
}

func TestBuiltins_UnexpandedBlockParsesAsPlainContent(t *testing.T) {
	reg := builtinRegistry(t)

	// The raw directive is trimmed like plain content; expansion is the
	// expander's job, not the parser's.
	doc := ">>> include\nnotes.txt\n-- lines: 1-3\n"
	msgs, _ := parser.Parse(strings.Split(strings.TrimSuffix(doc, "\n"), "\n"), reg, parser.Options{TitleSet: true})

	require.Len(t, msgs, 2)
	assert.Equal(t, processor.RoleUser, msgs[1].Role)
	assert.Equal(t, "notes.txt\n-- lines: 1-3", msgs[1].Content)
}

func TestSpecs_ExpandThenParse(t *testing.T) {
	reg := builtinRegistry(t)
	e := expand.New(reg, nil, nil)

	specs := Specs()
	require.Len(t, specs, 3)
	require.NoError(t, e.RegisterBlock(specs[2], stubExec{result: "hello from command"}))

	buf := document.FromText(">>> run\necho hi\n\n>>> user\nsummarize that\n")
	assert.True(t, e.ExpandAll(buf))

	lines := buf.Lines()
	require.True(t, strings.HasPrefix(lines[0], ">>> ran ["), "got %q", lines[0])
	assert.Equal(t, "hello from command", lines[1])

	msgs, _ := parser.Parse(buf.Lines(), reg, parser.Options{TitleSet: true})
	require.Len(t, msgs, 3)
	assert.Equal(t, "```\nhello from command\n```", msgs[1].Content)
	assert.Equal(t, "summarize that", msgs[2].Content)
}

type stubExec struct{ result string }

func (s stubExec) Execute(_ string, _ map[string]string, onSuccess func(string), _ func(error)) {
	onSuccess(s.result)
}
