// ABOUTME: Tests for the document parser's region precedence and message assembly
// ABOUTME: Covers header skipping, ignore verbatim capture, config parsing, and defaults

package parser_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/quill/internal/parser"
	"github.com/2389/quill/internal/processor"
)

func testRegistry(t *testing.T) *processor.Registry {
	t.Helper()
	reg := processor.NewRegistry()
	format := func(content string) string { return content }

	require.NoError(t, reg.Register("user", processor.Descriptor{
		Match: processor.MatchLiteral(">>> user"), Role: processor.RoleUser, Format: format,
	}))
	require.NoError(t, reg.Register("assistant", processor.Descriptor{
		Match: processor.MatchLiteral("<<< assistant"), Role: processor.RoleAssistant, Format: format,
	}))
	require.NoError(t, reg.Register("system", processor.Descriptor{
		Match: processor.MatchLiteral(">>> system"), Role: processor.RoleSystem, Format: format,
	}))
	require.NoError(t, reg.Register("alias", processor.Descriptor{
		Match: processor.MatchPredicate(func(line string) bool {
			return strings.HasPrefix(line, ">>> alias:")
		}),
		Role:   processor.RoleUser,
		Format: format,
		ExtraFields: func(line string) map[string]string {
			return map[string]string{"alias": strings.TrimPrefix(line, ">>> alias:")}
		},
	}))
	return reg
}

func lines(text string) []string {
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

func TestParse_SimpleUserMessage(t *testing.T) {
	reg := testRegistry(t)
	msgs, _ := parser.Parse(lines(">>> user\nHello\n"), reg, parser.Options{})

	require.Len(t, msgs, 2)
	assert.Equal(t, processor.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, parser.DefaultSystemPrompt)
	assert.Equal(t, processor.RoleUser, msgs[1].Role)
	assert.Equal(t, "Hello", msgs[1].Content)
}

func TestParse_DefaultSystemCarriesAutoTitle(t *testing.T) {
	reg := testRegistry(t)

	msgs, _ := parser.Parse(lines(">>> user\nHi\n"), reg, parser.Options{})
	assert.Contains(t, msgs[0].Content, parser.AutoTitleInstruction)

	msgs, _ = parser.Parse(lines(">>> user\nHi\n"), reg, parser.Options{TitleSet: true})
	assert.NotContains(t, msgs[0].Content, parser.AutoTitleInstruction)
}

func TestParse_ExplicitSystemSuppressesDefault(t *testing.T) {
	reg := testRegistry(t)
	msgs, _ := parser.Parse(lines(">>> system\nBe terse.\n\n>>> user\nHi\n"), reg, parser.Options{})

	require.Len(t, msgs, 2)
	assert.Equal(t, processor.RoleSystem, msgs[0].Role)
	assert.Equal(t, "Be terse.", msgs[0].Content)
}

func TestParse_HeaderRegionSkipped(t *testing.T) {
	reg := testRegistry(t)
	doc := "---\ntitle: my chat\nanything >>> user here\n---\n>>> user\nHi\n"
	msgs, _ := parser.Parse(lines(doc), reg, parser.Options{})

	require.Len(t, msgs, 2)
	assert.Equal(t, "Hi", msgs[1].Content)
}

func TestParse_IgnoreRegionIsVerbatimContent(t *testing.T) {
	reg := testRegistry(t)
	doc := ">>> user\nbefore\n>>> ignore\n>>> user\nlooks like a marker\n<<< ignore\nafter\n"
	msgs, _ := parser.Parse(lines(doc), reg, parser.Options{})

	require.Len(t, msgs, 2)
	user := msgs[1]
	assert.Equal(t, processor.RoleUser, user.Role)
	assert.Equal(t, "before\n>>> user\nlooks like a marker\nafter", user.Content)
}

func TestParse_IgnoreRegionNestingUnsupported(t *testing.T) {
	reg := testRegistry(t)
	// The inner begin marker is plain content; the first end marker closes
	// the region, so the second end marker is content of the open message.
	doc := ">>> user\n>>> ignore\n>>> ignore\ninner\n<<< ignore\n<<< ignore\n"
	msgs, _ := parser.Parse(lines(doc), reg, parser.Options{})

	require.Len(t, msgs, 2)
	assert.Equal(t, ">>> ignore\ninner\n<<< ignore", msgs[1].Content)
}

func TestParse_ConfigRegion(t *testing.T) {
	reg := testRegistry(t)
	doc := ">>> config\nmodel: sonnet\ntemperature: 0.2\nnot a config line\n<<< config\n>>> user\nHi\n"
	msgs, config := parser.Parse(lines(doc), reg, parser.Options{})

	assert.Equal(t, map[string]string{"model": "sonnet", "temperature": "0.2"}, config)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Hi", msgs[1].Content)
}

func TestParse_AliasExtraFields(t *testing.T) {
	reg := testRegistry(t)
	msgs, _ := parser.Parse(lines(">>> alias:coder\nfix the bug\n"), reg, parser.Options{})

	require.Len(t, msgs, 2)
	assert.Equal(t, "coder", msgs[1].Extra["alias"])
	assert.Equal(t, "fix the bug", msgs[1].Content)
}

func TestParse_BlankLinesTrimmedAtMessageEdges(t *testing.T) {
	reg := testRegistry(t)
	doc := ">>> user\n\n\nHello\n\nworld\n\n\n<<< assistant\nok\n"
	msgs, _ := parser.Parse(lines(doc), reg, parser.Options{})

	require.Len(t, msgs, 3)
	assert.Equal(t, "Hello\n\nworld", msgs[1].Content)
	assert.Equal(t, "ok", msgs[2].Content)
}

func TestParse_ContentTransformApplied(t *testing.T) {
	reg := testRegistry(t)
	require.NoError(t, reg.Register("included", processor.Descriptor{
		Match: processor.MatchPredicate(func(line string) bool {
			return strings.HasPrefix(line, ">>> included")
		}),
		Role:   processor.RoleUser,
		Format: func(content string) string { return content },
		ContentTransform: func(ls []string) string {
			return "[[" + strings.TrimSpace(strings.Join(ls, "\n")) + "]]"
		},
	}))

	doc := ">>> included [2026-01-01T00:00:00Z]\nexpanded text\n"
	msgs, _ := parser.Parse(lines(doc), reg, parser.Options{})
	require.Len(t, msgs, 2)
	assert.Equal(t, "[[expanded text]]", msgs[1].Content)
}

func TestParse_LeadingContentBecomesImplicitUserMessage(t *testing.T) {
	reg := testRegistry(t)
	msgs, _ := parser.Parse(lines("stray text\n>>> user\nHi\n"), reg, parser.Options{})

	require.Len(t, msgs, 3)
	want := []processor.Message{
		msgs[0], // default system, checked elsewhere
		{Role: processor.RoleUser, Content: "stray text"},
		{Role: processor.RoleUser, Content: "Hi"},
	}
	if diff := cmp.Diff(want[1:], msgs[1:]); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_EmptyMessagesDropped(t *testing.T) {
	reg := testRegistry(t)
	msgs, _ := parser.Parse(lines(">>> user\n\n<<< assistant\nreply\n"), reg, parser.Options{})

	require.Len(t, msgs, 2)
	assert.Equal(t, processor.RoleAssistant, msgs[1].Role)
}

func TestParse_FormatThenParseRoundTrip(t *testing.T) {
	reg := testRegistry(t)
	desc, err := reg.Get("user")
	require.NoError(t, err)

	rendered := ">>> user\n" + desc.Format("round trip body\n")
	msgs, _ := parser.Parse(lines(rendered), reg, parser.Options{})
	require.Len(t, msgs, 2)
	assert.Equal(t, processor.RoleUser, msgs[1].Role)
	assert.Equal(t, "round trip body", msgs[1].Content)
}

func TestIsRegionMarker(t *testing.T) {
	assert.True(t, parser.IsRegionMarker(">>> ignore"))
	assert.True(t, parser.IsRegionMarker("<<< config  "))
	assert.False(t, parser.IsRegionMarker(">>> user"))
}
