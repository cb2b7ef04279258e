// ABOUTME: Alias table loading and post-parse alias expansion
// ABOUTME: An alias-tagged message becomes an injected system message plus a prefixed user message

package alias

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/2389/quill/internal/processor"
)

// Alias is one named persona: a fixed system text, a prefix applied to the
// user's content, and option overrides merged between the global and
// document tiers.
type Alias struct {
	System     string            `toml:"system"`
	UserPrefix string            `toml:"user_prefix"`
	Config     map[string]string `toml:"config"`
}

// Table maps alias names to their descriptors.
type Table map[string]Alias

// tableFile is the TOML shape: [alias.NAME] sections.
type tableFile struct {
	Alias map[string]Alias `toml:"alias"`
}

// LoadTable reads an alias table from a TOML file.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading alias file: %w", err)
	}
	var f tableFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("parsing alias file: %w", err)
	}
	if f.Alias == nil {
		return Table{}, nil
	}
	return Table(f.Alias), nil
}

// Resolve replaces every message carrying an "alias" extra field with two
// messages: the alias's system text and the original content as a user
// message with the alias's prefix applied (an empty prefix is a no-op).
// Unknown aliases degrade permissively: the message passes through
// unchanged. The second return value is the merged alias config tier,
// later references overwriting earlier ones per key.
func Resolve(messages []processor.Message, table Table) ([]processor.Message, map[string]string) {
	out := make([]processor.Message, 0, len(messages))
	var cfg map[string]string

	for _, msg := range messages {
		name, tagged := msg.Extra["alias"]
		if !tagged {
			out = append(out, msg)
			continue
		}
		a, known := table[name]
		if !known {
			out = append(out, msg)
			continue
		}

		out = append(out, processor.Message{
			Role:    processor.RoleSystem,
			Content: a.System,
		})
		out = append(out, processor.Message{
			Role:    processor.RoleUser,
			Content: a.UserPrefix + msg.Content,
		})

		for k, v := range a.Config {
			if cfg == nil {
				cfg = make(map[string]string)
			}
			cfg[k] = v
		}
	}
	return out, cfg
}
