// ABOUTME: Conversation option merging across the four configuration tiers
// ABOUTME: Shallow per-key overwrite - document block > alias > global > defaults

package config

import (
	"fmt"
	"strconv"
)

// Recognized option keys. Unknown keys are carried through untouched so
// executors can consume them.
const (
	KeyModel              = "model"
	KeyTemperature        = "temperature"
	KeyMaxTokens          = "max_tokens"
	KeyProvider           = "provider"
	KeyExpandPlaceholders = "expand_placeholders"
)

// Defaults returns the compiled-in lowest-precedence tier.
func Defaults() map[string]string {
	return map[string]string{
		KeyModel:              "claude-sonnet-4-5",
		KeyTemperature:        "0.7",
		KeyMaxTokens:          "4096",
		KeyProvider:           "anthropic",
		KeyExpandPlaceholders: "false",
	}
}

// Merge layers option maps by shallow per-key overwrite, highest precedence
// first: document config block, then alias config, then global config, over
// the compiled defaults. Nil maps are allowed.
func Merge(docBlock, alias, global map[string]string) map[string]string {
	merged := Defaults()
	for _, tier := range []map[string]string{global, alias, docBlock} {
		for k, v := range tier {
			merged[k] = v
		}
	}
	return merged
}

// Options is the typed view of a merged option map.
type Options struct {
	Model              string
	Temperature        float64
	MaxTokens          int
	Provider           string
	ExpandPlaceholders bool
	Extra              map[string]string
}

// Resolve parses a merged option map into typed Options.
// Returns an error for values that fail to parse.
func Resolve(merged map[string]string) (Options, error) {
	opts := Options{Extra: make(map[string]string)}
	for k, v := range merged {
		switch k {
		case KeyModel:
			opts.Model = v
		case KeyProvider:
			opts.Provider = v
		case KeyTemperature:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return Options{}, fmt.Errorf("parsing %s=%q: %w", k, v, err)
			}
			opts.Temperature = f
		case KeyMaxTokens:
			n, err := strconv.Atoi(v)
			if err != nil {
				return Options{}, fmt.Errorf("parsing %s=%q: %w", k, v, err)
			}
			opts.MaxTokens = n
		case KeyExpandPlaceholders:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return Options{}, fmt.Errorf("parsing %s=%q: %w", k, v, err)
			}
			opts.ExpandPlaceholders = b
		default:
			opts.Extra[k] = v
		}
	}
	return opts, nil
}
