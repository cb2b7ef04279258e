// ABOUTME: Global YAML configuration file loading with env var expansion
// ABOUTME: Supplies the global/session tier of the option layering

package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Global is the session-wide configuration file for the CLI host.
type Global struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Aliases     string  `yaml:"aliases"`
	Ledger      Ledger  `yaml:"ledger"`
	Logging     Logging `yaml:"logging"`
}

// Ledger configures the request journal database.
type Ledger struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Logging holds log level and format.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadGlobal reads the global config from path, expanding ${VAR} references.
func LoadGlobal(path string) (*Global, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var g Global
	if err := yaml.Unmarshal([]byte(expanded), &g); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return &g, nil
}

// Values flattens the global config into the option-map form used by Merge.
// Zero values are omitted so they do not shadow lower tiers.
func (g *Global) Values() map[string]string {
	values := make(map[string]string)
	if g.Provider != "" {
		values[KeyProvider] = g.Provider
	}
	if g.Model != "" {
		values[KeyModel] = g.Model
	}
	if g.Temperature != 0 {
		values[KeyTemperature] = strconv.FormatFloat(g.Temperature, 'f', -1, 64)
	}
	if g.MaxTokens != 0 {
		values[KeyMaxTokens] = strconv.Itoa(g.MaxTokens)
	}
	return values
}

// expandEnvVars replaces ${VAR_NAME} and ${VAR_NAME:-default} patterns with
// environment values. An unset or empty variable expands to its default when
// one is given, or the empty string otherwise.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		expr := re.FindStringSubmatch(match)[1]
		name, fallback, hasFallback := strings.Cut(expr, ":-")
		if v := os.Getenv(name); v != "" {
			return v
		}
		if hasFallback {
			return fallback
		}
		return ""
	})
}
