// ABOUTME: Local executors for the built-in block types - file include, URL fetch, command run
// ABOUTME: All satisfy the executor contract synchronously; errors flow through onError only

package blocks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// FileExecutor reads the target path and returns its contents.
// The "lines" option ("start-end", one-based inclusive) selects a range.
type FileExecutor struct {
	// Root, when set, resolves relative targets against this directory.
	Root   string
	Logger *slog.Logger
}

// Execute implements the executor contract.
func (f *FileExecutor) Execute(target string, options map[string]string, onSuccess func(string), onError func(error)) {
	if target == "" {
		onError(fmt.Errorf("include: no file path given"))
		return
	}
	path := target
	if f.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(f.Root, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		onError(fmt.Errorf("include: %w", err))
		return
	}
	content := string(data)

	if rng, ok := options["lines"]; ok {
		content, err = selectLines(content, rng)
		if err != nil {
			onError(fmt.Errorf("include: %w", err))
			return
		}
	}
	onSuccess(content)
}

// selectLines returns the one-based inclusive line range "start-end".
func selectLines(content, rng string) (string, error) {
	first, last, ok := strings.Cut(rng, "-")
	if !ok {
		return "", fmt.Errorf("bad lines range %q", rng)
	}
	start, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return "", fmt.Errorf("bad lines range %q", rng)
	}
	end, err := strconv.Atoi(strings.TrimSpace(last))
	if err != nil {
		return "", fmt.Errorf("bad lines range %q", rng)
	}
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	if start < 1 || end < start || start > len(lines) {
		return "", fmt.Errorf("lines range %q out of bounds (%d lines)", rng, len(lines))
	}
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start-1:end], "\n"), nil
}

// FetchExecutor retrieves the target URL over HTTP.
// The "timeout" option is a Go duration string.
type FetchExecutor struct {
	Client *http.Client
	Logger *slog.Logger
}

// Execute implements the executor contract.
func (f *FetchExecutor) Execute(target string, options map[string]string, onSuccess func(string), onError func(error)) {
	if target == "" {
		onError(fmt.Errorf("fetch: no url given"))
		return
	}
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	ctx := context.Background()
	if raw, ok := options["timeout"]; ok {
		d, err := time.ParseDuration(raw)
		if err != nil {
			onError(fmt.Errorf("fetch: bad timeout %q: %w", raw, err))
			return
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		onError(fmt.Errorf("fetch: %w", err))
		return
	}
	resp, err := client.Do(req)
	if err != nil {
		onError(fmt.Errorf("fetch: %w", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		onError(fmt.Errorf("fetch: %s returned %s", target, resp.Status))
		return
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		onError(fmt.Errorf("fetch: reading body: %w", err))
		return
	}
	onSuccess(string(body))
}

// CommandExecutor runs the target as a shell command and returns its
// combined output. The "timeout" option bounds execution time.
type CommandExecutor struct {
	// Dir is the working directory for commands; empty uses the process cwd.
	Dir    string
	Logger *slog.Logger
}

// Execute implements the executor contract.
func (c *CommandExecutor) Execute(target string, options map[string]string, onSuccess func(string), onError func(error)) {
	if target == "" {
		onError(fmt.Errorf("run: no command given"))
		return
	}

	timeout := 60 * time.Second
	if raw, ok := options["timeout"]; ok {
		d, err := time.ParseDuration(raw)
		if err != nil {
			onError(fmt.Errorf("run: bad timeout %q: %w", raw, err))
			return
		}
		timeout = d
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", target)
	cmd.Dir = c.Dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		onError(fmt.Errorf("run: %w: %s", err, strings.TrimSpace(string(out))))
		return
	}
	onSuccess(string(out))
}
