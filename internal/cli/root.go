// ABOUTME: Root command and shared session bootstrap for the quill CLI
// ABOUTME: Loads the global YAML config, alias table, and optional request ledger

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2389/quill/internal/alias"
	"github.com/2389/quill/internal/config"
	"github.com/2389/quill/internal/document"
	"github.com/2389/quill/internal/ledger"
	"github.com/2389/quill/internal/session"
	"github.com/2389/quill/internal/track"
)

var configPath string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Chat documents as plain text",
	Long:  "quill parses marker-structured chat documents into conversations and expands include, fetch, and run blocks in place.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $QUILL_CONFIG or ~/.config/quill/config.yaml)")
}

// Execute runs the CLI.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

func getConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if env := os.Getenv("QUILL_CONFIG"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "quill", "config.yaml")
}

// loadGlobal reads the global config. A missing file is not an error: the
// CLI works with compiled-in defaults.
func loadGlobal() *config.Global {
	g := &config.Global{}
	loaded, err := config.LoadGlobal(getConfigPath())
	switch {
	case err == nil:
		g = loaded
	case errors.Is(err, fs.ErrNotExist):
		// defaults
	default:
		exitErr("load config", err)
	}
	setupLogger(g.Logging)
	return g
}

func setupLogger(cfg config.Logging) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// newSession assembles a session for the document at docPath: the document's
// directory is the root for relative includes and run commands.
func newSession(g *config.Global, docPath string) (*session.Session, func()) {
	var aliases alias.Table
	if g.Aliases != "" {
		table, err := alias.LoadTable(g.Aliases)
		if err != nil {
			exitErr("load aliases", err)
		}
		aliases = table
	}

	var journal track.Journal
	cleanup := func() {}
	if g.Ledger.Enabled {
		path := g.Ledger.Path
		if path == "" {
			home, _ := os.UserHomeDir()
			path = filepath.Join(home, ".local", "share", "quill", "ledger.db")
		}
		store, err := ledger.New(path)
		if err != nil {
			exitErr("open ledger", err)
		}
		journal = store
		cleanup = func() { store.Close() }
	}

	root := filepath.Dir(docPath)
	s, err := session.New(session.Config{
		Root:    root,
		Aliases: aliases,
		Global:  g.Values(),
		Journal: journal,
	})
	if err != nil {
		exitErr("create session", err)
	}
	return s, cleanup
}

func loadBuffer(path string) *document.MemoryBuffer {
	data, err := os.ReadFile(path)
	if err != nil {
		exitErr("read document", err)
	}
	return document.FromText(string(data))
}
