// ABOUTME: quill watch - re-expand a document every time it is saved
// ABOUTME: Watches the parent directory since editors replace files on save

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/2389/quill/internal/document"
	"github.com/2389/quill/internal/session"
)

func init() {
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Watch a chat document and expand blocks on save",
		Long:  "Watch a chat document and expand any new blocks whenever the file is written. Stop with Ctrl-C.",
		Args:  cobra.ExactArgs(1),
		Run:   runWatch,
	}
	RootCmd.AddCommand(cmd)
}

func runWatch(cmd *cobra.Command, args []string) {
	path, err := filepath.Abs(args[0])
	if err != nil {
		exitErr("resolve path", err)
	}

	g := loadGlobal()
	s, cleanup := newSession(g, path)
	defer cleanup()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		exitErr("create watcher", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: most editors write a temp file and
	// rename it over the original, which drops a direct file watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		exitErr("watch directory", err)
	}

	// Expand whatever is already pending before waiting for saves.
	expandFile(s, path)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	fmt.Fprintf(os.Stderr, "watching %s\n", path)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			expandFile(s, path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		case <-sig:
			return
		}
	}
}

// expandFile expands blocks in the file and writes it back when anything
// changed. Our own write fires another event, but the re-expansion finds no
// unexpanded blocks and leaves the file alone.
func expandFile(s *session.Session, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read error: %v\n", err)
		return
	}
	buf := document.FromText(string(data))
	if !s.Expand(buf) {
		return
	}
	if err := os.WriteFile(path, []byte(buf.Text()), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "expanded %s\n", path)
}
