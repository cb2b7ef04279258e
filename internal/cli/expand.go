// ABOUTME: quill expand - expand include, fetch, and run blocks in a file
// ABOUTME: Rewrites the file in place once all blocks have resolved

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "expand <file>",
		Short: "Expand blocks in a chat document",
		Long:  "Expand include, fetch, and run blocks in place, rewriting the file. Relative paths resolve against the document's directory.",
		Args:  cobra.ExactArgs(1),
		Run:   runExpand,
	}
	cmd.Flags().Bool("dry-run", false, "Print the expanded document instead of rewriting the file")
	RootCmd.AddCommand(cmd)
}

func runExpand(cmd *cobra.Command, args []string) {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	g := loadGlobal()
	s, cleanup := newSession(g, args[0])
	defer cleanup()

	buf := loadBuffer(args[0])
	if !s.Expand(buf) {
		fmt.Fprintln(os.Stderr, "nothing to expand")
		return
	}

	if dryRun {
		fmt.Print(buf.Text())
		return
	}
	if err := os.WriteFile(args[0], []byte(buf.Text()), 0o644); err != nil {
		exitErr("write document", err)
	}
}
