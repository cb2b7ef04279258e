// ABOUTME: quill history - list journaled requests from the ledger database
// ABOUTME: Requires the ledger to be enabled in the global config

package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/2389/quill/internal/ledger"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled requests",
		Long:  "List requests recorded in the ledger, newest first. The ledger must be enabled in the global config.",
		Args:  cobra.NoArgs,
		Run:   runHistory,
	}
	cmd.Flags().IntP("limit", "n", 20, "Maximum entries to show (0 for all)")
	RootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	g := loadGlobal()
	if !g.Ledger.Enabled || g.Ledger.Path == "" {
		exitErr("history", fmt.Errorf("ledger not enabled in config"))
	}

	store, err := ledger.New(g.Ledger.Path)
	if err != nil {
		exitErr("open ledger", err)
	}
	defer store.Close()

	entries, err := store.List(cmd.Context(), limit)
	if err != nil {
		exitErr("list requests", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROVIDER\tMODEL\tSTATUS\tCREATED\tDURATION")
	for _, e := range entries {
		duration := "-"
		if e.FinishedAt != nil {
			duration = e.FinishedAt.Sub(e.CreatedAt).Round(time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Provider, e.Model, e.Status,
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"), duration)
	}
	w.Flush()
}
