// ABOUTME: quill parse - render the parsed conversation and merged options
// ABOUTME: Colorizes role headers so conversation structure is visible at a glance

package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/quill/internal/parser"
	"github.com/2389/quill/internal/processor"
)

func init() {
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a chat document and print the conversation",
		Long:  "Parse a chat document into role-tagged messages, resolving aliases and merging options across all config tiers.",
		Args:  cobra.ExactArgs(1),
		Run:   runParse,
	}
	cmd.Flags().Bool("options", false, "Also print the merged request options")
	RootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) {
	showOptions, _ := cmd.Flags().GetBool("options")

	g := loadGlobal()
	s, cleanup := newSession(g, args[0])
	defer cleanup()

	buf := loadBuffer(args[0])
	msgs, opts, err := s.BuildRequest(buf, parser.Options{})
	if err != nil {
		exitErr("build request", err)
	}

	for i, msg := range msgs {
		if i > 0 {
			fmt.Println()
		}
		roleColor(msg.Role).Printf("[%s]\n", msg.Role)
		fmt.Println(msg.Content)
	}

	if showOptions {
		fmt.Println()
		color.New(color.FgYellow).Println("Options:")
		fmt.Printf("  provider:    %s\n", opts.Provider)
		fmt.Printf("  model:       %s\n", opts.Model)
		fmt.Printf("  temperature: %g\n", opts.Temperature)
		fmt.Printf("  max_tokens:  %d\n", opts.MaxTokens)
		for k, v := range opts.Extra {
			fmt.Printf("  %s: %s\n", k, v)
		}
	}
}

func roleColor(role processor.Role) *color.Color {
	switch role {
	case processor.RoleSystem:
		return color.New(color.FgMagenta)
	case processor.RoleAssistant:
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgCyan)
	}
}
