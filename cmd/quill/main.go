// ABOUTME: Entry point for the quill CLI
// ABOUTME: All commands live in internal/cli

package main

import "github.com/2389/quill/internal/cli"

func main() {
	cli.Execute()
}
