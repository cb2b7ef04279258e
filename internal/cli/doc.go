// Package cli implements the quill CLI commands.
package cli
