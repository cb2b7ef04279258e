// Package config handles conversation option layering and global
// configuration loading for quill.
//
// # Overview
//
// Options reach a conversation through four tiers, highest precedence first:
//
//  1. Document config block (">>> config" region in the document)
//  2. Alias config (attached to the alias the document invokes)
//  3. Global session config (YAML file)
//  4. Compiled defaults
//
// Merging is a shallow per-key overwrite, never a deep merge.
//
// # Global Configuration File
//
// The global file is YAML with environment variable expansion:
//
//	provider: "anthropic"
//	model: "claude-sonnet-4-5"
//	temperature: 0.7
//	max_tokens: 4096
//	aliases: "~/.config/quill/aliases.toml"
//	ledger:
//	  enabled: true
//	  path: "~/.local/share/quill/ledger.db"
//	logging:
//	  level: "info"
//	  format: "text"
//
// Syntax for expansion: ${VAR_NAME}.
package config
