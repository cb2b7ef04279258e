// Package blocks defines the built-in message and block types and their
// marker grammar, and provides the local executors the CLI host binds to
// them. Registration is explicit at startup; nothing registers itself as an
// import side effect.
package blocks
