// Package processor defines the descriptor registry that maps marker lines
// to message and block types. New types are added purely by registering a
// descriptor; the parser and expander never need to change.
package processor
