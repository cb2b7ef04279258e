// Package document models the host editor's text buffer as an ordered
// sequence of lines, supporting snapshots for parsing and span replacement
// for block expansion.
package document
