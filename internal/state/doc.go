// Package state provides a validated, observable key-path store used to
// coordinate concurrent in-flight operations. Values are addressed by
// dot-separated paths, reads return defensive copies, and mutations notify
// subscribers synchronously.
package state
