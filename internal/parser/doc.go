// Package parser turns a document snapshot into an ordered list of
// role-tagged messages plus the document's embedded configuration. Parsing
// is a pure synchronous read; it never mutates the document.
package parser
