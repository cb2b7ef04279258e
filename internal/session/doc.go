// Package session wires the engine together: registry, parser, alias
// resolution, option layering, expander, and the state-store managers. It
// is the single construction point; nothing is registered as an import
// side effect and no global state table exists.
package session
