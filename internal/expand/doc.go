// Package expand drives asynchronous expansion of content-block directives
// inside a document. Block state is encoded textually in the marker itself
// (base, in-progress, completed, error variants), so state survives
// save/reload without side tables. Real work is delegated to an external
// executor; the expander owns the state transitions, span bookkeeping, and
// line-offset drift across concurrent expansions.
package expand
