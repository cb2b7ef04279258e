// Package ledger persists request lifecycles to SQLite so a session's
// asynchronous work is auditable after the fact. The in-memory request
// table remains authoritative while work is in flight; the ledger is the
// durable record of what was dispatched and how it ended.
package ledger
