// Package track provides thin domain managers over the state store:
// asynchronous request records, buffer activation, UI indicators, and
// selection state. Managers add domain validation and convenience
// operations; the store remains the single source of truth.
package track
