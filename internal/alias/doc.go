// Package alias expands alias references captured during parsing into
// system/user message pairs and contributes the alias tier of option
// layering. Alias tables are loaded from TOML files.
package alias
