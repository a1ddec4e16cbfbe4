// Package config loads workspace configuration for embedls.
//
// A config file is TOML (embedls.toml) or YAML (embedls.yaml, embedls.yml).
// It names the locale and workspace root, carries free-form workspace
// settings served to rules through Host, and declares the Lua lint rules in
// the order they run:
//
//	locale = "en"
//
//	[workspace]
//	editor.tabSize = 2
//
//	[lint]
//	severities = { "no-tabs" = "warning" }
//
//	[[lint.rules]]
//	name = "no-tabs"
//	script = "rules/no-tabs.lua"
//	files = ["**/*.vue"]
//
// Watcher reloads the file when it changes on disk.
package config
