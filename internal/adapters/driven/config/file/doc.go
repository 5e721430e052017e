// Package file provides file-based configuration adapters: a TOML
// config store for settings and a prompt store for user-editable
// generation prompts.
package file
