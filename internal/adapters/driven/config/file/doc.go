// Package file keeps user-editable configuration under ~/.qplens:
// config.toml for settings and prompts/ for LLM prompt templates.
package file
