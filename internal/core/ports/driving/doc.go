// Package driving declares the use cases the CLI, TUI and MCP server call.
// internal/core/services implements them.
package driving
