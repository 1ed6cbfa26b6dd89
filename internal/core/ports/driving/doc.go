// Package driving lists what the CLI, TUI, HTTP API and MCP server may ask
// of docchat: answers, passages, index control, documents, settings and
// diagnostics. internal/core/services implements every interface here.
package driving
