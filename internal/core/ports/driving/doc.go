// Package driving declares what the CLI, TUI and MCP adapters may ask of
// lectern: answer a question, search course content, look up outlines, ingest
// transcripts, manage sessions and edit settings.
//
// internal/core/services implements every interface here.
package driving
