// Package services holds lectern's application logic behind the driving
// ports: ingesting transcripts into the semantic index, resolving course
// names, searching lesson content, running the two-phase answer loop with its
// single tool call, and keeping per-session conversation windows.
//
// Services depend only on driven ports, so every backend (SQLite, Qdrant,
// Redis, the LLM providers) is chosen at wiring time in cmd/lectern.
package services
