// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Normaliser / NormaliserRegistry: parse raw transcripts
//   - PostProcessor / PostProcessorPipeline: turn a transcript into chunks
//   - EmbeddingService: text to vectors
//   - VectorStore: the catalog and content collections
//   - CourseStore: course metadata persistence
//   - SessionStore: bounded conversation history
//   - ConfigStore / PromptStore: configuration and prompt templates
//
// # Optional Interfaces
//
//   - LLMService: without it the answer path is disabled but ingestion,
//     search and course listing still work.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
