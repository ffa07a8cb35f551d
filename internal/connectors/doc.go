// Package connectors provides sources that feed transcripts into ingestion.
// The filesystem connector watches a transcript directory for changes.
package connectors
