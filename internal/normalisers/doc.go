// Package normalisers provides implementations of the Normaliser interface.
// Each normaliser knows how to turn a raw document of a given MIME type
// into a transcript.
//
// Normalisers are registered with the Registry at startup.
package normalisers
