// Package domain holds lectern's vocabulary: courses and their lessons as
// parsed from a transcript, the chunks cut from lesson text, the passages
// and sources search returns, and the replies a language model produces
// (a final answer or a single tool request).
//
// Everything else in the module imports domain; domain imports only the
// standard library. The sentinel errors in errors.go are the ones callers
// match with errors.Is across layers.
package domain
