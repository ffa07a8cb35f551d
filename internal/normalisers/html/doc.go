// Package html ingests course transcripts saved as web pages. Markup is
// reduced to one text line per block element and the result is parsed
// like a plain transcript. The page <title> stands in for a missing
// "Course Title:" header.
package html
