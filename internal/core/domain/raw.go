package domain

// RawDocument represents opaque transcript bytes before normalisation.
type RawDocument struct {
	// URI is the original location (file path, URL, etc).
	URI string

	// MIMEType is the content type (e.g., "text/plain").
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// Section is a contiguous run of transcript text that belongs to one lesson,
// or to the course as a whole when LessonNumber is nil.
type Section struct {
	LessonNumber *int
	Body         string
}

// Transcript is a normalised course document: its metadata plus the
// sections to be chunked, in document order.
type Transcript struct {
	Course   Course
	Sections []Section
}
