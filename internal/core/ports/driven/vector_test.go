package driven

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_Matches(t *testing.T) {
	meta := map[string]any{
		MetaCourseTitle:  "Intro to Testing",
		MetaLessonNumber: int64(1),
	}

	tests := []struct {
		name     string
		filter   Filter
		expected bool
	}{
		{"nil filter matches everything", nil, true},
		{"course matches", Filter{MetaCourseTitle: "Intro to Testing"}, true},
		{"course mismatch", Filter{MetaCourseTitle: "Other"}, false},
		{"lesson as int matches int64", Filter{MetaLessonNumber: 1}, true},
		{"lesson as float matches", Filter{MetaLessonNumber: 1.0}, true},
		{"lesson mismatch", Filter{MetaLessonNumber: 2}, false},
		{"conjunction", Filter{MetaCourseTitle: "Intro to Testing", MetaLessonNumber: 1}, true},
		{"conjunction with one miss", Filter{MetaCourseTitle: "Intro to Testing", MetaLessonNumber: 3}, false},
		{"missing key", Filter{MetaChunkIndex: 0}, false},
		{"string never equals number", Filter{MetaLessonNumber: "1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.filter.Matches(meta))
		})
	}
}
