package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil ports returns error", func(t *testing.T) {
		server, err := NewServer(nil)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingSearchService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Search:  &mockSearchService{},
			Courses: &mockCourseService{},
		})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})

	t.Run("answer service is optional", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Search:  &mockSearchService{},
			Courses: &mockCourseService{},
			Answer:  &mockAnswerService{},
		})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ports   *Ports
		wantErr error
	}{
		{name: "empty", ports: &Ports{}, wantErr: ErrMissingSearchService},
		{name: "search only", ports: &Ports{Search: &mockSearchService{}}, wantErr: ErrMissingCourseService},
		{name: "search and courses", ports: &Ports{Search: &mockSearchService{}, Courses: &mockCourseService{}}},
		{
			name:  "all ports",
			ports: &Ports{Search: &mockSearchService{}, Courses: &mockCourseService{}, Answer: &mockAnswerService{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestServer_Instructions(t *testing.T) {
	withoutAnswer := newTestServer(&mockSearchService{}, &mockCourseService{}, nil)
	assert.Contains(t, withoutAnswer.instructions, "search_course_content")
	assert.Contains(t, withoutAnswer.instructions, "get_course_outline")
	assert.Contains(t, withoutAnswer.instructions, "lectern://courses")
	assert.NotContains(t, withoutAnswer.instructions, "ask for")

	withAnswer := newTestServer(&mockSearchService{}, &mockCourseService{}, &mockAnswerService{})
	assert.Contains(t, withAnswer.instructions, "ask for a synthesised answer")
}

func TestServer_Handler(t *testing.T) {
	s := newTestServer(&mockSearchService{}, &mockCourseService{}, nil)
	assert.NotNil(t, s.Handler())
}

func TestServer_RunHTTPStopsOnCancel(t *testing.T) {
	s := newTestServer(&mockSearchService{}, &mockCourseService{}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- s.RunHTTP(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunHTTP did not return after cancel")
	}
}
