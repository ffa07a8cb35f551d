// Package mcp serves course search, outlines and answers to Model Context
// Protocol clients over stdio or streamable HTTP.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"
)

// Version is reported to clients in the initialize handshake.
const Version = "0.1.0"

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

type Server struct {
	ports        *Ports
	server       *mcp.Server
	instructions string
}

// NewServer registers the course tools and resources. Ports.Answer may be
// nil, in which case the ask tool is left out.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{ports: ports, instructions: instructionsFor(ports)}
	s.server = mcp.NewServer(
		&mcp.Implementation{Name: "lectern", Version: Version},
		&mcp.ServerOptions{Instructions: s.instructions},
	)
	s.registerTools()
	s.registerResources()
	return s, nil
}

func instructionsFor(ports *Ports) string {
	lines := []string{
		"Lectern answers questions about indexed course transcripts.",
		"Use get_course_outline for a course's title, link and lesson list.",
		"Use search_course_content for transcript passages, optionally narrowed by course and lesson.",
	}
	if ports.Answer != nil {
		lines = append(lines, "Use ask for a synthesised answer with sources; pass session_id to continue a conversation.")
	}
	lines = append(lines, "Courses are also readable as resources under "+uriScheme+"courses.")
	return strings.Join(lines, "\n")
}

// Run serves stdio until ctx is done or the client hangs up.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.server }, nil)
}

// RunHTTP serves streamable HTTP on addr. Cancelling ctx drains in-flight
// requests and returns nil; a listen failure is returned as is.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: readHeaderTimeout}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
