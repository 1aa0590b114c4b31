// Package web serves search and session lookup over HTTP.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/berth-dev/recall/internal/log"
	"github.com/berth-dev/recall/internal/recap"
	"github.com/berth-dev/recall/internal/search"
	"github.com/berth-dev/recall/internal/transcript"
)

// Finder is the search surface the handlers need. *search.Searcher satisfies it.
type Finder interface {
	Search(ctx context.Context, opts search.Options) ([]search.Result, error)
	Lookup(ctx context.Context, id string) (*search.Result, error)
}

// Recapper generates recaps. *recap.Recapper satisfies it.
type Recapper interface {
	Recap(ctx context.Context, s *transcript.Session) (*recap.Recap, error)
}

// Server is the recall web server
type Server struct {
	finder   Finder
	recapper Recapper
	logger   *log.Logger
	router   *gin.Engine

	// DefaultLimit applies when a request has no limit parameter.
	DefaultLimit int

	// Verbose reports event log write failures on gin's error writer.
	Verbose bool
}

// NewServer creates a new web server. logger and recapper may be nil.
func NewServer(finder Finder, recapper Recapper, logger *log.Logger) *Server {
	router := gin.Default()

	s := &Server{
		finder:       finder,
		recapper:     recapper,
		logger:       logger,
		router:       router,
		DefaultLimit: search.DefaultLimit,
	}

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	{
		api.GET("/search", s.handleAPISearch)
		api.GET("/sessions/:id", s.handleAPISession)
		api.POST("/sessions/:id/recap", s.handleAPIRecap)
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) logEvent(ev log.LogEvent) {
	if err := s.logger.Append(ev); err != nil && s.Verbose {
		fmt.Fprintf(gin.DefaultErrorWriter, "Warning: writing event log: %v\n", err)
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logEvent(log.LogEvent{Event: log.EventServerStarted, Addr: addr, Source: "api"})

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
