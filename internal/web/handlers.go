package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/berth-dev/recall/internal/log"
	"github.com/berth-dev/recall/internal/recap"
	"github.com/berth-dev/recall/internal/search"
)

const (
	maxQuerySize = 10 << 10 // 10KB
	maxLimit     = 200
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleAPISearch(c *gin.Context) {
	opts, err := s.parseOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	start := time.Now()
	results, err := s.finder.Search(c.Request.Context(), opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	s.logEvent(log.LogEvent{
		Event:      log.EventSearchComplete,
		Query:      opts.Query,
		Dialect:    string(opts.Dialect),
		Results:    len(results),
		DurationMs: time.Since(start).Milliseconds(),
		Source:     "api",
	})

	if results == nil {
		results = []search.Result{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"query":   opts.Query,
		"results": results,
		"count":   len(results),
	})
}

func (s *Server) handleAPISession(c *gin.Context) {
	res, ok := s.lookup(c)
	if !ok {
		return
	}

	s.logEvent(log.LogEvent{Event: log.EventSessionShown, SessionID: res.ID, Source: "api"})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": res,
	})
}

func (s *Server) handleAPIRecap(c *gin.Context) {
	if s.recapper == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   recap.ErrNoAPIKey.Error(),
		})
		return
	}

	res, ok := s.lookup(c)
	if !ok {
		return
	}

	rc, err := s.recapper.Recap(c.Request.Context(), &res.Session)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	s.logEvent(log.LogEvent{Event: log.EventRecapGenerated, SessionID: res.ID, Source: "api"})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": res.ID,
		"recap":   rc,
	})
}

// lookup resolves the :id param and writes the error response itself.
func (s *Server) lookup(c *gin.Context) (*search.Result, bool) {
	id := c.Param("id")

	res, err := s.finder.Lookup(c.Request.Context(), id)
	if err == nil {
		return res, true
	}

	var amb *search.AmbiguousError
	switch {
	case errors.Is(err, search.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "session not found",
		})
	case errors.As(err, &amb):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   err.Error(),
			"matches": amb.Matches,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
	}
	return nil, false
}

// parseOptions builds search options from query parameters. tool may repeat
// or hold a comma-separated list.
func (s *Server) parseOptions(c *gin.Context) (search.Options, error) {
	var opts search.Options

	opts.Query = c.Query("q")
	if len(opts.Query) > maxQuerySize {
		return opts, errors.New("query exceeds maximum size of 10KB")
	}

	if v := c.Query("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 0 {
			return opts, fmt.Errorf("invalid days %q", v)
		}
		opts.Days = days
	}

	var err error
	if opts.Since, err = search.ParseDate(c.Query("since")); err != nil {
		return opts, err
	}
	if opts.Until, err = search.ParseUntil(c.Query("until")); err != nil {
		return opts, err
	}

	for _, t := range c.QueryArray("tool") {
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				opts.Tools = append(opts.Tools, part)
			}
		}
	}
	opts.FilePattern = c.Query("file")

	opts.Limit = s.DefaultLimit
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > maxLimit {
			return opts, fmt.Errorf("invalid limit %q (want 1-%d)", v, maxLimit)
		}
		opts.Limit = limit
	}

	if opts.Dialect, err = search.ParseDialect(c.Query("dialect")); err != nil {
		return opts, err
	}

	return opts, nil
}
