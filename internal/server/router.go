package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/9renpoto/time-wise/internal/report"
	"github.com/9renpoto/time-wise/internal/startup"
	"github.com/9renpoto/time-wise/internal/usage"
)

// Router provides embeddable read-only HTTP handlers over the usage
// recorder and the startup store.
// Endpoints:
//   GET {basePath}/usage      current usage records, most used first
//   GET {basePath}/startups   startup records, newest first; ?limit=N optional
//   GET {basePath}/summary    dashboard summary derived from both
//   GET /healthz              liveness probe (always unprefixed)
// basePath may be empty or start with '/'; no trailing slash.

// UsageSource yields the current usage snapshot.
type UsageSource interface {
	Records() []usage.Record
}

// StartupSource yields recorded startup durations, newest first.
type StartupSource interface {
	Records(ctx context.Context) []startup.Record
}

type Router struct {
	usage    UsageSource
	startups StartupSource
	basePath string
}

// NewRouter constructs a new Router with configurable basePath.
// Example basePath: "/api" results in /api/usage, /api/startups, /api/summary.
func NewRouter(u UsageSource, s StartupSource, basePath string) *Router {
	bp := sanitizeBase(basePath)
	return &Router{usage: u, startups: s, basePath: bp}
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	g.GET("/healthz", r.handleHealthz)
	group := g.Group(r.basePath)
	group.GET("/usage", r.handleUsage)
	group.GET("/startups", r.handleStartups)
	group.GET("/summary", r.handleSummary)
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
// The returned server can be shut down via http.Server's Close or Shutdown.
func NewServer(addr, basePath string, u UsageSource, s StartupSource) (*http.Server, error) {
	r := NewRouter(u, s, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

func (r *Router) handleHealthz(c *gin.Context) {
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleUsage(c *gin.Context) {
	recs := r.usage.Records()
	if recs == nil {
		recs = []usage.Record{}
	}
	writeJSON(c, http.StatusOK, recs)
}

func (r *Router) handleStartups(c *gin.Context) {
	recs := r.startups.Records(c.Request.Context())
	if recs == nil {
		recs = []startup.Record{}
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			writeJSON(c, http.StatusBadRequest, errorResp{Error: "limit must be a positive integer"})
			return
		}
		if limit < len(recs) {
			recs = recs[:limit]
		}
	}
	writeJSON(c, http.StatusOK, recs)
}

func (r *Router) handleSummary(c *gin.Context) {
	summary := report.Build(r.usage.Records(), r.startups.Records(c.Request.Context()))
	writeJSON(c, http.StatusOK, summary)
}
