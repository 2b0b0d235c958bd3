package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tinytelemetry/concentration/internal/deck"
	"github.com/tinytelemetry/concentration/internal/model"
	"github.com/tinytelemetry/concentration/internal/session"
)

// Server exposes game sessions over HTTP.
type Server struct {
	addr         string
	games        model.GameService
	catalog      model.CatalogProvider
	server       *http.Server
	ctx          context.Context
	cancel       context.CancelFunc
	startTime    time.Time
	pollInterval time.Duration
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, games model.GameService, catalog model.CatalogProvider) *Server {
	if addr == "" {
		addr = "0.0.0.0:3100"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:         addr,
		games:        games,
		catalog:      catalog,
		ctx:          ctx,
		cancel:       cancel,
		pollInterval: model.DefaultPollInterval,
	}
}

// Handler returns the router with every API route registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/catalog", s.handleCatalog)
	api.POST("/games", s.handleNewGame)
	api.GET("/games/:id", s.handlePoll)
	api.POST("/games/:id/reveal", s.handleReveal)
	api.POST("/games/:id/resolve", s.handleResolve)
	api.POST("/games/:id/reset", s.handleReset)
	api.DELETE("/games/:id", s.handleEndGame)
	api.GET("/games/:id/stream", s.handleStream)
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server. Open streams end with the
// server context.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, deck.ErrInsufficientItems):
		return http.StatusUnprocessableEntity
	case errors.Is(err, deck.ErrInvalidPairCount):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrCatalogUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, session.ErrTooManyGames):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(errorStatus(err), gin.H{"error": err.Error()})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	})
}

func (s *Server) handleCatalog(c *gin.Context) {
	items, err := s.catalog.ListItems(c.Request.Context())
	if err != nil {
		if !errors.Is(err, model.ErrCatalogUnavailable) {
			err = fmt.Errorf("%w: %w", model.ErrCatalogUnavailable, err)
		}
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

type newGameRequest struct {
	PairCount int     `json:"pair_count" binding:"omitempty,min=1,max=64"`
	Seed      *uint64 `json:"seed"`
}

func (s *Server) handleNewGame(c *gin.Context) {
	var req newGameRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
			return
		}
	}

	snap, err := s.games.NewGame(c.Request.Context(), model.NewGameOptions{PairCount: req.PairCount, Seed: req.Seed})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

func (s *Server) handlePoll(c *gin.Context) {
	after, err := parseAfter(c.Query("after"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "after must be a non-negative integer"})
		return
	}
	upd, err := s.games.Poll(c.Param("id"), after)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, upd)
}

type revealRequest struct {
	Slot *int `json:"slot" binding:"required"`
}

func (s *Server) handleReveal(c *gin.Context) {
	var req revealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing slot field"})
		return
	}
	upd, err := s.games.Reveal(c.Param("id"), *req.Slot)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, upd)
}

type resolveRequest struct {
	First  *int `json:"first" binding:"required"`
	Second *int `json:"second" binding:"required"`
}

func (s *Server) handleResolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing first/second fields"})
		return
	}
	upd, err := s.games.ResolveMismatch(c.Param("id"), *req.First, *req.Second)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, upd)
}

func (s *Server) handleReset(c *gin.Context) {
	upd, err := s.games.Reset(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, upd)
}

func (s *Server) handleEndGame(c *gin.Context) {
	if err := s.games.EndGame(c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseAfter(v string) (uint64, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.ParseUint(v, 10, 64)
}
