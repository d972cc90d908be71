// Package api exposes the customer directory and the screenshot extraction
// pipeline over HTTP.
package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"deskdir/pkg/customers"
	"deskdir/pkg/liveness"
	"deskdir/pkg/ocr"
)

// DefaultMaxUploadBytes caps screenshot uploads.
const DefaultMaxUploadBytes = 5 << 20

// Extractor is the part of ocr.Extractor the handlers need.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader) (*ocr.Result, error)
}

// Options configures a Server.
type Options struct {
	Repo         customers.Repository
	Extractor    Extractor
	Tracker      *liveness.Tracker
	Logger       *zap.SugaredLogger
	MaxUpload    int64
	PingInterval time.Duration
	CORSOrigins  []string
}

// Server holds the handler dependencies.
type Server struct {
	repo         customers.Repository
	extractor    Extractor
	tracker      *liveness.Tracker
	log          *zap.SugaredLogger
	maxUpload    int64
	pingInterval time.Duration
	corsOrigins  []string
}

// New builds a Server. A nil Tracker gets the random stub prober.
func New(opts Options) *Server {
	s := &Server{
		repo:         opts.Repo,
		extractor:    opts.Extractor,
		tracker:      opts.Tracker,
		log:          opts.Logger,
		maxUpload:    opts.MaxUpload,
		pingInterval: opts.PingInterval,
		corsOrigins:  opts.CORSOrigins,
	}
	if s.tracker == nil {
		s.tracker = liveness.NewTracker(liveness.NewRandomProber())
	}
	if s.log == nil {
		s.log = zap.NewNop().Sugar()
	}
	if s.maxUpload <= 0 {
		s.maxUpload = DefaultMaxUploadBytes
	}
	return s
}

// Engine returns a gin engine with recovery, request logging and all routes.
func (s *Server) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))
	r.MaxMultipartMemory = s.maxUpload
	s.setupRoutes(r)
	return r
}

// Handler wraps Engine with CORS.
func (s *Server) Handler() http.Handler {
	origins := s.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.Engine())
}

func (s *Server) setupRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/customers", s.listCustomersHandler)
	api.POST("/customers", s.createCustomerHandler)
	api.PUT("/customers", s.updateCustomerHandler)
	api.PUT("/customers/:id", s.updateCustomerHandler)
	api.DELETE("/customers", s.deleteCustomerHandler)
	api.DELETE("/customers/:id", s.deleteCustomerHandler)
	api.POST("/customers/ping", s.pingAllHandler)
	api.POST("/customers/:id/ping", s.pingCustomerHandler)
	api.GET("/categories", s.categoriesHandler)
	api.GET("/stats", s.statsHandler)
	api.POST("/ocr/extract", s.extractHandler)
	api.POST("/ocr/preprocess", s.preprocessHandler)
}

// requestLogger logs one line per request.
func requestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		kv := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "error", c.Errors.String())
		}
		switch {
		case status >= 500:
			log.Errorw("request", kv...)
		case status >= 400:
			log.Warnw("request", kv...)
		default:
			log.Debugw("request", kv...)
		}
	}
}
