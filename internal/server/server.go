package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"

	"upload-server/internal/logging"
	"upload-server/internal/uploads"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version string
	Commit  string
}

// Uploader is the upload service the HTTP layer talks to.
type Uploader interface {
	UploadImage(ctx context.Context, in uploads.UploadImageInput) uploads.Result
	GetUpload(ctx context.Context, id string) (uploads.Upload, error)
}

// Pinger is a dependency whose reachability is reported by /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Addr         string   // e.g. "0.0.0.0:3333"; port 0 picks a free port
	CORSOrigins  []string // "*" allows any origin
	MaxFileBytes int64
	Build        BuildInfo

	// TrustProxyHeaders makes request logs take the client address from
	// X-Forwarded-For or X-Real-IP.
	TrustProxyHeaders bool

	Uploads Uploader
	Checks  map[string]Pinger // health components by name
	Logger  *logging.Logger
	Metrics *Metrics
}

type Server struct {
	httpServer        *http.Server
	uploads           Uploader
	checks            map[string]Pinger
	maxFileBytes      int64
	build             BuildInfo
	trustProxyHeaders bool
	log               *logging.Logger
	metrics           *Metrics
	ln                net.Listener
}

func New(cfg Config) *Server {
	s := &Server{
		uploads:           cfg.Uploads,
		checks:            cfg.Checks,
		maxFileBytes:      cfg.MaxFileBytes,
		build:             cfg.Build,
		trustProxyHeaders: cfg.TrustProxyHeaders,
		log:               cfg.Logger,
		metrics:           cfg.Metrics,
	}
	if s.maxFileBytes <= 0 {
		s.maxFileBytes = DefaultMaxFileBytes
	}
	if s.log == nil {
		s.log = logging.Nop()
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	s.metrics.SetBuildInfo(s.build)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /uploads", s.handleUpload)
	mux.HandleFunc("GET /uploads/{id}", s.handleGetUpload)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "X-Request-Id"},
		ExposedHeaders: []string{"Location", "X-Request-Id"},
	})

	// Wrap middleware: cors -> requestID -> logging -> security headers -> mux
	var handler http.Handler = mux
	handler = securityHeadersMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	handler = c.Handler(handler)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Listen binds the configured address and returns the bound address.
func (s *Server) Listen() (net.Addr, error) {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return nil, err
	}
	s.ln = ln
	return ln.Addr(), nil
}

// Serve handles connections on the listener opened by Listen. It returns
// nil after a graceful Shutdown.
func (s *Server) Serve() error {
	if s.ln == nil {
		return errors.New("server: Serve called before Listen")
	}
	if err := s.httpServer.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Start() error {
	if _, err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
