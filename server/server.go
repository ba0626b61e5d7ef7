package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xhad/langdetect/pkg/extract"
	"github.com/xhad/langdetect/pkg/session"
	"github.com/xhad/langdetect/pkg/view"
)

//go:embed templates/index.html
var templateFS embed.FS

const shutdownTimeout = 5 * time.Second

type Config struct {
	Addr           string
	FilesPath      string
	AllowedOrigins []string
	Title          string
	LiveUpdates    bool
	ShowErrors     bool
}

// Server is the browser front end of a single session.
type Server struct {
	config    Config
	session   *session.Session
	extractor *extract.Extractor
	hub       *Hub
	page      *template.Template
	engine    *gin.Engine
	log       *zap.Logger
}

func New(config Config, sess *session.Session, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if config.FilesPath == "" {
		config.FilesPath = "/files"
	}
	config.FilesPath = "/" + strings.Trim(config.FilesPath, "/")
	if config.Title == "" {
		config.Title = "Language Detection"
	}

	base, err := view.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to load view templates: %w", err)
	}
	page, err := base.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	s := &Server{
		config:    config,
		session:   sess,
		extractor: extract.New(),
		hub:       NewHub(config.AllowedOrigins, log),
		page:      page,
		log:       log,
	}
	s.engine = s.routes()

	if config.LiveUpdates {
		sess.Subscribe(s.push)
	}
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(recovery(s.log), requestLogger(s.log))

	r.GET("/", s.handleIndex)
	r.POST("/method", s.handleMethod)
	r.POST("/files", s.handleFiles)
	r.POST("/submit", s.handleSubmit)
	r.GET(s.config.FilesPath+"/:id", s.handleFile)
	r.GET("/export", s.handleExport)
	if s.config.LiveUpdates {
		r.GET("/ws", func(c *gin.Context) {
			s.hub.handleWebSocket(c.Writer, c.Request)
		})
	}

	api := r.Group("/api")
	if mw := corsMiddleware(s.config.AllowedOrigins); mw != nil {
		api.Use(mw)
	}
	api.GET("/state", s.handleState)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"service": "langdetect",
		})
	})
	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Hub returns the live update hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting UI server", zap.String("addr", s.config.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Shutting down UI server")
	s.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// push forwards session events to connected browsers.
func (s *Server) push(ev session.Event) {
	switch ev.Type {
	case session.EventSubmitted:
		s.hub.Broadcast(Message{Type: MessageStatus, Content: "Analyzing…"})
	case session.EventResults, session.EventFiles:
		var buf bytes.Buffer
		if err := view.RenderHTML(&buf, ev.State.Results, s.session.Files()); err != nil {
			s.log.Error("Failed to render results", zap.Error(err))
			return
		}
		s.hub.Broadcast(Message{
			Type:    MessageResults,
			Content: buf.String(),
			Data:    !ev.State.Results.Empty(),
		})
	case session.EventFailed:
		if s.config.ShowErrors && ev.Err != nil {
			s.hub.Broadcast(Message{Type: MessageError, Content: ev.Err.Error()})
		} else {
			s.hub.Broadcast(Message{Type: MessageStatus, Content: ""})
		}
	}
}
