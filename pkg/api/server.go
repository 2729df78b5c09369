// Package api serves the person directory and tree sessions over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/DrSkyle/kinship/pkg/netcache"
	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/DrSkyle/kinship/pkg/session"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps are the collaborators the server is built on.
type Deps struct {
	Store      person.Repository
	Editor     *person.Editor
	Cache      *netcache.Cache
	NewSession func() *session.Session
	Logger     *slog.Logger
}

// Server owns the router and the open tree sessions.
type Server struct {
	deps    Deps
	logger  *slog.Logger
	metrics *metrics
	router  *gin.Engine

	mu       sync.Mutex
	sessions map[string]*session.Session
}

var registerOnce sync.Once

func registerValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("isodate", validateISODate)
		}
	})
}

// validateISODate accepts the date formats person.ParseDate understands.
func validateISODate(fl validator.FieldLevel) bool {
	_, err := person.ParseDate(fl.Field().String())
	return err == nil
}

func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	registerValidators()

	s := &Server{
		deps:     deps,
		logger:   deps.Logger.With("component", "api"),
		metrics:  newMetrics(deps.Cache.Stats),
		sessions: make(map[string]*session.Session),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), otelgin.Middleware("kinship"), requestLogger(s.logger, s.metrics), cors())

	r.GET("/metrics", gin.WrapH(s.metrics.handler()))

	api := r.Group("/api")
	api.GET("/test", s.handleTest)
	api.GET("/people", s.handleListPeople)
	api.GET("/people/:id", s.handleGetPerson)
	api.GET("/people/:id/network", s.handleNetwork)
	api.POST("/people", s.handleCreatePerson)
	api.PUT("/people/:id", s.handleUpdatePerson)
	api.DELETE("/people/:id", s.handleDeletePerson)
	api.GET("/search", s.handleSearch)

	sessions := api.Group("/sessions")
	sessions.POST("", s.handleCreateSession)
	sessions.GET("/:sid/tree", s.handleGetTree)
	sessions.DELETE("/:sid", s.handleDeleteSession)
	sessions.POST("/:sid/expand", s.mutation(expand))
	sessions.POST("/:sid/collapse", s.mutation(collapse))
	sessions.POST("/:sid/toggle", s.mutation(toggle))
	sessions.POST("/:sid/toggle-all", s.mutation(toggleAll))
	sessions.POST("/:sid/collapse-all", s.mutation(collapseAll))
	sessions.POST("/:sid/expand-all", s.mutation(expandAll))
	sessions.POST("/:sid/reroot", s.mutation(reRoot))
	return r
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests for up to ten seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("HTTP server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) session(id string) (*session.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Server) addSession(sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	s.metrics.sessions.Set(float64(len(s.sessions)))
}

func (s *Server) removeSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.metrics.sessions.Set(float64(len(s.sessions)))
	return ok
}
