package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/chaintwin/pkg/observability"
)

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/studies", func(r chi.Router) {
			r.Get("/", s.handleListStudies)
			r.Get("/{study}", s.handleGetStudy)
			r.Get("/{study}/render.{format}", s.handleRenderStudy)
		})
		r.Route("/views", func(r chi.Router) {
			r.Post("/", s.handleMountView)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetView)
				r.Delete("/", s.handleUnmountView)
				r.Post("/hover", s.handleHover)
				r.Delete("/hover", s.handleLeave)
				r.Post("/click", s.handleClick)
				r.Delete("/pin", s.handleUnpin)
				r.Post("/route", s.handleSelectRoute)
				r.Delete("/route", s.handleClearRoute)
				r.Post("/zoom", s.handleZoom)
				r.Get("/panel", s.handlePanel)
				r.Get("/render.{format}", s.handleRenderView)
				r.Get("/live", s.handleLive)
			})
		})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Code: "NOT_FOUND", Message: "no route for " + r.URL.Path})
	})
	return r
}

// logRequests logs every request at debug level and reports it to the HTTP
// hooks. Server errors are logged at error level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, status, dur)

		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", dur.Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()),
		}
		if status >= http.StatusInternalServerError {
			s.logger.Error("request", fields...)
			return
		}
		s.logger.Debug("request", fields...)
	})
}
