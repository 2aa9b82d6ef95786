package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"

	"github.com/taskbridge-dev/taskbridge/pkg/usecase"
	"github.com/taskbridge-dev/taskbridge/pkg/utils/errutil"
	"github.com/taskbridge-dev/taskbridge/pkg/utils/logging"
	"github.com/taskbridge-dev/taskbridge/pkg/utils/safe"
)

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
}

func New(uc *usecase.UseCases) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	// Portal webhook endpoint - no session auth, the envelope carries
	// its own application token
	r.Route("/hooks/portal", func(r chi.Router) {
		r.Post("/event", NewPortalWebhookHandler(uc).ServeHTTP)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/sync", s.syncHandler)
		r.Get("/mappings/{domain}", s.mappingsHandler)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	safe.Write(r.Context(), w, []byte(`{"status":"ok"}`))
}

// syncHandler triggers a reconcile pass on demand and reports what it
// changed.
func (s *Server) syncHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	report, err := s.uc.Reconcile(ctx)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "reconcile failed"), http.StatusBadGateway)
		return
	}

	writeJSON(w, r, report)
}

// mappingsHandler lists one mapping domain for ops inspection.
func (s *Server) mappingsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	domain := chi.URLParam(r, "domain")

	entries, err := s.uc.ListMappings(ctx, domain)
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownMappingDomain) {
			errutil.HandleHTTP(ctx, w, err, http.StatusNotFound)
			return
		}
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to list mappings"), http.StatusInternalServerError)
		return
	}

	type entryResponse struct {
		Key       string    `json:"key"`
		Value     string    `json:"value"`
		Source    string    `json:"source"`
		UpdatedAt time.Time `json:"updated_at"`
	}
	type response struct {
		Domain  string          `json:"domain"`
		Entries []entryResponse `json:"entries"`
	}

	resp := response{
		Domain:  domain,
		Entries: make([]entryResponse, len(entries)),
	}
	for i, e := range entries {
		resp.Entries[i] = entryResponse{
			Key:       e.Key,
			Value:     e.Value,
			Source:    e.Source.String(),
			UpdatedAt: e.UpdatedAt,
		}
	}

	writeJSON(w, r, resp)
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	safe.Write(r.Context(), w, data)
}
