package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts /metrics, an index page at / and the extra routes.
func NewRouter(routes map[string]http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Handle("/metrics", Handler())

	paths := make([]string, 0, len(routes))
	for path, h := range routes {
		r.Handle(path, h)
		paths = append(paths, path)
	}
	sort.Strings(paths)
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>Resume Screener</h1><ul><li><a href="/metrics">/metrics</a></li>`)
		for _, p := range paths {
			fmt.Fprintf(w, `<li><a href="%s">%s</a></li>`, p, p)
		}
		fmt.Fprint(w, `</ul></body></html>`)
	})
	return r
}

// StartServer serves NewRouter(routes) on port in the background. It returns
// the server's shutdown function.
func StartServer(port int, routes map[string]http.Handler) (shutdown func(context.Context) error) {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      NewRouter(routes),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("metrics server listening", "addr", server.Addr, "routes", len(routes))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()

	return server.Shutdown
}
