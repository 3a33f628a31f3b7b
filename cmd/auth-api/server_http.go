package main

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	config "github.com/NordCoder/Tokenus/internal/config/auth-api"
	"github.com/NordCoder/Tokenus/internal/obs"
	"github.com/NordCoder/Tokenus/internal/platform"
	pg "github.com/NordCoder/Tokenus/internal/repository/postgres"
	"github.com/NordCoder/Tokenus/internal/services/auth"
)

var startedAt = time.Now()

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, db *pg.DB, ctrl *auth.Controller) *http.Server {
	mux := http.NewServeMux()
	ctrl.RegisterRoutes(mux)

	mux.HandleFunc("GET /api/health", handleHealth(cfg))
	mux.HandleFunc("GET /api/status", handleStatus(cfg, db))
	mux.Handle("GET /metrics", obs.MetricsHandler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		hctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		if err := db.Pool.Ping(hctx); err != nil {
			http.Error(w, "unhealthy: db", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/", handleNotFound)

	// platform classification sits outermost so every later stage, the
	// request logger included, sees the tag in the context.
	var handler http.Handler = otelhttp.NewHandler(mux, "auth-api")
	handler = requestLogger(logger)(handler)
	if cfg.RateLimit.Enable {
		handler = rateLimit(cfg.RateLimit, logger)(handler)
	}
	handler = securityHeaders(handler)
	handler = cors(cfg.CORS.Origins, logger)(handler)
	handler = platform.Middleware(handler)

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

func handleHealth(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "OK",
			"message":     "service is healthy",
			"platform":    platform.FromContext(r.Context()),
			"version":     cfg.App.Version,
			"environment": cfg.App.Env,
			"uptime":      time.Since(startedAt).Round(time.Second).String(),
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func handleStatus(cfg *config.Config, db *pg.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		dbStatus := "connected"
		code := http.StatusOK
		if err := db.Pool.Ping(hctx); err != nil {
			dbStatus = "disconnected"
			code = http.StatusInternalServerError
		}

		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)

		writeJSON(w, code, map[string]any{
			"database":    dbStatus,
			"environment": cfg.App.Env,
			"platform":    platform.FromContext(r.Context()),
			"uptime":      time.Since(startedAt).Round(time.Second).String(),
			"memory": map[string]string{
				"heap_used":  byteCount(ms.HeapAlloc),
				"heap_total": byteCount(ms.HeapSys),
			},
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"message": "endpoint not found",
		"code":    "ENDPOINT_NOT_FOUND",
		"path":    r.URL.Path,
		"method":  r.Method,
		"availableEndpoints": []string{
			"GET /api/health",
			"GET /api/status",
			"POST /api/auth/register",
			"POST /api/auth/login",
			"GET /api/auth/me",
			"GET /api/auth/refresh",
			"POST /api/auth/logout",
		},
	})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func byteCount(b uint64) string {
	const mb = 1 << 20
	return strconv.FormatUint(b/mb, 10) + " MB"
}
