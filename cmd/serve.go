package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/revops-assistant/internal/assistant"
	"github.com/sells-group/revops-assistant/internal/cache"
	"github.com/sells-group/revops-assistant/internal/schema"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assistant over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initAssistant(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer env.Close()

		router := buildRouter(env.Assistant, env.Tables, cfg.Server.AllowedOrigins)
		return startServer(ctx, router, resolvePort(servePort, cfg.Server.Port))
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// resolvePort prefers the flag over the config value.
func resolvePort(flag, configured int) int {
	if flag != 0 {
		return flag
	}
	return configured
}

type askRequest struct {
	Question string `json:"question"`
	Debug    bool   `json:"debug"`
}

// buildRouter wires the HTTP surface. tables may be nil, which disables
// POST /tables/reload.
func buildRouter(a *assistant.Assistant, tables *cache.Tables, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/ask", func(w http.ResponseWriter, r *http.Request) {
		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Question) == "" {
			writeError(w, http.StatusBadRequest, "question is required")
			return
		}

		res, err := a.Ask(r.Context(), req.Question)
		if err != nil {
			writeTableError(w, err)
			return
		}
		status := http.StatusOK
		if res.Failed() {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, newAskResponse(res, req.Debug))
	})

	r.Get("/opportunities", func(w http.ResponseWriter, r *http.Request) {
		opps, err := a.Opportunities(r.Context())
		if err != nil {
			writeTableError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, opps)
	})

	r.Get("/tables/check", func(w http.ResponseWriter, r *http.Request) {
		rep, err := a.Check(r.Context())
		if err != nil {
			writeTableError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	})

	if tables != nil {
		r.Post("/tables/reload", func(w http.ResponseWriter, r *http.Request) {
			tables.Invalidate()
			if _, err := tables.Get(r.Context()); err != nil {
				writeTableError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{
				"status":    "reloaded",
				"loaded_at": tables.LoadedAt().UTC().Format(time.RFC3339),
			})
		})
	}

	return r
}

// writeTableError reports a load or schema failure. A malformed table is a
// server-side data problem, never a client one.
func writeTableError(w http.ResponseWriter, err error) {
	var cfgErr *schema.ConfigurationError
	if errors.As(err, &cfgErr) {
		zap.L().Error("serve: table configuration error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, cfgErr.Error())
		return
	}
	zap.L().Error("serve: request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "failed to load CRM tables")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// requestLogger logs one line per request through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

// startServer serves handler until ctx is cancelled, then shuts down
// gracefully.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.Int("port", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	return nil
}
