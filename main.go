package main

import (
	"context"
	"errors"
	"flag"
	"flyer-server/core"
	"flyer-server/handlers/api/documents"
	"flyer-server/handlers/api/exports"
	"flyer-server/handlers/api/translations"
	"flyer-server/handlers/websocket"
	"flyer-server/labels"
	authMiddleware "flyer-server/middleware"
	"flyer-server/prompt"
	"flyer-server/sessions"
	"flyer-server/stores"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

const shutdownTimeout = 10 * time.Second

type app struct {
	exports  core.ExportStore
	registry *sessions.Registry
	prompts  *prompt.Generator
	labels   *labels.Labels
	auth     func(http.Handler) http.Handler
	origins  []string
}

func allowLocalOrigin(r *http.Request, origin string) bool {
	if origin == "" {
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	switch parsed.Scheme {
	case "http", "https":
		switch parsed.Hostname() {
		case "localhost", "127.0.0.1", "::1":
			return true
		}
	case "tauri":
		return parsed.Hostname() == "localhost"
	}

	return false
}

func setupRouter(a app) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   append([]string{"tauri://localhost"}, a.origins...),
		AllowOriginFunc:  allowLocalOrigin,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/sessions", func(r chi.Router) {
		documents.Routes(r, a.registry, a.prompts, exports.SessionRoutes(a.exports, a.registry, a.auth))
	})
	r.Route("/api/exports", func(r chi.Router) {
		exports.Routes(r, a.exports, a.auth)
	})
	r.Route("/api/labels", func(r chi.Router) {
		translations.Routes(r, a.labels)
	})

	return r
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// serve runs srv until SIGINT or SIGTERM and then shuts it down, giving
// in-flight requests shutdownTimeout to finish.
func serve(srv *http.Server, cleanup func()) error {
	errC := make(chan error, 1)
	go func() {
		logrus.WithField("addr", srv.Addr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
			return
		}
		errC <- nil
	}()

	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-errC:
		return err
	case sig := <-signalC:
		logrus.WithField("signal", sig.String()).Info("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server shutdown failed")
	}
	if cleanup != nil {
		cleanup()
	}
	return <-errC
}

func closeAll(ioo *socketio.Server, closers ...any) func() {
	return func() {
		ioo.Close(nil)
		for _, c := range closers {
			if closer, ok := c.(io.Closer); ok {
				if err := closer.Close(); err != nil {
					logrus.WithError(err).Warn("Failed to release resource")
				}
			}
		}
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listenAddress := flag.String("listen", ":3002", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	exportStore := stores.GetStore()
	rooms := stores.GetRoomRegistry(exportStore)

	l, err := labels.New()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load labels")
	}

	a := app{
		exports:  exportStore,
		registry: sessions.NewRegistry(rooms),
		prompts:  prompt.Default(),
		labels:   l,
		origins:  splitOrigins(os.Getenv("ALLOWED_ORIGINS")),
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		a.auth = authMiddleware.AuthJWT([]byte(secret))
		logrus.Info("Export routes require a bearer token")
	}

	r := setupRouter(a)
	ioo := websocket.SetupSocketIO(a.registry, a.origins...)
	r.Mount("/socket.io/", ioo.ServeHandler(nil))

	srv := &http.Server{
		Addr:              *listenAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := serve(srv, closeAll(ioo, exportStore, rooms)); err != nil {
		logrus.WithField("event", "start server").Fatal(err)
	}
	logrus.Info("Shutdown complete")
}
