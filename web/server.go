package web

import (
	"context"
	"net/http"
	"path/filepath"
	"time"
)

// StartWebServer initializes and starts the web server in a new goroutine and
// shuts it down gracefully when ctx is cancelled.
func StartWebServer(ctx context.Context, controller AppController) {
	addr := controller.GetConfig().Web.ListenAddr
	if addr == "" {
		addr = ":8080"
	}

	mux := http.NewServeMux()

	if staticDir := controller.GetConfig().Web.StaticDir; staticDir != "" {
		abs, err := filepath.Abs(staticDir)
		if err != nil {
			controller.Logger().LogFatal("Could not determine absolute path for static directory: %v", err)
		}
		fs := http.FileServer(http.Dir(abs))
		mux.Handle("/static/", http.StripPrefix("/static/", fs))
	}

	mux.HandleFunc("/", marketHandler(controller))
	mux.HandleFunc("/search", searchHandler(controller))
	mux.HandleFunc("/coin/", coinHandler(controller))
	mux.HandleFunc("/favorites/toggle", toggleFavoriteHandler(controller))

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		controller.Logger().LogInfo("Starting web dashboard on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			controller.Logger().LogFatal("Web server failed: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		controller.Logger().LogInfo("Shutting down web server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			controller.Logger().LogError("Web server graceful shutdown failed: %v", err)
		}
	}()
}
