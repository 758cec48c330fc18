package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"postboard/config"
	"postboard/dashboard"
	"postboard/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Environment, cfg.Debug)

	api := dashboard.NewClient(cfg.APIBaseURL)
	sessions := dashboard.NewSessionStore(cfg)
	srv := dashboard.NewServer(api, sessions)

	mux := http.NewServeMux()
	mux.HandleFunc("/login", srv.LoginHandler)
	mux.HandleFunc("/register", srv.RegisterHandler)
	mux.HandleFunc("/logout", srv.LogoutHandler)

	protected := http.NewServeMux()
	protected.HandleFunc("/posts", srv.PostsHandler)
	protected.HandleFunc("/posts/mine", srv.MyPostsHandler)
	protected.HandleFunc("/posts/new", srv.NewPostHandler)
	protected.HandleFunc("/posts/edit", srv.EditPostHandler)
	protected.HandleFunc("/posts/delete", srv.DeletePostHandler)
	protected.HandleFunc("/vote", srv.VoteHandler)
	protected.HandleFunc("/profile", srv.ProfileHandler)
	mux.Handle("/", srv.RequireSession(rootRedirect(protected)))

	addr := ":" + cfg.DashboardPort
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("postboard dashboard starting", "addr", addr, "api", cfg.APIBaseURL)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Dashboard failed: %v", err)
	}
}

// rootRedirect sends "/" to the feed and 404s unknown paths.
func rootRedirect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/posts", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
