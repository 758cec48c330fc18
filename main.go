package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"postboard/auth"
	"postboard/config"
	"postboard/database"
	"postboard/handlers"
	"postboard/logger"
	"postboard/middleware"
	"postboard/services"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Environment, cfg.Debug)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	users := services.NewUserService(db)
	posts := services.NewPostService(db)
	votes := services.NewVoteService(db)
	tokens := auth.NewService(cfg.TokenSecret, cfg.TokenTTLMinutes)

	h := handlers.New(users, posts, votes, tokens)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Public routes
	r.Post("/login", h.Login)
	r.Post("/users", h.CreateUser)
	r.Get("/users", h.ListUsers)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(tokens, users))

		r.Get("/users/profile/me", h.GetMyProfile)
		r.Get("/users/{id}", h.GetUser)
		r.Patch("/users/{id}", h.UpdateUser)
		r.Put("/users/{id}", h.UpdateUser)
		r.Delete("/users/{id}", h.DeleteUser)

		r.Get("/posts", h.ListPosts)
		r.Get("/posts/me", h.ListMyPosts)
		r.Get("/posts/{id}", h.GetPost)
		r.Post("/posts", h.CreatePost)
		r.Patch("/posts/{id}", h.UpdatePost)
		r.Put("/posts/{id}", h.UpdatePost)
		r.Delete("/posts/{id}", h.DeletePost)

		r.Post("/vote", h.Vote)
	})

	addr := ":" + cfg.ServerPort
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("postboard API starting", "addr", addr, "environment", cfg.Environment)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
