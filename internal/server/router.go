package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"foodgram/internal/handlers"
	applog "foodgram/internal/log"
	"foodgram/internal/media"
)

func newRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		applog.Debug(context.Background(), "cors enabled", "origins", cfg.CORSAllowedOrigins)
	}

	applog.Debug(context.Background(), "registering http routes")
	r.Get("/healthz", handlers.Health)

	mediaDir := cfg.MediaDir
	if mediaDir == "" {
		mediaDir = "media"
	}
	r.Handle(media.PublicPrefix+"*", http.StripPrefix(media.PublicPrefix, http.FileServer(http.Dir(mediaDir))))
	applog.Debug(context.Background(), "route registered", "path", media.PublicPrefix, "static", true)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(httprate.LimitByIP(loginRateLimit(cfg), time.Minute)).Post("/login", handlers.Login)
			r.Post("/logout", handlers.Logout)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/", handlers.Signup)
			r.Get("/", handlers.ListUsers)
			r.Group(func(r chi.Router) {
				r.Use(handlers.RequireAuthentication)
				r.Get("/me", handlers.Me)
				r.Post("/set_password", handlers.SetPassword)
				r.Get("/subscriptions", handlers.Subscriptions)
				r.Post("/{id}/subscribe", handlers.Subscribe)
				r.Delete("/{id}/subscribe", handlers.Unsubscribe)
			})
			r.Get("/{id}", handlers.ShowUser)
		})

		r.Get("/tags", handlers.ListTags)
		r.Get("/tags/{id}", handlers.ShowTag)
		r.Get("/ingredients", handlers.ListIngredients)
		r.Get("/ingredients/{id}", handlers.ShowIngredient)

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", handlers.ListRecipes)
			r.Group(func(r chi.Router) {
				r.Use(handlers.RequireAuthentication)
				r.Post("/", handlers.CreateRecipe)
				r.Get("/shopping_cart", handlers.ShoppingCart)
				r.Get("/download_shopping_cart", handlers.DownloadShoppingCart)
				r.Patch("/{id}", handlers.UpdateRecipe)
				r.Delete("/{id}", handlers.DeleteRecipe)
				r.Post("/{id}/favorite", handlers.AddFavorite)
				r.Delete("/{id}/favorite", handlers.RemoveFavorite)
				r.Post("/{id}/shopping_cart", handlers.AddToShoppingCart)
				r.Delete("/{id}/shopping_cart", handlers.RemoveFromShoppingCart)
			})
			r.Get("/{id}", handlers.ShowRecipe)
		})
	})
	applog.Debug(context.Background(), "route registered", "path", "/api", "protected", "partial")

	r.Route("/admin", func(r chi.Router) {
		r.Use(handlers.RequireAdmin)
		r.Get("/", handlers.AdminIndex)
		r.Get("/recipes", handlers.AdminRecipes)
		r.Get("/ingredients", handlers.AdminIngredients)
		r.Get("/tags", handlers.AdminTags)
		r.Get("/users", handlers.AdminUsers)
		r.Get("/subscriptions", handlers.AdminSubscriptions)
		r.Get("/favorites", handlers.AdminFavorites)
	})
	applog.Debug(context.Background(), "route registered", "path", "/admin", "protected", true)

	return r
}

func loginRateLimit(cfg Config) int {
	if cfg.LoginRateLimit > 0 {
		return cfg.LoginRateLimit
	}
	return 10
}

// requestLogger logs one debug line per request through the application logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		applog.Debug(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
