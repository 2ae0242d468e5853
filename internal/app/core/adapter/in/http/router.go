package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter 建立 HTTP 路由
//
//	GET  /health
//	POST /v1/accounts          開戶
//	POST /v1/sessions          登入，取得 token
//	GET  /v1/account/balance   (需 token)
//	POST /v1/account/deposit   (需 token)
//	POST /v1/account/withdraw  (需 token)
//	GET  /v1/account/history   (需 token)
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("healthy"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/accounts", h.Register)
		r.Post("/sessions", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticated)
			r.Route("/account", func(r chi.Router) {
				r.Get("/balance", h.Balance)
				r.Post("/deposit", h.Deposit)
				r.Post("/withdraw", h.Withdraw)
				r.Get("/history", h.History)
			})
		})
	})
	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
