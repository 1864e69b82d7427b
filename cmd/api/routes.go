package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/josh-kwaku/heritage-ledger/internal/handler"
	"github.com/josh-kwaku/heritage-ledger/internal/middleware"
	"github.com/josh-kwaku/heritage-ledger/internal/redisstore"
	"github.com/josh-kwaku/heritage-ledger/internal/repository"
)

type routes struct {
	jwtSecret      string
	idempotency    *repository.IdempotencyRepository
	locks          *redisstore.Locker
	idempotencyTTL time.Duration

	auth      *handler.AuthHandler
	users     *handler.UserHandler
	accounts  *handler.AccountHandler
	pins      *handler.PinHandler
	transfers *handler.TransferHandler
	admin     *handler.AdminHandler
	health    *handler.HealthHandler
}

func newRouter(rt routes) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Tracing, middleware.Logging, middleware.Recovery)

	r.Get("/health", rt.health.Liveness)
	r.Get("/health/ready", rt.health.Readiness)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", rt.auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(rt.jwtSecret))

			r.Get("/me", rt.users.Me)
			r.Get("/accounts", rt.accounts.List)
			r.Get("/accounts/{id}/transactions", rt.accounts.Transactions)
			r.Get("/transfers", rt.transfers.List)
			r.Get("/transfers/{id}", rt.transfers.Get)
			r.Post("/transfers/quote", rt.transfers.Quote)
			r.Post("/transfers/authorization-code", rt.transfers.IssueAuthCode)
			r.Post("/accounts/ensure", rt.accounts.Ensure)
			r.Post("/pin", rt.pins.Setup)

			r.With(middleware.Idempotency(rt.idempotency, rt.locks, rt.idempotencyTTL)).
				Post("/transfers", rt.transfers.Submit)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Get("/transfers/pending", rt.admin.PendingTransfers)
				r.Get("/logs", rt.admin.AuditLogs)
				r.Put("/users/{id}/fees", rt.admin.SetFees)
				r.Put("/users/{id}/flags", rt.admin.SetFlags)
				r.Put("/users/{id}/status", rt.admin.SetStatus)
				r.Patch("/transactions/{id}", rt.admin.CorrectEntry)

				r.Group(func(r chi.Router) {
					r.Use(middleware.Idempotency(rt.idempotency, rt.locks, rt.idempotencyTTL))
					r.Post("/transfers/{id}/approve", rt.admin.Approve)
					r.Post("/transfers/{id}/reject", rt.admin.Reject)
					r.Post("/accounts/adjust", rt.admin.AdjustBalance)
				})
			})
		})
	})

	return r
}
