package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openpantry/vouchers-backend/api/controllers"
	"github.com/openpantry/vouchers-backend/api/middleware"
	"github.com/openpantry/vouchers-backend/internal/accounts"
	"github.com/openpantry/vouchers-backend/internal/failures"
	"github.com/openpantry/vouchers-backend/internal/orders"
	"github.com/openpantry/vouchers-backend/pkg/config"
	"github.com/openpantry/vouchers-backend/pkg/db"
	"github.com/openpantry/vouchers-backend/pkg/logger"
	"github.com/openpantry/vouchers-backend/pkg/redis"
)

type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              db.Pinger
	Redis           *redis.Client
	OrdersService   *orders.Service
	AccountsService *accounts.Service
	FailureRecorder *failures.Recorder
}

func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, p.DB, p.Redis))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(p.Config.JWT, p.Logger))

		r.Post("/orders", controllers.SubmitOrder(p.OrdersService, p.Logger))

		r.Route("/participants/{participantID}", func(r chi.Router) {
			r.Get("/balances", controllers.GetBalances(p.AccountsService, p.Logger))
			r.With(middleware.RequireStaff(p.Logger)).Put("/household", controllers.UpdateHousehold(p.AccountsService, p.Logger))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(p.Config.JWT, p.Logger))
		r.Use(middleware.RequireStaff(p.Logger))

		r.Route("/failures", func(r chi.Router) {
			r.Get("/", controllers.ListFailures(p.FailureRecorder, p.Logger))
			r.Get("/analytics", controllers.FailureAnalytics(p.FailureRecorder, p.Logger))
		})
	})

	return r
}
