package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tillworks/tillpoint-backend/api/controllers"
	"github.com/tillworks/tillpoint-backend/api/middleware"
	"github.com/tillworks/tillpoint-backend/internal/catalog"
	"github.com/tillworks/tillpoint-backend/internal/orderedit"
	"github.com/tillworks/tillpoint-backend/internal/pos"
	"github.com/tillworks/tillpoint-backend/internal/submission"
	"github.com/tillworks/tillpoint-backend/pkg/config"
	"github.com/tillworks/tillpoint-backend/pkg/logger"
	"github.com/tillworks/tillpoint-backend/pkg/redis"
)

type pinger interface {
	Ping(context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP pinger,
	redisClient *redis.Client,
	store *pos.Store,
	catalogService catalog.Service,
	submissionService submission.Service,
	editService orderedit.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(dbP, redisClient, logg))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", controllers.ListProducts(catalogService, logg))
			r.Get("/customers", controllers.SearchCustomers(catalogService, logg))
			r.Get("/other-charges", controllers.ListOtherChargeTypes(catalogService, logg))
			r.Get("/payment-methods", controllers.ListPaymentMethods(catalogService, logg))
			r.Get("/car-gates", controllers.ListCarGates(catalogService, logg))
		})

		r.Route("/contexts/{saleContext}", func(r chi.Router) {
			r.Route("/tabs", func(r chi.Router) {
				r.Get("/", controllers.ListTabs(store, logg))
				r.Post("/", controllers.CreateTab(store, logg))
				r.Get("/active", controllers.GetActiveTab(store, logg))
				r.Get("/active/totals", controllers.GetTotals(store, logg))
				r.Post("/active/clear", controllers.ClearTab(store, logg))
				r.Post("/{tabID}/activate", controllers.SwitchTab(store, logg))
				r.Delete("/{tabID}", controllers.DeleteTab(store, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Post("/items", controllers.AddToCart(store, catalogService, logg))
				r.Post("/items/qty", controllers.UpdateCartQty(store, logg))
				r.Put("/items/qty", controllers.SetCartQty(store, logg))
				r.Put("/items/price", controllers.SetCartPrice(store, logg))
				r.Post("/items/remove", controllers.RemoveCartLine(store, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Put("/customer", controllers.SetCustomer(store, logg))
				r.Put("/car-gate", controllers.SetCarGate(store, logg))
				r.Put("/remark", controllers.SetRemark(store, logg))
				r.Put("/discount", controllers.SetGlobalDiscount(store, logg))
				r.Post("/other-charges", controllers.AddOtherCharge(store, logg))
				r.Put("/other-charges/{chargeID}", controllers.UpdateOtherCharge(store, logg))
				r.Delete("/other-charges/{chargeID}", controllers.RemoveOtherCharge(store, logg))
				r.Post("/payments", controllers.AddPayment(store, logg))
				r.Put("/payments/{methodID}", controllers.UpdatePayment(store, logg))
				r.Delete("/payments/{methodID}", controllers.RemovePayment(store, logg))
			})

			r.With(middleware.SubmissionRateLimit(
				redisClient,
				int64(cfg.Submission.RateLimitMax),
				cfg.Submission.RateLimitWindow,
				logg,
			)).Post("/submit", controllers.SubmitOrder(submissionService, logg))
		})

		r.Route("/orders/{orderID}", func(r chi.Router) {
			r.Post("/confirm", controllers.ConfirmOrder(submissionService, logg))
			r.Post("/cancel", controllers.CancelOrder(submissionService, logg))
		})

		r.Route("/order-edits", func(r chi.Router) {
			r.Post("/", controllers.BeginOrderEdit(editService, logg))
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", controllers.GetOrderEdit(editService, logg))
				r.Put("/lines/qty", controllers.SetEditLineQty(editService, logg))
				r.Put("/lines/discount", controllers.SetEditLineDiscount(editService, logg))
				r.Put("/discount", controllers.SetEditGlobalDiscount(editService, logg))
				r.Post("/payments", controllers.AddEditPaymentRow(editService, logg))
				r.Put("/payments/{paymentID}", controllers.UpdateEditPaymentRow(editService, logg))
				r.Delete("/payments/{paymentID}", controllers.RemoveEditPaymentRow(editService, logg))
				r.Post("/commit", controllers.CommitOrderEdit(editService, logg))
				r.Post("/discard", controllers.DiscardOrderEdit(editService, logg))
			})
		})
	})

	return r
}
