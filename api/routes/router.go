package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kmarsack/storeyard-backend/api/controllers"
	"github.com/kmarsack/storeyard-backend/api/middleware"
	"github.com/kmarsack/storeyard-backend/internal/payments"
	"github.com/kmarsack/storeyard-backend/internal/rentals"
	"github.com/kmarsack/storeyard-backend/internal/stock"
	"github.com/kmarsack/storeyard-backend/pkg/config"
	"github.com/kmarsack/storeyard-backend/pkg/db"
	"github.com/kmarsack/storeyard-backend/pkg/logger"
	"github.com/kmarsack/storeyard-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	pubsubP controllers.Pinger,
	stockService stock.Service,
	paymentsService payments.Service,
	rentalsService rentals.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	readyDeps := map[string]controllers.Pinger{
		"database": dbP,
		"pubsub":   pubsubP,
	}
	if redisClient != nil {
		readyDeps["redis"] = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readyDeps))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/inventory", func(r chi.Router) {
			r.Route("/product-stock", func(r chi.Router) {
				r.Post("/", controllers.CreateProductStock(stockService, logg))
				r.Get("/", controllers.ListProductStock(stockService, logg))
			})
			r.Route("/stock-order", func(r chi.Router) {
				r.Post("/", controllers.CreateStockOrder(stockService, logg))
				r.Get("/", controllers.ListStockOrders(stockService, logg))
				r.Patch("/received/{id}", controllers.ReceiveStockOrder(stockService, logg))
			})
		})

		r.Route("/pos", func(r chi.Router) {
			r.Route("/payments", func(r chi.Router) {
				r.Post("/", controllers.CreatePayment(paymentsService, logg))
				r.Get("/", controllers.ListPayments(paymentsService, logg))
			})
			r.Route("/item-transactions", func(r chi.Router) {
				r.Post("/", controllers.CreateItemTransaction(paymentsService, logg))
				r.Get("/", controllers.ListItemTransactions(paymentsService, logg))
			})
			r.Route("/service-transactions", func(r chi.Router) {
				r.Post("/", controllers.CreateServiceTransaction(paymentsService, logg))
				r.Get("/", controllers.ListServiceTransactions(paymentsService, logg))
			})
		})

		r.Route("/fleet", func(r chi.Router) {
			r.Route("/equipment", func(r chi.Router) {
				r.Post("/", controllers.CreateEquipment(rentalsService, logg))
				r.Get("/", controllers.ListEquipment(rentalsService, logg))
				r.Get("/{id}", controllers.GetEquipment(rentalsService, logg))
				r.Patch("/{id}", controllers.UpdateEquipment(rentalsService, logg))
				r.Delete("/{id}", controllers.DeleteEquipment(rentalsService, logg))
			})
			r.Route("/rental", func(r chi.Router) {
				r.Post("/", controllers.BookRental(rentalsService, logg))
				r.Get("/", controllers.ListRentals(rentalsService, logg))
				r.Get("/{id}", controllers.GetRental(rentalsService, logg))
				r.Patch("/{id}", controllers.UpdateRental(rentalsService, logg))
				r.Delete("/{id}", controllers.DeleteRental(rentalsService, logg))
			})
		})
	})

	return r
}
