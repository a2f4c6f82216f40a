package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fitlinehq/fitline-backend/api/controllers"
	"github.com/fitlinehq/fitline-backend/api/middleware"
	addresssvc "github.com/fitlinehq/fitline-backend/internal/address"
	cartsvc "github.com/fitlinehq/fitline-backend/internal/cart"
	measurementsvc "github.com/fitlinehq/fitline-backend/internal/measurements"
	notificationsvc "github.com/fitlinehq/fitline-backend/internal/notifications"
	ordersvc "github.com/fitlinehq/fitline-backend/internal/orders"
	productsvc "github.com/fitlinehq/fitline-backend/internal/products"
	returnsvc "github.com/fitlinehq/fitline-backend/internal/returns"
	"github.com/fitlinehq/fitline-backend/pkg/config"
	"github.com/fitlinehq/fitline-backend/pkg/db"
	"github.com/fitlinehq/fitline-backend/pkg/logger"
	"github.com/fitlinehq/fitline-backend/pkg/redis"
)

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Products      productsvc.Service
	Cart          cartsvc.Service
	Orders        ordersvc.Service
	Returns       returnsvc.Service
	Measurements  measurementsvc.Service
	Notifications notificationsvc.Service
	Addresses     addresssvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RateLimit(redisClient, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(svcs.Products, logg))
			r.Get("/{productId}", controllers.ProductDetail(svcs.Products, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(svcs.Cart, logg))
			r.Post("/items", controllers.CartAddItem(svcs.Cart, logg))
			r.Patch("/items/{itemId}/quantity", controllers.CartChangeQuantity(svcs.Cart, logg))
			r.Patch("/items/{itemId}/selected", controllers.CartSetSelected(svcs.Cart, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(svcs.Cart, logg))
		})

		r.Post("/checkout", controllers.Checkout(svcs.Orders, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(svcs.Orders, logg))
			r.Post("/{orderId}/receive", controllers.ReceiveOrder(svcs.Orders, logg))
			r.Get("/{orderId}/repeat", controllers.BuyAgainDraft(svcs.Orders, logg))
			r.Post("/{orderId}/repeat", controllers.RepeatOrder(svcs.Orders, logg))
		})

		r.Route("/returns", func(r chi.Router) {
			r.Get("/", controllers.ListReturns(svcs.Returns, logg))
			r.Post("/", controllers.CreateReturn(svcs.Returns, logg))
			r.Delete("/{requestId}", controllers.CancelReturn(svcs.Returns, logg))
		})

		r.Route("/measurements", func(r chi.Router) {
			r.Get("/", controllers.GetMeasurements(svcs.Measurements, logg))
			r.Put("/", controllers.SaveMeasurements(svcs.Measurements, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.ListAddresses(svcs.Addresses, logg))
			r.Post("/", controllers.CreateAddress(svcs.Addresses, logg))
			r.Put("/{addressId}", controllers.UpdateAddress(svcs.Addresses, logg))
			r.Delete("/{addressId}", controllers.DeleteAddress(svcs.Addresses, logg))
		})
	})

	// Fulfilment tooling. Reachable only from inside the network; the
	// gateway never routes public traffic here.
	r.Route("/internal/v1/orders", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Post("/{orderId}/advance", controllers.AdvanceOrder(svcs.Orders, logg))
	})

	return r
}
