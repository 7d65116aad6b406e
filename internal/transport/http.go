package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vasiliy-maslov/order-pipeline/internal/cart"
	"github.com/vasiliy-maslov/order-pipeline/internal/client"
	"github.com/vasiliy-maslov/order-pipeline/internal/config"
	"github.com/vasiliy-maslov/order-pipeline/internal/handler"
	"github.com/vasiliy-maslov/order-pipeline/internal/order"
)

func NewRouter(pool *pgxpool.Pool, cfg config.ServicesConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	productClient := client.NewProductClient(cfg.ProductServiceURL, cfg.ClientTimeout)
	userClient := client.NewUserClient(cfg.UserServiceURL, cfg.ClientTimeout)

	orderRepo := order.NewRepository(pool)
	orderSvc := order.NewService(orderRepo, productClient, userClient)
	orderHandler := handler.NewOrderHandler(orderSvc)
	orderHandler.RegisterRoutes(r)

	cartRepo := cart.NewRepository(pool)
	cartSvc := cart.NewService(cartRepo, productClient)
	cartHandler := handler.NewCartHandler(cartSvc)
	cartHandler.RegisterRoutes(r)

	return r
}
