package main

import (
	"log"
	"net/http"

	"github.com/ialame/maison-edition/internal/access"
	"github.com/ialame/maison-edition/internal/book"
	"github.com/ialame/maison-edition/internal/config"
	"github.com/ialame/maison-edition/internal/db"
	"github.com/ialame/maison-edition/internal/httpapi"
	"github.com/ialame/maison-edition/internal/logger"
	"github.com/ialame/maison-edition/internal/notification"
	"github.com/ialame/maison-edition/internal/order"
	"github.com/ialame/maison-edition/internal/payment"
	"github.com/ialame/maison-edition/internal/shipping"
	"github.com/ialame/maison-edition/internal/user"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	userRepo := user.NewRepository(database)
	userSvc := user.NewService(userRepo, cfg.JWTSecret)

	bookRepo := book.NewRepository(database)

	shippingCalc := shipping.NewCalculator(cfg.Prices.FreeShippingCents)
	notifier := notification.NewLogNotifier()

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(
		orderRepo,
		bookRepo,
		userRepo,
		order.NewCalculator(cfg.Prices),
		shippingCalc,
		notifier,
	)

	accessSvc := access.NewService(access.NewRepository(database))

	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.FrontendURL)

	handler := httpapi.NewHandler(userSvc, orderSvc, accessSvc, gateway, bookRepo, shippingCalc)
	router := httpapi.NewRouter(handler, cfg.JWTSecret)

	log.Printf("server running at http://localhost:%s/", cfg.AppPort)
	log.Fatal(http.ListenAndServe(":"+cfg.AppPort, router))
}
