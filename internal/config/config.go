package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// PriceTable holds the fixed prices (euro cents) for the non-physical order
// kinds, plus the free-shipping threshold. Loaded once at startup so the
// pricing calculator stays a pure function.
type PriceTable struct {
	DigitalCents      int64
	BookLicenseCents  int64
	MonthlySubCents   int64
	AnnualSubCents    int64
	FreeShippingCents int64
}

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	JWTSecret string

	StripeSecretKey     string
	StripeWebhookSecret string
	FrontendURL         string

	Prices PriceTable
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    os.Getenv("APP_PORT"),
		AppEnv:     os.Getenv("APP_ENV"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		FrontendURL:         os.Getenv("FRONTEND_URL"),

		Prices: PriceTable{
			DigitalCents:      envCents("PRICE_DIGITAL_CENTS", 1000),
			BookLicenseCents:  envCents("PRICE_BOOK_LICENSE_CENTS", 500),
			MonthlySubCents:   envCents("PRICE_MONTHLY_SUB_CENTS", 3000),
			AnnualSubCents:    envCents("PRICE_ANNUAL_SUB_CENTS", 5000),
			FreeShippingCents: envCents("FREE_SHIPPING_THRESHOLD_CENTS", 20000),
		},
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func envCents(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		log.Printf("invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}
