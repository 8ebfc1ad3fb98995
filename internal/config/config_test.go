package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_NAME", "maison")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_x")
	t.Setenv("PRICE_DIGITAL_CENTS", "1500")

	cfg := LoadConfig()

	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "sk_test_x", cfg.StripeSecretKey)

	// Overridden price plus untouched defaults.
	assert.Equal(t, int64(1500), cfg.Prices.DigitalCents)
	assert.Equal(t, int64(500), cfg.Prices.BookLicenseCents)
	assert.Equal(t, int64(3000), cfg.Prices.MonthlySubCents)
	assert.Equal(t, int64(5000), cfg.Prices.AnnualSubCents)
	assert.Equal(t, int64(20000), cfg.Prices.FreeShippingCents)
}

func TestEnvCents(t *testing.T) {
	t.Setenv("PRICE_TEST_CENTS", "")
	assert.Equal(t, int64(700), envCents("PRICE_TEST_CENTS", 700))

	t.Setenv("PRICE_TEST_CENTS", "1234")
	assert.Equal(t, int64(1234), envCents("PRICE_TEST_CENTS", 700))

	t.Setenv("PRICE_TEST_CENTS", "not-a-number")
	assert.Equal(t, int64(700), envCents("PRICE_TEST_CENTS", 700))

	t.Setenv("PRICE_TEST_CENTS", "-5")
	assert.Equal(t, int64(700), envCents("PRICE_TEST_CENTS", 700))
}
