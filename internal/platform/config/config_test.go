package config

import (
	"errors"
	"testing"
	"time"
)

func loadWith(t *testing.T, env map[string]string) Config {
	t.Helper()
	cfg, err := Load(WithEnvFile(""), WithoutSystemEnv(), WithEnvMap(env))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := loadWith(t, map[string]string{
		"API_FIRESTORE_PROJECT_ID": "motorunner-dev",
	})

	if cfg.Server.Port != "8080" {
		t.Fatalf("port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Fatalf("read timeout = %s", cfg.Server.ReadTimeout)
	}
	if cfg.Checkout.Currency != "USD" {
		t.Fatalf("currency = %q, want USD", cfg.Checkout.Currency)
	}
	if cfg.Checkout.ShippingFee != 9900 {
		t.Fatalf("shipping fee = %d, want 9900", cfg.Checkout.ShippingFee)
	}
	if cfg.Checkout.OrderNumberPrefix != "MR" {
		t.Fatalf("order prefix = %q, want MR", cfg.Checkout.OrderNumberPrefix)
	}
	if cfg.Checkout.DeliveryLeadDays != 7 {
		t.Fatalf("delivery lead days = %d, want 7", cfg.Checkout.DeliveryLeadDays)
	}
	if cfg.Checkout.QuoteValidityDays != 30 {
		t.Fatalf("quote validity days = %d, want 30", cfg.Checkout.QuoteValidityDays)
	}
	if cfg.Auth.Audience != "motorunner-storefront" {
		t.Fatalf("audience = %q", cfg.Auth.Audience)
	}
	if cfg.Stripe.APIKey != "" {
		t.Fatalf("stripe key should default empty, got %q", cfg.Stripe.APIKey)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg := loadWith(t, map[string]string{
		"API_FIRESTORE_PROJECT_ID":         "motorunner-prod",
		"API_SERVER_PORT":                  "9090",
		"API_SERVER_READ_TIMEOUT":          "5s",
		"API_STRIPE_API_KEY":               "sk_test_123",
		"API_AUTH_JWT_SECRET":              "sekrit",
		"API_CHECKOUT_CURRENCY":            "eur",
		"API_CHECKOUT_SHIPPING_FEE":        "14900",
		"API_CHECKOUT_ORDER_PREFIX":        "EU",
		"API_CHECKOUT_DELIVERY_LEAD_DAYS":  "10",
		"API_CHECKOUT_QUOTE_VALIDITY_DAYS": "45",
	})

	if cfg.Server.Port != "9090" {
		t.Fatalf("port = %q", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Fatalf("read timeout = %s", cfg.Server.ReadTimeout)
	}
	if cfg.Firestore.ProjectID != "motorunner-prod" {
		t.Fatalf("project id = %q", cfg.Firestore.ProjectID)
	}
	if cfg.Stripe.APIKey != "sk_test_123" {
		t.Fatalf("stripe key = %q", cfg.Stripe.APIKey)
	}
	if cfg.Auth.JWTSecret != "sekrit" {
		t.Fatalf("jwt secret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.Checkout.Currency != "EUR" {
		t.Fatalf("currency = %q, want uppercased EUR", cfg.Checkout.Currency)
	}
	if cfg.Checkout.ShippingFee != 14900 {
		t.Fatalf("shipping fee = %d", cfg.Checkout.ShippingFee)
	}
	if cfg.Checkout.OrderNumberPrefix != "EU" {
		t.Fatalf("order prefix = %q", cfg.Checkout.OrderNumberPrefix)
	}
	if cfg.Checkout.DeliveryLeadDays != 10 || cfg.Checkout.QuoteValidityDays != 45 {
		t.Fatalf("lead days = %d, validity days = %d", cfg.Checkout.DeliveryLeadDays, cfg.Checkout.QuoteValidityDays)
	}
}

func TestLoadMissingProjectID(t *testing.T) {
	_, err := Load(WithEnvFile(""), WithoutSystemEnv(), WithEnvMap(map[string]string{}))
	if err == nil {
		t.Fatal("expected validation error")
	}

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("error = %T, want *ValidationError", err)
	}
	fields := validationErr.Fields()
	found := false
	for _, field := range fields {
		if field == "Firestore.ProjectID" {
			found = true
		}
	}
	if !found {
		t.Fatalf("fields = %v, want Firestore.ProjectID listed", fields)
	}
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	cfg := loadWith(t, map[string]string{
		"API_FIRESTORE_PROJECT_ID":        "motorunner-dev",
		"API_CHECKOUT_SHIPPING_FEE":       "not-a-number",
		"API_SERVER_READ_TIMEOUT":         "soon",
		"API_CHECKOUT_DELIVERY_LEAD_DAYS": "many",
	})

	if cfg.Checkout.ShippingFee != 9900 {
		t.Fatalf("shipping fee = %d, want default 9900", cfg.Checkout.ShippingFee)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Fatalf("read timeout = %s, want default 15s", cfg.Server.ReadTimeout)
	}
	if cfg.Checkout.DeliveryLeadDays != 7 {
		t.Fatalf("delivery lead days = %d, want default 7", cfg.Checkout.DeliveryLeadDays)
	}
}

func TestLoadNegativeShippingFeeRejected(t *testing.T) {
	_, err := Load(WithEnvFile(""), WithoutSystemEnv(), WithEnvMap(map[string]string{
		"API_FIRESTORE_PROJECT_ID":  "motorunner-dev",
		"API_CHECKOUT_SHIPPING_FEE": "-100",
	}))

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
}
