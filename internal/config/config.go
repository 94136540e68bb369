package config

import "github.com/Skotchmaster/coffee_shop/pkg/config"

type ServiceConfig struct {
	config.Config
}

// PaymentsEnabled reports whether online checkout is configured.
func (c ServiceConfig) PaymentsEnabled() bool {
	return c.PaymentKeyID != "" || c.PaymentKeySecret != ""
}

func Load() ServiceConfig {
	cfg := ServiceConfig{Config: config.Load()}

	if cfg.DBDriver != "sqlite" {
		config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	}
	config.MustMinBytes(cfg.JWTSecret, 32, "JWT_SECRET")
	if cfg.PaymentsEnabled() {
		config.MustNonEmpty(cfg.PaymentKeyID, "PAYMENT_KEY_ID")
		config.MustNonEmpty(cfg.PaymentKeySecret, "PAYMENT_KEY_SECRET")
	}

	return cfg
}
