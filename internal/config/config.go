package config

import (
	"fmt"
	"os"
	"strings"

	"foodshare-backend/internal/application/lifecycle"

	"github.com/spf13/viper"
)

const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	StoreDriver         string
	DatabaseURL         string
	SQLitePath          string
	RedisURL            string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	CookieDomain        string
	HealthAdminKey      string
	Policy              lifecycle.Policy
	AMQPURL             string // empty disables the broker publisher
	AMQPExchange        string
	SendinblueAPIKey    string // SENDINBLUE_API_KEY for request notification emails (Brevo)
	MailFrom            string
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("STORE_DRIVER", StorePostgres)
	v.SetDefault("SQLITE_PATH", "foodshare.db")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("AMQP_EXCHANGE", "foodshare.events")
	v.SetDefault("REQUEST_QUANTITY_CAP", true)

	env := v.GetString("APP_ENV")

	dbURL := v.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = v.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = v.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	driver := strings.ToLower(v.GetString("STORE_DRIVER"))
	if driver != StorePostgres && driver != StoreSQLite {
		return nil, fmt.Errorf("config: STORE_DRIVER must be %s or %s, got %q", StorePostgres, StoreSQLite, driver)
	}
	if driver == StorePostgres && dbURL == "" {
		return nil, fmt.Errorf("config: a DATABASE_URL_* is required when STORE_DRIVER=%s", StorePostgres)
	}

	if env == "production" && v.GetString("SESSION_SECRET") == "" {
		return nil, fmt.Errorf("config: SESSION_SECRET is required in production")
	}

	policy := lifecycle.DefaultPolicy()
	if s := v.GetString("RESERVATION_POLICY"); s != "" {
		p, err := lifecycle.ParseReservationPolicy(s)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		policy.Reservation = p
	}
	policy.CapToRemaining = v.GetBool("REQUEST_QUANTITY_CAP")

	return &Config{
		Env:                 env,
		Port:                v.GetString("PORT"),
		SessionSecret:       v.GetString("SESSION_SECRET"),
		StoreDriver:         driver,
		DatabaseURL:         dbURL,
		SQLitePath:          v.GetString("SQLITE_PATH"),
		RedisURL:            v.GetString("REDIS_URL"),
		FrontendURLEndsWith: v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         v.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   v.GetBool("ALLOW_CROSS_SITE_DEV"),
		CookieDomain:        v.GetString("COOKIE_DOMAIN"),
		HealthAdminKey:      v.GetString("HEALTH_ADMIN_KEY"),
		Policy:              policy,
		AMQPURL:             v.GetString("AMQP_URL"),
		AMQPExchange:        v.GetString("AMQP_EXCHANGE"),
		SendinblueAPIKey:    v.GetString("SENDINBLUE_API_KEY"),
		MailFrom:            v.GetString("MAIL_FROM"),
	}, nil
}
