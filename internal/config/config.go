package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Amounts are always handled in centavos inside
// the application; the gateway client converts on the wire.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret         string // secret used to sign admin panel tokens
	AdminTokenTTLMin  int    // admin access token time to live in minutes
	AdminPassword     string // plaintext admin password (dev fallback)
	AdminPasswordHash string // bcrypt hash of the admin password; preferred when set

	GatewayBaseURL      string // PIX gateway base URL
	GatewayClientKey    string // gateway client key
	GatewayClientSecret string // gateway client secret
	CallbackBaseURL     string // public base URL used to build the webhook callback

	TrackingURL  string // conversion tracking endpoint (empty disables tracking)
	ProductTitle string // product description sent to the gateway
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:  must("APP_ENV"),
		Port: must("APP_PORT"),

		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		JWTSecret:         must("JWT_SECRET"),
		AdminTokenTTLMin:  envInt("ADMIN_TOKEN_TTL_MIN", 60),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		GatewayBaseURL:      must("GATEWAY_BASE_URL"),
		GatewayClientKey:    must("GATEWAY_CLIENT_KEY"),
		GatewayClientSecret: must("GATEWAY_CLIENT_SECRET"),
		CallbackBaseURL:     must("CALLBACK_BASE_URL"),

		TrackingURL:  os.Getenv("TRACKING_URL"),
		ProductTitle: envStr("PRODUCT_TITLE", "AUDI RIFA"),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(key string, d int) int {
	v := os.Getenv(key)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}
