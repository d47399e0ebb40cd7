package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=bardev port=5432 sslmode=disable"

type Config struct {
	HTTPPort    string
	DBDriver    string // postgres | sqlite
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	BillarPricePerHour int64 // one billiard block = one hour

	WSPort       string // realtime feed listener
	RabbitMQURL  string // empty disables settlement events
	AdvisorURL   string // empty means fallback advice only
	SeedDefaults bool
}

func Load() *Config {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] no se pudo leer .env: %v", err)
	}

	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		DBDriver:           strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DatabaseDSN:        getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		CORSOrigins:        getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		BillarPricePerHour: getEnvInt("BILLAR_PRICE_PER_HOUR", 150),
		WSPort:             getEnv("WS_PORT", "8081"),
		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		AdvisorURL:         getEnv("ADVISOR_URL", ""),
		SeedDefaults:       getEnvBool("SEED_DEFAULTS", true),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET no está definido. Es obligatorio.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET debe tener al menos 32 caracteres.")
	}
	if cfg.DBDriver == "postgres" && cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN usa el valor por defecto, define tu propia conexión a Postgres en producción.")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS usa el valor por defecto, define tu dominio en producción.")
	}
	if cfg.RabbitMQURL == "" {
		log.Println("[WARN] RABBITMQ_URL vacío, los eventos de liquidación no se publicarán.")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("[WARN] %s inválido (%q), usando %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[WARN] %s inválido (%q), usando %t", key, v, def)
		return def
	}
	return b
}
