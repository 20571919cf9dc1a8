package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload"
)

// Config carries everything the binaries need. Loaded once at startup and
// passed into constructors explicitly; no package-level state.
type Config struct {
	Port int `env:"PORT" envDefault:"8080"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     int    `env:"DB_PORT" envDefault:"5432"`
	DBUsername string `env:"DB_USERNAME" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBDatabase string `env:"DB_DATABASE" envDefault:"postgres"`

	Neo4jURI      string `env:"NEO4J_URI" envDefault:"bolt://localhost:7687"`
	Neo4jUser     string `env:"NEO4J_USER" envDefault:"neo4j"`
	Neo4jPassword string `env:"NEO4J_PASSWORD" envDefault:"neo4j"`

	QueryTimeout      time.Duration `env:"QUERY_TIMEOUT" envDefault:"30s"`
	QueryDefaultLimit int           `env:"QUERY_DEFAULT_LIMIT" envDefault:"100"`
	QueryMaxLimit     int           `env:"QUERY_MAX_LIMIT" envDefault:"1000"`
	LoadBatchSize     int           `env:"LOAD_BATCH_SIZE" envDefault:"500"`
}

// Load reads the environment (a .env file is honored via godotenv autoload).
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// PostgresDSN builds the source database URL, encoding credentials safely.
func (c *Config) PostgresDSN() string {
	userInfo := url.UserPassword(c.DBUsername, c.DBPassword)
	return fmt.Sprintf(
		"postgres://%s@%s:%d/%s?sslmode=disable",
		userInfo.String(),
		c.DBHost,
		c.DBPort,
		url.PathEscape(c.DBDatabase),
	)
}
