package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database  Database  `yaml:"database"`
	Loader    Loader    `yaml:"loader"`
	Generator Generator `yaml:"generator"`
}

type Database struct {
	DSN string `yaml:"dsn"`
}

type Loader struct {
	DataDir     string `yaml:"data_dir"`
	Concurrency int    `yaml:"concurrency"`
}

type Generator struct {
	OutputDir     string `yaml:"output_dir"`
	Shops         int    `yaml:"shops"`
	MinCash       int    `yaml:"min_cash"`
	MaxCash       int    `yaml:"max_cash"`
	MinReceipts   int    `yaml:"min_receipts"`
	MaxReceipts   int    `yaml:"max_receipts"`
	RetentionDays int    `yaml:"retention_days"`
}

// LoadConfig reads the YAML config at path. A .env file in the working
// directory (DB_HOST, DB_PORT, DB_NAME, DB_USER, DB_PASSWORD) takes
// precedence over the YAML DSN, matching the deployment layout the
// loader is run under.
func LoadConfig(path string) (*Config, error) {
	config := &Config{
		Loader: Loader{
			DataDir:     "data",
			Concurrency: 1,
		},
		Generator: Generator{
			OutputDir:     "data",
			MinCash:       1,
			MaxCash:       3,
			MinReceipts:   20,
			MaxReceipts:   50,
			RetentionDays: 1,
		},
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(file, config); err != nil {
		return nil, err
	}

	// Ignore a missing .env; credentials may come from the YAML or the
	// process environment.
	_ = godotenv.Load()

	if dsn := dsnFromEnv(); dsn != "" {
		config.Database.DSN = dsn
	}

	return config, nil
}

// DatabaseDSN returns the effective DSN, or an error when neither the
// YAML nor the environment provided one. Only DB-touching commands call
// this; the generator runs without a database.
func (c *Config) DatabaseDSN() (string, error) {
	if c.Database.DSN == "" {
		return "", fmt.Errorf("no database DSN: set database.dsn in the config or DB_NAME/DB_USER/DB_PASSWORD in the environment")
	}
	return c.Database.DSN, nil
}

func dsnFromEnv() string {
	name := os.Getenv("DB_NAME")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	if name == "" || user == "" || password == "" {
		return ""
	}

	host := envOr("DB_HOST", "localhost")
	port := envOr("DB_PORT", "5432")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		url.QueryEscape(user), url.QueryEscape(password), host, port, name)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
