// Package config loads the gateway configuration from flags and
// environment, with .env support for local development.
package config

import (
	"flag"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	Planner  PlannerConfig
	Database DatabaseConfig
	Snapshot SnapshotConfig
	Debug    bool
}

type PlannerConfig struct {
	// Provider is "gemini" or "fake".
	Provider string
	Model    string
}

type DatabaseConfig struct {
	DSN string
}

type SnapshotConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8090", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port: *port,
		Env:  env,
		Planner: PlannerConfig{
			Provider: firstNonEmpty(strings.TrimSpace(os.Getenv("PLANNER_PROVIDER")), defaultProvider()),
			Model:    firstNonEmpty(strings.TrimSpace(os.Getenv("PLANNER_MODEL")), "gemini-2.0-flash"),
		},
		Database: DatabaseConfig{
			DSN: strings.TrimSpace(os.Getenv("DATABASE_DSN")),
		},
		Snapshot: loadSnapshotConfig(env),
		Debug:    envBool("DEBUG_MODE"),
	}, nil
}

// defaultProvider picks gemini when a key is present, offline fake
// otherwise.
func defaultProvider() string {
	if strings.TrimSpace(os.Getenv("GEMINI_API_KEY")) != "" {
		return "gemini"
	}
	return "fake"
}

func loadSnapshotConfig(env string) SnapshotConfig {
	endpoint := strings.TrimSpace(os.Getenv("SNAPSHOT_S3_ENDPOINT"))
	if endpoint == "" && strings.EqualFold(env, "local") {
		endpoint = strings.TrimSpace(os.Getenv("SNAPSHOT_MINIO_ENDPOINT"))
	}
	return SnapshotConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("SNAPSHOT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("SNAPSHOT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("SNAPSHOT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("SNAPSHOT_S3_BUCKET")), "loomui-plans"),
		UseSSL:    !strings.EqualFold(env, "local") && !envBool("SNAPSHOT_S3_DISABLE_SSL"),
	}
}

func envBool(name string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	return v == "1" || v == "true" || v == "yes"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
