package utils

import (
	"bufio"
	"fmt"
	"os"
	"slices"
	"strings"
)

const (
	ENV                  = "ENV"
	PORT                 = "PORT"
	MONGODB_URI          = "MONGODB_URI"
	MONGODB_TRANSACTIONS = "MONGODB_TRANSACTIONS"
	MYSQL_URI            = "MYSQL_URI"
	REDIS_URI            = "REDIS_URI"
	IDENTITY_API_URL     = "IDENTITY_API_URL"
	PIPELINES_FILE       = "PIPELINES_FILE"
	STORAGE_DRIVER       = "STORAGE_DRIVER"
	CORS_ORIGINS         = "CORS_ORIGINS"

	ENV_DEVELOPMENT = "development"
	ENV_HOMOLOG     = "homolog"
	ENV_RELEASE     = "production"

	STORAGE_MONGODB = "mongodb"
	STORAGE_MEMORY  = "memory"
)

var allowedKeys = []string{
	ENV, PORT, MONGODB_URI, MONGODB_TRANSACTIONS, MYSQL_URI, REDIS_URI,
	IDENTITY_API_URL, PIPELINES_FILE, STORAGE_DRIVER, CORS_ORIGINS,
}

var developmentOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

var releaseOrigins = []string{
	"https://app.worklogz.com",
	"https://worklogz.com",
	"https://www.worklogz.com",
}

var requiredKeys = []string{ENV, PORT}

var allowedEnvValues = []string{ENV_DEVELOPMENT, ENV_HOMOLOG, ENV_RELEASE}

// LoadEnvFile reads KEY=value lines from path into the process
// environment. Only allow-listed keys are accepted and variables already
// set in the environment take precedence over the file.
func LoadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open .env file: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return fmt.Errorf("cannot stat .env file: %w", err)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf(".env file is empty")
	}

	scanner := bufio.NewScanner(file)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format on line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := unquote(strings.TrimSpace(parts[1]))

		if !slices.Contains(allowedKeys, key) {
			return fmt.Errorf("key %q is not allowed. Allowed keys: %s",
				key, strings.Join(allowedKeys, ", "))
		}

		if _, exists := os.LookupEnv(key); exists {
			continue
		}

		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("cannot set environment variable %s: %w", key, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("cannot read .env file: %w", err)
	}

	return validateEnvironment()
}

func validateEnvironment() error {
	var missingKeys []string
	for _, key := range requiredKeys {
		if os.Getenv(key) == "" {
			missingKeys = append(missingKeys, key)
		}
	}

	if len(missingKeys) > 0 {
		return fmt.Errorf("missing required environment variables: %s",
			strings.Join(missingKeys, ", "))
	}

	if env := os.Getenv(ENV); !slices.Contains(allowedEnvValues, env) {
		return fmt.Errorf("invalid ENV value %q. Allowed values: %s",
			env, strings.Join(allowedEnvValues, ", "))
	}

	return nil
}

func unquote(value string) string {
	if len(value) > 1 &&
		((strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"")) ||
			(strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'"))) {
		return value[1 : len(value)-1]
	}
	return value
}

type Config struct {
	Env               string
	Port              string
	MongoURI          string
	MongoTransactions bool
	MySQLURI          string
	RedisURI          string
	IdentityURL       string
	PipelinesFile     string
	StorageDriver     string
	// AllowedOrigins are the browser origins accepted by CORS and the
	// websocket upgrade.
	AllowedOrigins []string
}

// ReadConfig builds the typed configuration from the process environment.
func ReadConfig() (Config, error) {
	if err := validateEnvironment(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Env:               os.Getenv(ENV),
		Port:              os.Getenv(PORT),
		MongoURI:          os.Getenv(MONGODB_URI),
		MongoTransactions: os.Getenv(MONGODB_TRANSACTIONS) != "false",
		MySQLURI:          os.Getenv(MYSQL_URI),
		RedisURI:          os.Getenv(REDIS_URI),
		IdentityURL:       os.Getenv(IDENTITY_API_URL),
		PipelinesFile:     os.Getenv(PIPELINES_FILE),
		StorageDriver:     os.Getenv(STORAGE_DRIVER),
	}

	if cfg.StorageDriver == "" {
		cfg.StorageDriver = STORAGE_MONGODB
	}
	if cfg.StorageDriver != STORAGE_MONGODB && cfg.StorageDriver != STORAGE_MEMORY {
		return Config{}, fmt.Errorf("invalid %s value %q", STORAGE_DRIVER, cfg.StorageDriver)
	}
	if cfg.StorageDriver == STORAGE_MONGODB && cfg.MongoURI == "" {
		return Config{}, fmt.Errorf("missing required environment variables: %s", MONGODB_URI)
	}
	if cfg.IdentityURL == "" {
		cfg.IdentityURL = "http://localhost:8000"
	}
	cfg.AllowedOrigins = allowedOrigins(cfg.Env, os.Getenv(CORS_ORIGINS))

	return cfg, nil
}

// allowedOrigins parses a comma separated CORS_ORIGINS value. Without one,
// production accepts the worklogz domains and other environments the local
// dev servers.
func allowedOrigins(env, value string) []string {
	origins := []string{}
	for _, origin := range strings.Split(value, ",") {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" && !slices.Contains(origins, origin) {
			origins = append(origins, origin)
		}
	}
	if len(origins) > 0 {
		return origins
	}
	if env == ENV_RELEASE {
		return slices.Clone(releaseOrigins)
	}
	return slices.Clone(developmentOrigins)
}

// OriginAllowed reports whether a browser Origin header is in allowed.
func OriginAllowed(allowed []string, origin string) bool {
	return origin != "" && slices.Contains(allowed, strings.TrimRight(origin, "/"))
}
