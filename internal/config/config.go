// Package config loads and validates the service configuration from the
// environment. Validation runs once at startup so a misconfigured process
// fails fast with every problem listed, instead of failing on first use.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	// DefaultMaxFileBytes caps a single uploaded file at 4 MiB.
	DefaultMaxFileBytes int64 = 4 * 1024 * 1024

	RepositoryPostgres = "postgres"
	RepositoryMemory   = "memory"

	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

var postgresURL = regexp.MustCompile(`^postgres(ql)?://`)

// Config is the validated startup configuration. The json tags name the
// environment variable each field comes from; validation errors are keyed
// by them.
type Config struct {
	Host         string   `json:"HOST"`
	Port         int      `json:"PORT"`
	Environment  string   `json:"APP_ENV"`
	DatabaseURL  string   `json:"DATABASE_URL"`
	Repository   string   `json:"UPLOADS_REPOSITORY"`
	CORSOrigins  []string `json:"CORS_ORIGINS"`
	MaxFileBytes int64    `json:"UPLOAD_MAX_FILE_BYTES"`
	LogLevel     string   `json:"LOG_LEVEL"`
	LogFormat    string   `json:"LOG_FORMAT"`
	TrustProxy   bool     `json:"TRUST_PROXY_HEADERS"`
	Storage      Storage  `json:"S3"`
}

// Storage holds the S3-compatible object storage settings.
type Storage struct {
	Endpoint        string `json:"S3_ENDPOINT"`
	AccessKeyID     string `json:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `json:"S3_SECRET_ACCESS_KEY"`
	Bucket          string `json:"S3_BUCKET"`
	PublicURL       string `json:"S3_PUBLIC_URL"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	parseErrs := validation.Errors{}

	env := getEnv("APP_ENV", EnvDevelopment)
	defaultFormat := "console"
	if env == EnvProduction {
		defaultFormat = "json"
	}

	cfg := &Config{
		Host:        getEnv("HOST", "0.0.0.0"),
		Environment: env,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Repository:  getEnv("UPLOADS_REPOSITORY", RepositoryPostgres),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", defaultFormat),
		Storage: Storage{
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			Bucket:          os.Getenv("S3_BUCKET"),
			PublicURL:       strings.TrimRight(os.Getenv("S3_PUBLIC_URL"), "/"),
		},
	}

	port, err := strconv.Atoi(getEnv("PORT", "3333"))
	if err != nil {
		parseErrs["PORT"] = errors.New("must be a valid integer")
	}
	cfg.Port = port

	maxBytes, err := strconv.ParseInt(getEnv("UPLOAD_MAX_FILE_BYTES", strconv.FormatInt(DefaultMaxFileBytes, 10)), 10, 64)
	if err != nil {
		parseErrs["UPLOAD_MAX_FILE_BYTES"] = errors.New("must be a valid integer")
	}
	cfg.MaxFileBytes = maxBytes

	trust, err := strconv.ParseBool(getEnv("TRUST_PROXY_HEADERS", "false"))
	if err != nil {
		parseErrs["TRUST_PROXY_HEADERS"] = errors.New("must be true or false")
	}
	cfg.TrustProxy = trust

	if err := cfg.Validate(); err != nil {
		var verrs validation.Errors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		for k, v := range verrs {
			if _, seen := parseErrs[k]; !seen {
				parseErrs[k] = v
			}
		}
	}
	if len(parseErrs) > 0 {
		return nil, &ValidationError{errs: parseErrs}
	}
	return cfg, nil
}

// Validate checks every field and returns validation.Errors keyed by
// environment variable name.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Host, validation.Required),
		validation.Field(&c.Port, validation.Min(0), validation.Max(65535)),
		validation.Field(&c.Environment, validation.Required,
			validation.In(EnvDevelopment, EnvTest, EnvProduction)),
		validation.Field(&c.Repository, validation.Required,
			validation.In(RepositoryPostgres, RepositoryMemory)),
		validation.Field(&c.DatabaseURL,
			validation.When(c.Repository == RepositoryPostgres, validation.Required),
			validation.Match(postgresURL).Error("must be a PostgreSQL connection string")),
		validation.Field(&c.CORSOrigins, validation.Required),
		validation.Field(&c.MaxFileBytes, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.LogFormat, validation.In("json", "console")),
		validation.Field(&c.Storage),
	)
}

// Validate checks the object storage settings.
func (s Storage) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Endpoint, validation.Required),
		validation.Field(&s.AccessKeyID, validation.Required),
		validation.Field(&s.SecretAccessKey, validation.Required),
		validation.Field(&s.Bucket, validation.Required),
		validation.Field(&s.PublicURL, validation.Required, is.URL),
	)
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ValidationError lists every configuration problem found by Load.
type ValidationError struct {
	errs validation.Errors
}

func (e *ValidationError) Error() string {
	lines := flatten(e.errs)
	sort.Strings(lines)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d error(s):\n", len(lines)))
	for i, l := range lines {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, l))
	}
	return sb.String()
}

// Fields returns the names of the invalid variables.
func (e *ValidationError) Fields() []string {
	lines := flatten(e.errs)
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l[:strings.Index(l, ":")])
	}
	sort.Strings(out)
	return out
}

// flatten turns nested validation.Errors into "KEY: message" lines. The
// innermost key is already the full variable name.
func flatten(errs validation.Errors) []string {
	var out []string
	for k, err := range errs {
		var nested validation.Errors
		if errors.As(err, &nested) {
			out = append(out, flatten(nested)...)
			continue
		}
		out = append(out, fmt.Sprintf("%s: %s", k, err.Error()))
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
