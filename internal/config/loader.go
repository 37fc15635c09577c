package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads the configuration from the environment, applies defaults and
// validates it. Run godotenv first to pick up a .env file.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// MustLoad is Load for main: it panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// envTags is the parsed form of a field's struct tags:
//
//	env       primary variable name
//	envAlt    fallback variable name
//	default   value used when both are unset
//	required  "true" when the variable must be set
//	unit      "bytes" to accept 25MB-style sizes
type envTags struct {
	name     string
	alt      string
	def      string
	required bool
	unit     string
}

func tagsOf(f reflect.StructField) (envTags, bool) {
	name := f.Tag.Get("env")
	if name == "" {
		return envTags{}, false
	}
	return envTags{
		name:     name,
		alt:      f.Tag.Get("envAlt"),
		def:      f.Tag.Get("default"),
		required: f.Tag.Get("required") == "true",
		unit:     f.Tag.Get("unit"),
	}, true
}

// value resolves the raw string for tags; ok is false when a required
// variable is unset.
func (t envTags) value() (v string, ok bool) {
	if v = os.Getenv(t.name); v != "" {
		return v, true
	}
	if t.alt != "" {
		if v = os.Getenv(t.alt); v != "" {
			return v, true
		}
	}
	return t.def, !t.required
}

var durationType = reflect.TypeOf(time.Duration(0))

// loadStruct fills v's tagged fields, descending into nested structs. Every
// bad or missing variable is reported, not just the first.
func loadStruct(v reflect.Value) error {
	var errs []error
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field, fv := t.Field(i), v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fv); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		tags, ok := tagsOf(field)
		if !ok {
			continue
		}
		raw, ok := tags.value()
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("required environment variable %s is not set", tags.name))
			continue
		case raw == "":
			continue
		}

		if err := setField(fv, raw, tags.unit); err != nil {
			errs = append(errs, fmt.Errorf("invalid value for %s=%q: %w", tags.name, raw, err))
		}
	}
	return errors.Join(errs...)
}

// setField parses raw into field according to its type.
func setField(field reflect.Value, raw, unit string) error {
	switch {
	case unit == "bytes":
		n, err := parseByteSize(raw)
		if err != nil {
			return err
		}
		field.SetInt(n)

	case field.Type() == durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))

	case field.Kind() == reflect.String:
		field.SetString(raw)

	case field.Kind() == reflect.Int || field.Kind() == reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(n)

	case field.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.String:
		field.Set(reflect.ValueOf(splitList(raw)))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Type())
	}
	return nil
}

// splitList splits a comma-separated list, dropping blank entries.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// byteUnits are the size suffixes accepted by parseByteSize, longest first.
var byteUnits = []struct {
	suffix string
	scale  int64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// parseByteSize parses "1048576", "512KB", "25MB" or "1GB".
func parseByteSize(value string) (int64, error) {
	v := strings.ToUpper(strings.TrimSpace(value))
	scale := int64(1)
	for _, u := range byteUnits {
		if strings.HasSuffix(v, u.suffix) {
			v = strings.TrimSpace(strings.TrimSuffix(v, u.suffix))
			scale = u.scale
			break
		}
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size: %w", err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid size: negative")
	}
	return n * scale, nil
}

// validator collects failed checks.
type validator struct {
	errs []string
}

func (v *validator) check(ok bool, format string, args ...any) {
	if !ok {
		v.errs = append(v.errs, fmt.Sprintf(format, args...))
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var v validator

	db := c.Database
	v.check(db.URL != "", "DATABASE_URL is required")
	v.check(db.MaxConns > 0, "DB_MAX_CONNS must be positive")
	v.check(db.MinConns >= 0, "DB_MIN_CONNS must be non-negative")
	v.check(db.MaxConns >= db.MinConns, "DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", db.MaxConns, db.MinConns)

	srv := c.Server
	v.check(srv.Port > 0 && srv.Port <= 65535, "SERVER_PORT (%d) must be 1-65535", srv.Port)
	v.check(srv.ReadTimeout >= 0, "SERVER_READ_TIMEOUT must be non-negative")
	v.check(srv.RequestTimeout >= 0, "SERVER_REQUEST_TIMEOUT must be non-negative")
	v.check(srv.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be positive")

	mig := c.Migration
	v.check(mig.MaxFileSize > 0, "MIGRATION_MAX_FILE_SIZE must be positive")
	v.check(mig.MaxConcurrent > 0, "MIGRATION_MAX_CONCURRENT must be positive")
	v.check(mig.MaxWaitTime > 0, "MIGRATION_MAX_WAIT_TIME must be positive")
	v.check(mig.ImportTimeout > 0, "MIGRATION_IMPORT_TIMEOUT must be positive")
	v.check(mig.JobTTL > 0, "MIGRATION_JOB_TTL must be positive")
	v.check(mig.SweepInterval > 0, "MIGRATION_SWEEP_INTERVAL must be positive")
	v.check(mig.SweepInterval <= mig.JobTTL,
		"MIGRATION_SWEEP_INTERVAL (%s) must not exceed MIGRATION_JOB_TTL (%s)", mig.SweepInterval, mig.JobTTL)
	v.check(mig.SampleSize > 0, "MIGRATION_SAMPLE_SIZE must be positive")

	if c.Rate.Enabled {
		v.check(c.Rate.RequestsPerMinute > 0, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
		v.check(c.Rate.DryRunLimit > 0, "RATE_LIMIT_DRY_RUN must be positive when rate limiting is enabled")
	}

	v.check(!c.Security.RequireAPIKey || len(c.Security.APIKeys) > 0,
		"REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		v.check(false, "LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		v.check(false, "LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)
	}

	if len(v.errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(v.errs, "\n  - "))
	}
	return nil
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Database: {URL: [MASKED], MaxConns: %d, MinConns: %d}, ",
		c.Database.MaxConns, c.Database.MinConns))
	b.WriteString(fmt.Sprintf("Migration: {MaxFileSize: %d, MaxConcurrent: %d, JobTTL: %s}, ",
		c.Migration.MaxFileSize, c.Migration.MaxConcurrent, c.Migration.JobTTL))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d, DryRun: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute, c.Rate.DryRunLimit))
	b.WriteString(fmt.Sprintf("Security: {RequireAPIKey: %v, APIKeys: %d, TrustedProxies: %d}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys), len(c.Security.TrustedProxies)))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
