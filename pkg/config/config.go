// pkg/config/config.go

// Package config loads the run configuration from the environment, after
// seeding it from a .env file.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/dedup_err"
	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/qualys"
	cerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment keys.
const (
	KeyLogin        = "API_LOGIN"
	KeyPassword     = "API_PASSWORD"
	KeyPlatformURL  = "API_PLATFORM_URL"
	KeyHeaders      = "API_HEADERS"
	KeyRequestDelay = "API_REQUEST_DELAY"
	KeyMaxRetries   = "API_MAX_RETRIES"
	KeyTimeout      = "API_TIMEOUT"
	KeyPageSize     = "API_PAGE_SIZE"
	KeyLogDir       = "LOG_DIR"
	KeyLogPrefix    = "LOG_PREFIX"
	KeyLogLevel     = "LOG_LEVEL"
)

// ErrNoDotEnv is returned by LoadDotEnv when none of the candidates exist.
var ErrNoDotEnv = cerr.New(".env file not found")

// Config is the validated run configuration.
type Config struct {
	Login        string            `env:"API_LOGIN" validate:"required"`
	Password     string            `env:"API_PASSWORD" validate:"required"`
	PlatformURL  string            `env:"API_PLATFORM_URL" validate:"required,url"`
	Headers      map[string]string `env:"API_HEADERS"`
	RequestDelay time.Duration     `env:"API_REQUEST_DELAY" validate:"gte=0"`
	MaxRetries   int               `env:"API_MAX_RETRIES" validate:"gte=0,lte=10"`
	Timeout      time.Duration     `env:"API_TIMEOUT" validate:"gt=0"`
	PageSize     int               `env:"API_PAGE_SIZE" validate:"gte=1,lte=1000"`
	LogDir       string            `env:"LOG_DIR" validate:"required"`
	LogPrefix    string            `env:"LOG_PREFIX" validate:"required"`
	LogLevel     string            `env:"LOG_LEVEL" validate:"omitempty,oneof=DEBUG INFO WARN ERROR"`
}

// DotEnvCandidates returns the .env locations tried by default: the working
// directory first, then the directory holding the executable.
func DotEnvCandidates() []string {
	candidates := []string{".env"}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), ".env"))
	}
	return candidates
}

// LoadDotEnv loads the first existing file among candidates (DotEnvCandidates
// when none are given) and returns its path. Variables already present in the
// environment are left alone.
func LoadDotEnv(candidates ...string) (string, error) {
	if len(candidates) == 0 {
		candidates = DotEnvCandidates()
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return path, cerr.Wrapf(err, "load %s", path)
		}
		return path, nil
	}
	return "", ErrNoDotEnv
}

// NewViper returns a viper instance bound to the process environment with
// every default applied.
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault(KeyHeaders, "{}")
	v.SetDefault(KeyRequestDelay, "1")
	v.SetDefault(KeyMaxRetries, "3")
	v.SetDefault(KeyTimeout, "30")
	v.SetDefault(KeyPageSize, strconv.Itoa(qualys.DefaultPageSize))
	v.SetDefault(KeyLogDir, "logs")
	v.SetDefault(KeyLogPrefix, "CA_REMOVE")
	return v
}

// Load reads and validates the configuration from v. Any problem is reported
// as a validation error naming every offending key.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = NewViper()
	}

	var parseErrs *multierror.Error
	cfg := &Config{
		Login:       strings.TrimSpace(v.GetString(KeyLogin)),
		Password:    v.GetString(KeyPassword),
		PlatformURL: strings.TrimRight(strings.TrimSpace(v.GetString(KeyPlatformURL)), "/"),
		LogDir:      v.GetString(KeyLogDir),
		LogPrefix:   v.GetString(KeyLogPrefix),
		LogLevel:    strings.ToUpper(strings.TrimSpace(v.GetString(KeyLogLevel))),
	}

	var err error
	if cfg.Headers, err = parseHeaders(v.GetString(KeyHeaders)); err != nil {
		parseErrs = multierror.Append(parseErrs, err)
	}
	if cfg.RequestDelay, err = parseSeconds(v, KeyRequestDelay); err != nil {
		parseErrs = multierror.Append(parseErrs, err)
	}
	if cfg.Timeout, err = parseSeconds(v, KeyTimeout); err != nil {
		parseErrs = multierror.Append(parseErrs, err)
	}
	if cfg.MaxRetries, err = parseInt(v, KeyMaxRetries); err != nil {
		parseErrs = multierror.Append(parseErrs, err)
	}
	if cfg.PageSize, err = parseInt(v, KeyPageSize); err != nil {
		parseErrs = multierror.Append(parseErrs, err)
	}

	if err := parseErrs.ErrorOrNil(); err != nil {
		return nil, invalid(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct constraints.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("env")
	})

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !cerr.As(err, &fieldErrs) {
		return invalid(err)
	}
	var result *multierror.Error
	for _, fe := range fieldErrs {
		result = multierror.Append(result, cerr.Newf("%s: failed %q check", fe.Field(), describe(fe)))
	}
	return invalid(result.ErrorOrNil())
}

// QualysConfig maps the run configuration onto the vendor client config.
func (c *Config) QualysConfig() qualys.Config {
	return qualys.Config{
		PlatformURL:    c.PlatformURL,
		Login:          c.Login,
		Password:       c.Password,
		Headers:        c.Headers,
		RequestDelay:   c.RequestDelay,
		Timeout:        c.Timeout,
		MaxRetries:     c.MaxRetries,
		PageSize:       c.PageSize,
		TrackingMethod: qualys.DefaultTrackingMethod,
	}
}

func invalid(err error) error {
	return dedup_err.NewValidationError("invalid configuration", err,
		"set API_LOGIN, API_PASSWORD and API_PLATFORM_URL in the environment or a .env file",
		"numeric settings take plain numbers, e.g. API_REQUEST_DELAY=0.5",
		"API_HEADERS must be a JSON object of strings, e.g. {\"X-Requested-With\":\"agentdedup\"}")
}

func describe(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

func parseHeaders(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	headers := map[string]string{}
	if raw == "" {
		return headers, nil
	}
	if err := json.Unmarshal([]byte(raw), &headers); err != nil {
		return nil, cerr.Wrapf(err, "%s: not a JSON object of strings", KeyHeaders)
	}
	return headers, nil
}

func parseSeconds(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, cerr.Wrapf(err, "%s: %q is not a number of seconds", key, raw)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func parseInt(v *viper.Viper, key string) (int, error) {
	raw := strings.TrimSpace(v.GetString(key))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, cerr.Wrapf(err, "%s: %q is not an integer", key, raw)
	}
	return n, nil
}
