package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL     string
	CacheDir       string
	LogPath        string
	LogLevel       string
	DateLocale     string
	TotalPages     int
	FetchRetries   int
	RetryBackoff   time.Duration
	RequestTimeout time.Duration
}

func Default() Config {
	cacheDir := filepath.Join(userConfigDir(), "chatter")
	return Config{
		APIBaseURL:     "http://localhost:3000/api",
		CacheDir:       cacheDir,
		LogPath:        filepath.Join(cacheDir, "debug.log"),
		LogLevel:       "info",
		DateLocale:     "ru",
		TotalPages:     3,
		FetchRetries:   0,
		RetryBackoff:   1 * time.Second,
		RequestTimeout: 10 * time.Second,
	}
}

// Load starts from Default, reads an optional .env file from the working
// directory and overlays CHATTER_* environment variables.
//
//	CHATTER_API_URL          base URL of the comments/authors API
//	CHATTER_TOTAL_PAGES      page count assumed regardless of the server (default 3)
//	CHATTER_FETCH_RETRIES    extra attempts after a failed fetch (default 0)
//	CHATTER_RETRY_BACKOFF    base delay between attempts (default 1s)
//	CHATTER_REQUEST_TIMEOUT  per-request timeout (default 10s)
//	CHATTER_DATE_LOCALE      "ru" or "en"
//	CHATTER_LOG_LEVEL        zap level name
//	CHATTER_LOG_PATH         debug log file
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from Default and the given lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	if v := getenv("CHATTER_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	parsed, err := url.Parse(cfg.APIBaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Config{}, fmt.Errorf("invalid CHATTER_API_URL: must be an absolute URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Config{}, fmt.Errorf("invalid CHATTER_API_URL: scheme must be http or https")
	}
	cfg.APIBaseURL = strings.TrimRight(parsed.String(), "/")

	if v := getenv("CHATTER_TOTAL_PAGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("invalid CHATTER_TOTAL_PAGES %q: must be a positive integer", v)
		}
		cfg.TotalPages = n
	}
	if v := getenv("CHATTER_FETCH_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid CHATTER_FETCH_RETRIES %q", v)
		}
		cfg.FetchRetries = n
	}
	if v := getenv("CHATTER_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("invalid CHATTER_RETRY_BACKOFF %q", v)
		}
		cfg.RetryBackoff = d
	}
	if v := getenv("CHATTER_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid CHATTER_REQUEST_TIMEOUT %q", v)
		}
		cfg.RequestTimeout = d
	}
	if v := getenv("CHATTER_DATE_LOCALE"); v != "" {
		cfg.DateLocale = strings.ToLower(v)
	}
	if v := getenv("CHATTER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("CHATTER_LOG_PATH"); v != "" {
		cfg.LogPath = v
		cfg.CacheDir = filepath.Dir(v)
	}
	return cfg, nil
}

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}
