package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// DefaultBaseURL is the listing page of the company directory.
const DefaultBaseURL = "https://www.ycombinator.com/companies"

// Config holds startup configuration shared by the CLI and the HTTP service.
type Config struct {
	BaseURL        string
	ChromeBin      string // explicit browser binary, empty lets the launcher resolve one
	Headless       bool
	ProxyURL       string
	WaitTimeout    time.Duration
	ScrollInterval time.Duration
	MaxScrolls     int
	Port           string
	MaxSessions    int
}

// Load reads configuration from the process environment.
// Call LoadEnv first to merge local .env files.
func Load() Config {
	return Config{
		BaseURL:        GetEnv("CODIR_BASE_URL", DefaultBaseURL),
		ChromeBin:      GetEnv("CODIR_CHROME_BIN", ""),
		Headless:       GetEnvBool("CODIR_HEADLESS", true),
		ProxyURL:       GetEnv("CODIR_PROXY", ""),
		WaitTimeout:    GetEnvDuration("CODIR_WAIT_TIMEOUT", 30*time.Second),
		ScrollInterval: GetEnvDuration("CODIR_SCROLL_INTERVAL", 2*time.Second),
		MaxScrolls:     GetEnvInt("CODIR_MAX_SCROLLS", 100),
		Port:           GetEnv("PORT", "8080"),
		MaxSessions:    GetEnvInt("MAX_SESSIONS", 2),
	}
}

// LoadEnv loads environment variables from .env files
func LoadEnv(logger *logrus.Logger) {
	files := []string{".env", ".env.dev"}
	loaded := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Overload(file); err != nil {
			if logger != nil {
				logger.WithError(err).Warnf("Failed to load %s", file)
			}
			continue
		}
		loaded = append(loaded, file)
	}
	if logger == nil {
		return
	}
	if len(loaded) == 0 {
		logger.Debug("No local env files loaded; relying on process environment")
	} else {
		logger.Debugf("Loaded env files: %s", strings.Join(loaded, ", "))
	}
}

// GetEnv gets an environment variable with a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets an integer environment variable with a default value
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetEnvBool gets a boolean environment variable with a default value
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetEnvDuration accepts Go duration strings ("45s") or plain seconds ("45").
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// GetLogLevel gets the log level from environment
func GetLogLevel() logrus.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
