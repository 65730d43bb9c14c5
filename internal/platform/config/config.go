package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration assembled from the environment.
type Config struct {
	Port               string
	LogLevel           string
	LogFormat          string
	LogFile            string
	AverageSongMinutes int
	ExportPath         string
	TUIEnabled         bool
	MDNSEnabled        bool
	MDNSInstance       string
	PlayerEnabled      bool
	PlayerBinary       string
	LookupWorkers      int
	LookupTimeout      time.Duration
	SearchTimeout      time.Duration
	HeartbeatInterval  time.Duration
}

// Load reads the .env file from the current working directory and sets
// environment variables. If .env does not exist, Load returns an error but
// callers can ignore it and use system env or defaults. Pass one or more paths
// to load from specific files (e.g. ".env"); with no paths, ".env" is used.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// FromEnv builds a Config from environment variables, applying defaults for
// anything unset or malformed.
func FromEnv() Config {
	return Config{
		Port:               GetEnv("PORT", "5000"),
		LogLevel:           GetEnv("LOG_LEVEL", "info"),
		LogFormat:          GetEnv("LOG_FORMAT", "json"),
		LogFile:            GetEnv("LOG_FILE", "jukebox.log"),
		AverageSongMinutes: GetEnvInt("AVERAGE_SONG_MINUTES", 4),
		ExportPath:         GetEnv("EXPORT_PATH", "played_playlist.json"),
		TUIEnabled:         GetEnvBool("TUI_ENABLED", true),
		MDNSEnabled:        GetEnvBool("MDNS_ENABLED", true),
		MDNSInstance:       GetEnv("MDNS_INSTANCE", "Jukebox Queue"),
		PlayerEnabled:      GetEnvBool("PLAYER_ENABLED", false),
		PlayerBinary:       GetEnv("PLAYER_BINARY", "mpv"),
		LookupWorkers:      GetEnvInt("LOOKUP_WORKERS", 4),
		LookupTimeout:      GetEnvDuration("LOOKUP_TIMEOUT", 5*time.Second),
		SearchTimeout:      GetEnvDuration("SEARCH_TIMEOUT", 10*time.Second),
		HeartbeatInterval:  GetEnvDuration("HEARTBEAT_INTERVAL", 15*time.Second),
	}
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvBool accepts the forms understood by strconv.ParseBool plus "yes"/"no".
func GetEnvBool(key string, fallback bool) bool {
	s := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch s {
	case "":
		return fallback
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return fallback
}

// GetEnvDuration parses values like "5s" or "250ms". A bare integer is
// treated as seconds.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
