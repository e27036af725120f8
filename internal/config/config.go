package config

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Addr   string
	DBPath string
	Debug  bool

	// Edge bridge link
	BridgeHost  string
	BridgePort  int
	DialTimeout time.Duration
	RequireACK  bool

	// Frame pipeline timing
	ACKTimeout      time.Duration
	MaxRetries      int
	RetryPause      time.Duration
	MinSendInterval time.Duration
	InterFrameGap   time.Duration
	QueueCapacity   int

	// Zone assertion loop
	AssertInterval time.Duration

	// Weather datalogger
	WeatherPort     string
	WeatherBaud     int
	WeatherTable    string
	WeatherInterval time.Duration
}

// Load parses command line flags and environment variables to populate Config.
// Flags take precedence over environment variables.
func Load() *Config {
	cfg := &Config{}

	// Defaults and Environment Variables
	cfg.Addr = getEnv("EGS_ADDR", ":8000")
	cfg.DBPath = getEnv("EGS_DB", getDefaultDBPath())
	cfg.BridgeHost = getEnv("EGS_BRIDGE_HOST", "192.168.4.1")
	cfg.BridgePort = getEnvInt("EGS_BRIDGE_PORT", 9000)
	cfg.RequireACK = getEnvBool("EGS_REQUIRE_ACK", true)
	cfg.WeatherPort = getEnv("EGS_WEATHER_PORT", "/dev/ttyUSB0")
	cfg.WeatherBaud = getEnvInt("EGS_WEATHER_BAUD", 115200)
	cfg.WeatherTable = getEnv("EGS_WEATHER_TABLE", "Tbl_1min")

	// Command Line Flags (Override Env)
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP server address")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to SQLite database")
	flag.StringVar(&cfg.BridgeHost, "bridge-host", cfg.BridgeHost, "Edge bridge host")
	flag.IntVar(&cfg.BridgePort, "bridge-port", cfg.BridgePort, "Edge bridge TCP port")
	flag.BoolVar(&cfg.RequireACK, "require-ack", cfg.RequireACK, "Require per-frame ACK from the bridge")
	flag.StringVar(&cfg.WeatherPort, "weather-port", cfg.WeatherPort, "Serial port of the weather datalogger")
	flag.IntVar(&cfg.WeatherBaud, "weather-baud", cfg.WeatherBaud, "Baud rate of the weather datalogger")
	flag.StringVar(&cfg.WeatherTable, "weather-table", cfg.WeatherTable, "Datalogger table to poll")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable verbose debug logging")

	flag.Parse()

	// Protocol timing is fixed by the bridge firmware, not operator
	// tunable.
	cfg.DialTimeout = 3 * time.Second
	cfg.ACKTimeout = 1200 * time.Millisecond
	cfg.MaxRetries = 2
	cfg.RetryPause = 100 * time.Millisecond
	cfg.MinSendInterval = time.Second
	cfg.InterFrameGap = 25 * time.Millisecond
	cfg.QueueCapacity = 256
	cfg.AssertInterval = 15 * time.Second
	cfg.WeatherInterval = 60 * time.Second

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getDefaultDBPath returns the default database path in user's home directory.
// Creates the directory if it doesn't exist.
func getDefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: Could not get user home directory, using current dir: %v", err)
		return "egs.db"
	}

	// Use ~/.egs directory
	egsDir := filepath.Join(home, ".egs")

	// Create directory if it doesn't exist
	if err := os.MkdirAll(egsDir, 0755); err != nil {
		log.Printf("Warning: Could not create .egs directory, using current dir: %v", err)
		return "egs.db"
	}

	return filepath.Join(egsDir, "egs.db")
}
