package env

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// ConfigFileEnv names the environment variable that points at an optional
// TOML config file.
const ConfigFileEnv = "MESHLINK_CONFIG"

var ErrNoDevice = errors.New("Either a serial port or a bridge address must be configured")

type Config struct {
	// Port is the serial device the module is attached to
	Port     string `toml:"port" env:"MESHLINK_PORT,overwrite"`
	BaudRate int    `toml:"baud_rate" env:"MESHLINK_BAUD_RATE,overwrite,default=9600"`

	// Address of a serial to TCP bridge, used instead of Port when set
	Address string `toml:"address" env:"MESHLINK_ADDRESS,overwrite"`

	// Escaped is true when the module runs in API mode 2
	Escaped bool `toml:"escaped" env:"MESHLINK_ESCAPED,overwrite"`

	QueryTimeout    time.Duration `toml:"query_timeout" env:"MESHLINK_QUERY_TIMEOUT,overwrite,default=5s"`
	DiscoveryWindow time.Duration `toml:"discovery_window" env:"MESHLINK_DISCOVERY_WINDOW,overwrite,default=6s"`

	LogLevel string `toml:"log_level" env:"MESHLINK_LOG_LEVEL,overwrite,default=info"`
	LogFile  string `toml:"log_file" env:"MESHLINK_LOG_FILE,overwrite"`

	HTTPHost  string `toml:"http_host" env:"MESHLINK_HTTP_HOST,overwrite,default=0.0.0.0"`
	HTTPPort  string `toml:"http_port" env:"MESHLINK_HTTP_PORT,overwrite,default=7362"`
	DebugHTTP bool   `toml:"debug_http" env:"MESHLINK_DEBUG_HTTP,overwrite"`
}

// LoadConfig builds the config from, in increasing order of precedence, the
// TOML file at path (or $MESHLINK_CONFIG when path is empty), .env.local
// and the environment.
func LoadConfig(ctx context.Context, path string) (*Config, error) {
	config := Config{}

	if err := godotenv.Load(".env.local"); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("Failed to load .env.local: %w", err)
		}
	}

	if path == "" {
		path = os.Getenv(ConfigFileEnv)
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, &config); err != nil {
			return nil, fmt.Errorf("Failed to load config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks that the config describes a reachable module.
func (c *Config) Validate() error {
	if c.Port == "" && c.Address == "" {
		return ErrNoDevice
	}

	if c.BaudRate <= 0 {
		return fmt.Errorf("Invalid baud rate %d", c.BaudRate)
	}

	if c.QueryTimeout <= 0 {
		return fmt.Errorf("Invalid query timeout %s", c.QueryTimeout)
	}

	if c.DiscoveryWindow <= 0 {
		return fmt.Errorf("Invalid discovery window %s", c.DiscoveryWindow)
	}

	return nil
}
