package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned for values Load cannot use
var ErrInvalidConfig = errors.New("invalid configuration")

// Transports
const (
	TransportUSB = "usb"
	TransportTCP = "tcp"
)

// Log formats
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Config holds the daemon settings
type Config struct {
	ServerAddress string

	Transport      string
	PrinterAddress string
	VID            uint16
	PID            uint16
	Serial         string
	ReadTimeout    time.Duration

	DPI int
	// TestLabel prints a sample label once the printer is detected
	TestLabel bool

	LogLevel  string
	LogFormat string
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_ADDRESS", "localhost:9100")
	v.SetDefault("PRINTER_TRANSPORT", TransportUSB)
	v.SetDefault("PRINTER_ADDRESS", "")
	v.SetDefault("PRINTER_VID", 0)
	v.SetDefault("PRINTER_PID", 0)
	v.SetDefault("PRINTER_SERIAL", "")
	v.SetDefault("PRINTER_READ_TIMEOUT", 2*time.Second)
	v.SetDefault("LABEL_DPI", 203)
	v.SetDefault("PRINT_TEST_LABEL", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", LogFormatConsole)

	cfg := &Config{
		ServerAddress:  v.GetString("SERVER_ADDRESS"),
		Transport:      strings.ToLower(v.GetString("PRINTER_TRANSPORT")),
		PrinterAddress: v.GetString("PRINTER_ADDRESS"),
		Serial:         v.GetString("PRINTER_SERIAL"),
		ReadTimeout:    v.GetDuration("PRINTER_READ_TIMEOUT"),
		DPI:            v.GetInt("LABEL_DPI"),
		TestLabel:      v.GetBool("PRINT_TEST_LABEL"),
		LogLevel:       strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:      strings.ToLower(v.GetString("LOG_FORMAT")),
	}

	var err error
	if cfg.VID, err = usbID(v, "PRINTER_VID"); err != nil {
		return nil, err
	}
	if cfg.PID, err = usbID(v, "PRINTER_PID"); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// usbID accepts decimal or 0x prefixed hexadecimal ids
func usbID(v *viper.Viper, key string) (uint16, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a USB id", ErrInvalidConfig, key, raw)
	}
	return uint16(id), nil
}

func (c *Config) validate() error {
	switch c.Transport {
	case TransportUSB:
	case TransportTCP:
		if c.PrinterAddress == "" {
			return fmt.Errorf("%w: PRINTER_ADDRESS is required for the tcp transport", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown PRINTER_TRANSPORT %q", ErrInvalidConfig, c.Transport)
	}

	if c.DPI <= 0 {
		return fmt.Errorf("%w: LABEL_DPI must be positive, got %d", ErrInvalidConfig, c.DPI)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("%w: PRINTER_READ_TIMEOUT must be positive", ErrInvalidConfig)
	}

	switch c.LogFormat {
	case LogFormatConsole, LogFormatJSON:
	default:
		return fmt.Errorf("%w: unknown LOG_FORMAT %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
