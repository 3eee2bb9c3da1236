// Package cliconf holds configuration shared by the sealink command-line
// tools: YAML config files, key material loading, and logger setup.
package cliconf

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sealink-protocol/sealink-go/pkg/log"
	"github.com/sealink-protocol/sealink-go/pkg/seal"
)

// Config is the YAML configuration shared by sealink-echo and sealink-chat.
// Command-line flags override file values.
type Config struct {
	// Listen is the address the echo server binds (host:port).
	Listen string `yaml:"listen"`

	// Connect is the address the chat client dials (host:port).
	Connect string `yaml:"connect"`

	// Key is the shared secret, hex-encoded (64 hex digits).
	Key string `yaml:"key"`

	// KeyFile is a path to a file holding the hex-encoded key. Used when
	// Key is empty; keeps secrets out of the config file proper.
	KeyFile string `yaml:"key_file"`

	// Instance is the mDNS instance name to advertise or discover.
	// Empty disables discovery.
	Instance string `yaml:"instance"`

	// Name is the human-readable endpoint name for TXT records.
	Name string `yaml:"name"`

	// LogLevel is the slog level: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// CaptureFile is the protocol event capture file (CBOR). Empty
	// disables capture.
	CaptureFile string `yaml:"capture_file"`
}

// Config errors.
var (
	ErrNoKey = errors.New("no key configured: set key or key_file")
)

// Load reads a YAML config file. A missing path yields a zero Config.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ResolveKey returns the 32-byte key from Key or KeyFile.
func (c *Config) ResolveKey() ([]byte, error) {
	hexKey := c.Key
	if hexKey == "" && c.KeyFile != "" {
		data, err := os.ReadFile(c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		hexKey = strings.TrimSpace(string(data))
	}
	if hexKey == "" {
		return nil, ErrNoKey
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if len(key) != seal.KeySize {
		return nil, fmt.Errorf("key is %d bytes, need %d", len(key), seal.KeySize)
	}
	return key, nil
}

// SlogLevel maps the configured level name to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ProtocolLogger builds the protocol capture logger from the config:
// a CBOR file logger when CaptureFile is set, the slog adapter at debug
// level, or both. The returned closer flushes the capture file; it is
// never nil.
func (c *Config) ProtocolLogger(slogger *slog.Logger) (log.Logger, func() error, error) {
	loggers := []log.Logger{}
	closer := func() error { return nil }

	if c.CaptureFile != "" {
		fl, err := log.NewFileLogger(c.CaptureFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open capture file: %w", err)
		}
		loggers = append(loggers, fl)
		closer = fl.Close
	}
	if c.SlogLevel() <= slog.LevelDebug {
		loggers = append(loggers, log.NewSlogAdapter(slogger))
	}

	switch len(loggers) {
	case 0:
		return log.NoopLogger{}, closer, nil
	case 1:
		return loggers[0], closer, nil
	default:
		return log.NewMultiLogger(loggers...), closer, nil
	}
}
