package server

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/iwvelando/cabida/internal/cabida"
	"github.com/iwvelando/cabida/internal/history"
	"github.com/iwvelando/cabida/internal/logging"
	"github.com/iwvelando/cabida/internal/zoning"
	"github.com/iwvelando/cabida/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address          string                 `yaml:"address"`
	MaxRequestSize   string                 `yaml:"maxRequestSize"`
	Logging          logging.Config         `yaml:"logging"`
	Regulation       cabida.Regulation      `yaml:"regulation"`
	Zones            map[string]zoning.Rule `yaml:"zones"`
	History          HistoryConfig          `yaml:"history"`
	requestSizeBytes int64
}

// HistoryConfig selects the calculation history backend. A SQLite path takes
// precedence over the in-memory cache.
type HistoryConfig struct {
	CacheSize  int    `yaml:"cacheSize"`
	SQLitePath string `yaml:"sqlitePath"`
}

// LoadConfig loads the server configuration from YAML. If the file does not exist,
// defaults are returned without error.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Address:          constants.DefaultServerAddress,
		MaxRequestSize:   fmt.Sprintf("%d", constants.DefaultMaxRequestSizeBytes),
		Regulation:       cabida.DefaultRegulation(),
		History:          HistoryConfig{CacheSize: constants.DefaultCacheSize},
		requestSizeBytes: constants.DefaultMaxRequestSizeBytes,
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RequestSizeBytes returns the configured request body limit in bytes.
func (c *Config) RequestSizeBytes() int64 {
	return c.requestSizeBytes
}

// SetRequestSizeBytes overrides the configured request body limit.
func (c *Config) SetRequestSizeBytes(size int64) {
	if size > 0 {
		c.requestSizeBytes = size
		c.MaxRequestSize = fmt.Sprintf("%d", size)
	}
}

// ZoneTable builds the zone table with the configured overrides.
func (c *Config) ZoneTable() (*zoning.Table, error) {
	return zoning.NewTable(c.Zones)
}

// OpenHistory opens the configured history store.
func (c *Config) OpenHistory() (history.Store, error) {
	if c.History.SQLitePath != "" {
		return history.NewSQLiteStore(c.History.SQLitePath)
	}
	return history.NewMemoryStore(c.History.CacheSize)
}

func (c *Config) normalize() error {
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}
	c.Regulation = c.Regulation.WithDefaults()
	if err := c.Regulation.Validate(); err != nil {
		return fmt.Errorf("invalid regulation: %w", err)
	}
	if c.History.CacheSize <= 0 {
		c.History.CacheSize = constants.DefaultCacheSize
	}

	sizeStr := strings.TrimSpace(c.MaxRequestSize)
	if sizeStr == "" {
		c.requestSizeBytes = constants.DefaultMaxRequestSizeBytes
		c.MaxRequestSize = fmt.Sprintf("%d", constants.DefaultMaxRequestSizeBytes)
		return nil
	}

	bytes, err := ParseSize(sizeStr)
	if err != nil {
		return err
	}
	if bytes <= 0 {
		bytes = constants.DefaultMaxRequestSizeBytes
	}
	c.requestSizeBytes = bytes
	return nil
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxRequestSizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(upper[:idx])
	unitPart := strings.TrimSpace(upper[idx:])

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var multiplier int64
	switch unitPart {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	case "G", "GB":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}

	if n > math.MaxInt64/multiplier {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	result := n * multiplier
	if result < 0 {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return result, nil
}
