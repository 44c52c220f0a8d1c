package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iwvelando/cabida/internal/history"
	"github.com/iwvelando/cabida/internal/zoning"
	"github.com/iwvelando/cabida/pkg/constants"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server-config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Address != constants.DefaultServerAddress {
		t.Fatalf("expected default address, got %q", cfg.Address)
	}
	if cfg.RequestSizeBytes() != constants.DefaultMaxRequestSizeBytes {
		t.Fatalf("expected default max request size, got %d", cfg.RequestSizeBytes())
	}
	if cfg.Logging.Level != "" || cfg.Logging.Format != "" || cfg.Logging.OutputFile != "" {
		t.Fatalf("expected empty logging defaults, got %+v", cfg.Logging)
	}
	if cfg.Regulation.AssumedFloorHeightM != constants.DefaultAssumedFloorHeightM {
		t.Fatalf("expected default floor height, got %v", cfg.Regulation.AssumedFloorHeightM)
	}
	if cfg.History.CacheSize != constants.DefaultCacheSize {
		t.Fatalf("expected default cache size, got %d", cfg.History.CacheSize)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `address: 127.0.0.1:9000
maxRequestSize: 2M
logging:
  level: debug
  format: console
  outputFile: /tmp/server.log
regulation:
  assumedFloorHeightM: 2.6
zones:
  comercial:
    maxHeightMeters: 32
history:
  cacheSize: 16
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Address != "127.0.0.1:9000" {
		t.Fatalf("expected address override, got %s", cfg.Address)
	}
	if cfg.RequestSizeBytes() != 2*1024*1024 {
		t.Fatalf("expected max request override, got %d", cfg.RequestSizeBytes())
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected logging config %+v", cfg.Logging)
	}
	if cfg.Regulation.AssumedFloorHeightM != 2.6 {
		t.Fatalf("expected floor height 2.6, got %v", cfg.Regulation.AssumedFloorHeightM)
	}
	if cfg.Regulation.LegalMinimumDwellingAreaM2 != constants.DefaultLegalMinimumDwellingAreaM2 {
		t.Fatalf("expected default legal minimum, got %v", cfg.Regulation.LegalMinimumDwellingAreaM2)
	}
	if cfg.History.CacheSize != 16 {
		t.Fatalf("expected cache size 16, got %d", cfg.History.CacheSize)
	}

	table, err := cfg.ZoneTable()
	if err != nil {
		t.Fatalf("ZoneTable() error = %v", err)
	}
	rule, _ := table.Lookup(zoning.Commercial)
	if rule.MaxHeightMeters != 32 {
		t.Fatalf("expected commercial height override, got %v", rule.MaxHeightMeters)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := map[string]string{
		"bad size":       "maxRequestSize: invalid",
		"bad yaml":       "address: [unclosed",
		"bad regulation": "regulation:\n  assumedFloorHeightM: -3\n",
	}

	for name, contents := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, contents)); err == nil {
				t.Fatal("expected error but got nil")
			}
		})
	}
}

func TestSetRequestSizeBytes(t *testing.T) {
	cfg, _ := LoadConfig("")
	cfg.SetRequestSizeBytes(1024)
	if cfg.RequestSizeBytes() != 1024 || cfg.MaxRequestSize != "1024" {
		t.Fatalf("unexpected size after override: %d %q", cfg.RequestSizeBytes(), cfg.MaxRequestSize)
	}
	cfg.SetRequestSizeBytes(0)
	if cfg.RequestSizeBytes() != 1024 {
		t.Fatalf("non-positive override should be ignored, got %d", cfg.RequestSizeBytes())
	}
}

func TestOpenHistory(t *testing.T) {
	cfg, _ := LoadConfig("")
	store, err := cfg.OpenHistory()
	if err != nil {
		t.Fatalf("OpenHistory() error = %v", err)
	}
	if _, ok := store.(*history.MemoryStore); !ok {
		t.Errorf("expected memory store, got %T", store)
	}
	_ = store.Close()

	cfg.History.SQLitePath = filepath.Join(t.TempDir(), "history.db")
	store, err = cfg.OpenHistory()
	if err != nil {
		t.Fatalf("OpenHistory() error = %v", err)
	}
	if _, ok := store.(*history.SQLiteStore); !ok {
		t.Errorf("expected sqlite store, got %T", store)
	}
	_ = store.Close()
}

func TestParseSize(t *testing.T) {
	tests := map[string]int64{
		"":          constants.DefaultMaxRequestSizeBytes,
		"1024":      1024,
		"512b":      512,
		"256K":      256 * 1024,
		"1m":        1024 * 1024,
		"3MB":       3 * 1024 * 1024,
		"1g":        1024 * 1024 * 1024,
		"2GB":       2 * 1024 * 1024 * 1024,
		"  4096   ": 4096,
	}

	for input, expected := range tests {
		got, err := ParseSize(input)
		if err != nil {
			t.Fatalf("parseSize(%q) returned error: %v", input, err)
		}
		if got != expected {
			t.Fatalf("parseSize(%q) = %d, expected %d", input, got, expected)
		}
	}

	if _, err := ParseSize("1TB"); err == nil {
		t.Fatal("expected error for unsupported unit")
	}
	if _, err := ParseSize("9000000000G"); err == nil {
		t.Fatal("expected error for overflowing size")
	}
	if _, err := ParseSize("abc"); err == nil {
		t.Fatal("expected error for invalid number")
	}
}
