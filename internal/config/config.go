// Package config defines the calculation file loaded by the cabida CLI and
// the functions for loading and checking it.
package config

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/iwvelando/cabida/internal/cabida"
	"github.com/iwvelando/cabida/internal/logging"
	"github.com/iwvelando/cabida/internal/zoning"
	"github.com/iwvelando/cabida/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds everything needed to run one calculation.
type Configuration struct {
	Logging     logging.Config           `yaml:"logging,omitempty"`
	Output      OutputConfig             `yaml:"output,omitempty"`
	Regulation  cabida.Regulation        `yaml:"regulation,omitempty"`
	Zones       map[string]zoning.Rule   `yaml:"zones,omitempty"`
	Certificate cabida.CertificateData   `yaml:"certificate"`
	Parameters  cabida.RequestParameters `yaml:"parameters"`
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CABIDA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("parameters.minDwellingAreaM2", constants.DefaultLegalMinimumDwellingAreaM2)
	v.SetDefault("parameters.requestedFloors", constants.MinimumRequestedFloors)
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	configuration.Regulation = configuration.Regulation.WithDefaults()
	return &configuration, nil
}

// ZoneTable builds the zone table with the configured overrides.
func (c *Configuration) ZoneTable() (*zoning.Table, error) {
	return zoning.NewTable(c.Zones)
}

// Request returns the certificate and parameters to calculate.
func (c *Configuration) Request() (cabida.CertificateData, cabida.RequestParameters) {
	return c.Certificate, c.Parameters
}

// ValidateConfiguration checks the calculation file and returns warnings for
// anything that will change or block the outcome.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	defaults := cabida.DefaultRegulation()
	if c.Regulation.AssumedFloorHeightM != defaults.AssumedFloorHeightM {
		warnings = append(warnings, fmt.Sprintf("assumed floor height %.2f m differs from the default %.2f m",
			c.Regulation.AssumedFloorHeightM, defaults.AssumedFloorHeightM))
	}
	if c.Regulation.LegalMinimumDwellingAreaM2 != defaults.LegalMinimumDwellingAreaM2 {
		warnings = append(warnings, fmt.Sprintf("legal minimum dwelling area %.1f m² differs from the default %.1f m²",
			c.Regulation.LegalMinimumDwellingAreaM2, defaults.LegalMinimumDwellingAreaM2))
	}

	keys := make([]string, 0, len(c.Zones))
	for key := range c.Zones {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, err := zoning.ParseZoneType(key); err != nil {
			warnings = append(warnings, fmt.Sprintf("zone override %q does not name a known zone", key))
		}
	}

	if c.Certificate.TotalSurfaceM2 == nil && c.Parameters.SurfaceOverride == nil {
		warnings = append(warnings, "neither certificate.totalSurfaceM2 nor parameters.surfaceOverride is set")
	}
	if c.Certificate.ParcelID == "" {
		warnings = append(warnings, "certificate.parcelId is empty")
	}
	if _, err := zoning.ParseZoneType(string(c.Parameters.ZoneType)); err != nil {
		warnings = append(warnings, fmt.Sprintf("parameters.zoneType: %v", err))
	}

	return warnings
}
