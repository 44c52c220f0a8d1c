// Package constants provides shared constants for the cabida application.
package constants

// Regulation defaults. Both values are configurable through the regulation
// section of the calculation and server config files.
const (
	// DefaultAssumedFloorHeightM is the per-floor height used to turn a height
	// limit into a floor count.
	DefaultAssumedFloorHeightM = 3.0

	// DefaultLegalMinimumDwellingAreaM2 is the smallest dwelling the regulation
	// accepts.
	DefaultLegalMinimumDwellingAreaM2 = 40.0

	// MinimumRequestDwellingAreaM2 is the lowest dwelling area a request may
	// carry at all. Values between this and the legal minimum are accepted as
	// input and rejected by compliance.
	MinimumRequestDwellingAreaM2 = 20.0

	// MinimumRequestedFloors is the lowest floor count a request may carry.
	MinimumRequestedFloors = 1
)

// Advisory thresholds, expressed as utilization percentages.
const (
	// LowUtilizationPercent triggers the "room to grow" recommendation.
	LowUtilizationPercent = 70.0

	// PoorUtilizationPercent triggers a review warning.
	PoorUtilizationPercent = 50.0
)

// Review scoring.
const (
	// MaxReviewScore is the score of a review with no findings.
	MaxReviewScore = 100

	// ReviewWarningPenalty is subtracted per warning or info finding.
	ReviewWarningPenalty = 10

	// ReviewPoorUtilizationPenalty applies below PoorUtilizationPercent.
	ReviewPoorUtilizationPenalty = 20

	// ReviewLowUtilizationPenalty applies below LowUtilizationPercent.
	ReviewLowUtilizationPenalty = 10
)

// Numeric constants
const (
	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// FloorEpsilon absorbs float noise before truncating a ratio, so that
	// 2.9999999999 floors become 3.
	FloorEpsilon = 1e-9
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default calculation file name
	DefaultConfigFile = "cabida.yaml"

	// ExampleConfigFile is the example calculation file name
	ExampleConfigFile = "cabida.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxRequestSizeBytes is the default maximum JSON request body (256 KB)
	DefaultMaxRequestSizeBytes int64 = 256 * 1024

	// DefaultCacheSize is the number of results kept by the in-memory history
	DefaultCacheSize = 512

	// DefaultHistoryLimit is the number of records returned by a history listing
	DefaultHistoryLimit = 20

	// MaxHistoryLimit caps the history listing size
	MaxHistoryLimit = 200
)
