package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/iwvelando/cabida/internal/cabida"
	"github.com/iwvelando/cabida/internal/config"
	"github.com/iwvelando/cabida/internal/logging"
	"github.com/iwvelando/cabida/internal/review"
	"github.com/iwvelando/cabida/pkg/constants"
	"github.com/iwvelando/cabida/pkg/output"
	"github.com/iwvelando/cabida/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to calculation file, or - to read it from stdin")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	reviewFlag := flag.Bool("review", false, "print a scored compliance review instead of the calculation")
	flag.Parse()

	var conf *config.Configuration
	var err error
	if *configLocation == "-" {
		conf, err = config.LoadConfigurationFromReader(os.Stdin)
	} else {
		conf, err = config.LoadConfiguration(*configLocation)
	}
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI override takes precedence over config
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	zones, err := conf.ZoneTable()
	if err != nil {
		logger.Fatal("failed to build zone table",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	calc, err := cabida.NewCalculator(logger, zones, conf.Regulation)
	if err != nil {
		logger.Fatal("failed to create calculator",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	cert, params := conf.Request()

	if *reviewFlag {
		report, err := review.New(logger, calc).Review(cert, params)
		if err != nil {
			logger.Fatal("failed to review request",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			logger.Fatal("failed to write review",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
	}

	result, err := calc.Calculate(cert, params)
	if err != nil {
		logger.Fatal("failed to compute cabida",
			zap.String("op", "main"),
			zap.String("parcel", cert.ParcelID),
			zap.Error(err),
		)
	}

	if err := output.Write(os.Stdout, outputFormat, cert, result); err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
