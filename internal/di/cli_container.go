package di

import (
	"github.com/spf13/pflag"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/newsletter-funnels/internal/config"
	"github.com/mikey/newsletter-funnels/internal/logging"
)

// CLIFlags contains the global command line flags of the funnel builder
type CLIFlags struct {
	ConfigFile string
	Verbose    bool
	JSONLog    bool

	// Flags holds the parsed flag set; FlagKeys maps configuration keys onto its flags
	Flags    *pflag.FlagSet
	FlagKeys map[string]string
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration; explicit flags win over file and environment
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		cfg, err := config.Load(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		if used := cfg.GetViper().ConfigFileUsed(); used != "" {
			logger.Debug("Loaded configuration from file", zap.String("file", used))
		}

		if flags.Flags != nil {
			if err := cfg.BindFlags(flags.Flags, flags.FlagKeys); err != nil {
				return nil, err
			}
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := provideStore(container); err != nil {
		return nil, err
	}

	return container, nil
}
