package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/postgis/imagectl/src/config"
	"github.com/postgis/imagectl/src/logging"
	"github.com/postgis/imagectl/src/output"
)

var (
	cfgFile   string
	envFile   string
	verbose   bool
	logLevel  string
	logJSON   bool
	jobsFlag  int
	rootFlag  string
	cacheFlag string

	cfg    *config.Config
	params config.Params
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "imagectl",
	Short: "Build, test and publish the PostGIS image matrix",
	Long: `imagectl builds every PostgreSQL/PostGIS version directory in the repository,
tests the resulting images with the official-images harness and pushes them.

Parameters may be passed make-style as KEY=VALUE arguments:

  imagectl build VERSION=17-3.5 VARIANT=alpine`,
	PersistentPreRunE: setup,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .imagectl.yml or .imagectl.toml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with KEY=VALUE parameters")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit diagnostic logs as JSON")
	rootCmd.PersistentFlags().IntVarP(&jobsFlag, "jobs", "j", 0, "operations to run at once (default from JOBS or config)")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "directory holding the version build definitions")
	rootCmd.PersistentFlags().StringVar(&cacheFlag, "cache-dir", "", "external buildx cache root (default $HOME/$EXTERNAL_CACHE_DIR_NAME)")
}

// setup loads configuration layers in precedence order: defaults, config
// file, .env, process environment, KEY=VALUE arguments, flags.
func setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dotenv, err := config.DotEnv(envFile)
	if err != nil {
		return err
	}
	argParams, _ := config.ParseArgs(args)
	params = config.Merge(dotenv, config.Environ(), argParams)
	if err := cfg.ApplyParams(params); err != nil {
		return err
	}

	if cmd.Flags().Changed("jobs") {
		cfg.Build.Jobs = jobsFlag
	}
	if rootFlag != "" {
		cfg.Build.Root = rootFlag
	}
	if cacheFlag != "" {
		cfg.Cache.Dir = cacheFlag
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	logger, err = logging.New(os.Stderr, logging.Options{
		Level:   logLevel,
		Verbose: verbose,
		JSON:    logJSON,
		Color:   output.UseColor(),
	})
	return err
}

// paramArgs accepts KEY=VALUE parameters plus at most n other arguments.
func paramArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		_, rest := config.ParseArgs(args)
		if len(rest) > n {
			return fmt.Errorf("unexpected arguments: %v", rest[n:])
		}
		return nil
	}
}

// positional returns the arguments that are not KEY=VALUE parameters.
func positional(args []string) []string {
	_, rest := config.ParseArgs(args)
	return rest
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
