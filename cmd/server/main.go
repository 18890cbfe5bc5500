// Command rpkit runs the role-play game server and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/crystal-mush/rpkit/pkg/server"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rpkit",
	Short: "rpkit - a role-play game server",
	Long: `rpkit serves a text role-play game over telnet: finger profiles,
presence, weather and language-aware speech.

Configuration is read from --config (YAML) and RPKIT_* environment
variables, in that order.`,
	Version: server.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", os.Getenv("RPKIT_CONFIG"), "path to the YAML game config (env: RPKIT_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, statdefsCmd, weatherCmd, archiveCmd)
}

// loadConf reads the game config and applies command-line overrides.
func loadConf(cmd *cobra.Command) (*server.GameConf, error) {
	conf, err := server.LoadGameConf(cfgFile)
	if err != nil {
		return nil, err
	}
	if f := cmd.Flags().Lookup("port"); f != nil && f.Changed {
		conf.Port, _ = cmd.Flags().GetInt("port")
	}
	return conf, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
