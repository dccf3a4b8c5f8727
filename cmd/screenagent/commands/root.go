package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bryanchriswhite/screenagent/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "SCREENAGENT"

var rootCmd = &cobra.Command{
	Use:   "screenagent",
	Short: "screenagent - report changes of the primary display",
	Long: `screenagent periodically captures the primary display and writes one event
line per capture to stdout:

  .OUT screen {"t":...,"image":"<base64 png>","image_id":"..."}   new or changed screen
  .OUT screen {"t":...,"image_id":"..."}                          same screen as before

Blank (almost black) captures are skipped. Commands are read from stdin, one per line:

  .CONFIG {"interval": 5}   update configuration from the next tick on
  .QUIT                     exit immediately`,
	Example: `  # Run with defaults (capture every 60 seconds)
  screenagent

  # Run with an initial configuration
  screenagent --config '{"interval": 10, "same_screen_ratio": 0.02}'

  # Expose status and metrics on localhost
  screenagent --status-addr 127.0.0.1:9310 --log-level debug`,
	SilenceUsage: true,
	RunE:         runAgent,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "JSON config string")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "human readable logs on stderr")
	rootCmd.PersistentFlags().String("backend", "auto", "capture backend (auto, x11, screenshot)")
	rootCmd.Flags().String("status-addr", "", "address for the status and metrics server (disabled when empty)")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))
	viper.BindPFlag("backend", rootCmd.PersistentFlags().Lookup("backend"))
	viper.BindPFlag("status_addr", rootCmd.Flags().Lookup("status-addr"))
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

// agentConfig returns the initial AgentConfig from --config or SCREENAGENT_CONFIG
func agentConfig() (config.AgentConfig, error) {
	cfg, err := config.Parse(config.Default(), viper.GetString("config"))
	if err != nil {
		return cfg, fmt.Errorf("invalid --config: %w", err)
	}
	return cfg, nil
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
