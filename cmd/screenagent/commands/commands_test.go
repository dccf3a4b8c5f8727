package commands

import (
	"errors"
	"testing"

	"github.com/bryanchriswhite/screenagent/internal/config"
	"github.com/spf13/viper"
)

func TestAgentConfigFromViper(t *testing.T) {
	t.Cleanup(func() { viper.Set("config", "") })

	viper.Set("config", `{"interval": 5, "non_blank_threshold": 10}`)
	cfg, err := agentConfig()
	if err != nil {
		t.Fatalf("agent config: %v", err)
	}
	if cfg.Interval != 5 || cfg.NonBlankThreshold != 10 || cfg.SameScreenRatio != config.DefaultSameScreenRatio {
		t.Fatalf("unexpected config %+v", cfg)
	}

	viper.Set("config", "")
	if cfg, err := agentConfig(); err != nil || cfg != config.Default() {
		t.Fatalf("expected defaults without flag, got %+v, %v", cfg, err)
	}
}

func TestAgentConfigRejectsMalformedField(t *testing.T) {
	t.Cleanup(func() { viper.Set("config", "") })

	viper.Set("config", `{"same_screen_ratio": "high"}`)
	if _, err := agentConfig(); !errors.Is(err, config.ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{{"config", "show"}, {"displays"}} {
		cmd, _, err := rootCmd.Find(path)
		if err != nil || cmd == rootCmd {
			t.Fatalf("expected subcommand %v, got %v (%v)", path, cmd.Name(), err)
		}
	}
	if rootCmd.PersistentFlags().ShorthandLookup("c") == nil {
		t.Fatalf("expected -c shorthand for --config")
	}
}
