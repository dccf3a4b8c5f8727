package commands

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bryanchriswhite/screenagent/internal/agent"
	"github.com/bryanchriswhite/screenagent/internal/api"
	"github.com/bryanchriswhite/screenagent/internal/capture"
	"github.com/bryanchriswhite/screenagent/internal/control"
	"github.com/bryanchriswhite/screenagent/internal/logger"
	"github.com/bryanchriswhite/screenagent/internal/metrics"
	"github.com/bryanchriswhite/screenagent/internal/output"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func runAgent(cmd *cobra.Command, args []string) error {
	runID := uuid.NewString()
	logger.Init(viper.GetString("log_level"), viper.GetBool("log_pretty"), runID)
	log := logger.WithComponent("main")

	cfg, err := agentConfig()
	if err != nil {
		return err
	}

	router, err := capture.NewRouter(viper.GetString("backend"))
	if err != nil {
		return err
	}
	if err := router.Start(); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}
	defer router.Stop()
	logger.Get().Info().
		Str("backend", router.Name()).
		Msg("Capture backend ready")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	out := output.NewLineWriter(os.Stdout)
	a := agent.New(agent.Options{
		Config:  cfg,
		Source:  router,
		Output:  out,
		Input:   control.Lines(os.Stdin),
		Metrics: metrics.New(reg),
		RunID:   runID,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr := viper.GetString("status_addr"); addr != "" {
		server := api.NewServer(a, reg)
		go func() {
			if err := server.Serve(ctx, addr); err != nil {
				log.Error().Err(err).Str("addr", addr).Msg("Status server failed")
			}
		}()
	}

	err = a.Run(ctx)
	if errors.Is(err, control.ErrQuit) {
		return nil
	}
	return err
}
