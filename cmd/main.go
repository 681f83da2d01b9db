package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pranch555/F1-Prediction/internal/app"
	"github.com/pranch555/F1-Prediction/internal/config"
	"github.com/pranch555/F1-Prediction/pkg/logger"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// cli carries the configuration loaded once in the persistent pre-run.
type cli struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "f1pred",
		Short:         "Predict Formula 1 finishing order",
		Long:          "f1pred builds race features, cross-validates a ranking model by race and writes per-race predicted leaderboards.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "Path to a YAML config file (overrides "+config.EnvConfigFile+")")
	root.AddCommand(c.trainCmd(), c.predictCmd())
	return root
}

// setup loads the configuration (defaults -> optional file -> env) and
// initializes logging from it.
func (c *cli) setup(ctx context.Context) error {
	cfg, err := config.Load(ctx, c.configPath)
	if err != nil {
		// Logger isn't available yet.
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		return err
	}
	if err := logger.Init(logger.WithJSON(cfg.LogFormat == "json")); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	c.cfg = cfg
	return nil
}

func (c *cli) trainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Cross-validate, fit and evaluate the configured model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logger.Get()
			res, err := app.New(app.WithLogger(log)).Train(ctx, c.cfg)
			if err != nil {
				log.Error(ctx, "training failed", logger.Error(err))
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.RunDir)
			return nil
		},
	}
}

func (c *cli) predictCmd() *cobra.Command {
	var modelDir string
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score the configured data with a trained run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logger.Get()
			res, err := app.New(app.WithLogger(log)).Predict(ctx, c.cfg, modelDir)
			if err != nil {
				log.Error(ctx, "prediction failed", logger.Error(err))
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.RunDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&modelDir, "model-dir", "", "Run directory written by train")
	_ = cmd.MarkFlagRequired("model-dir")
	return cmd
}
