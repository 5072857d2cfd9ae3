package main

import (
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/logger"
)

const app = "screener"

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           app,
		Short:         "screener ranks resumes against a job description with TF-IDF similarity and skill coverage",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Logging.Level = opts.logLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.Logging.Format = opts.logFormat
			}
			logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
			opts.cfg = cfg
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file (defaults apply when empty)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")

	cmd.AddCommand(
		newScreenCmd(opts),
		newConsumeCmd(opts),
		newAnalyticsCmd(opts),
		newCacheCmd(opts),
		newVersionCmd(),
	)
	return cmd
}
