package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/pkg/config"
	"github.com/noah-isme/timetable-api/pkg/logger"
)

type rootOptions struct {
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "timetablectl",
		Short:         "Generate department timetables from CSV files",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	cmd.AddCommand(newGenerateCmd(opts))
	return cmd
}

func (o *rootOptions) logger() *zap.Logger {
	log, err := logger.New(&config.Config{Env: config.EnvDevelopment, Log: config.LogConfig{Level: o.logLevel, Format: "console"}})
	if err != nil {
		return zap.NewNop()
	}
	return log
}
