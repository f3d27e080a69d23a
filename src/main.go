package main

import (
	"context"
	"fmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"os"
	"os/signal"
	"syscall"
)

type app struct {
	log   *zap.SugaredLogger
	level zap.AtomicLevel
	cfg   *config

	configPath string
	logLevel   string
}

func createLogger() (*zap.SugaredLogger, zap.AtomicLevel) {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	unsugared, err := zc.Build()
	if err != nil {
		panic(err)
	}
	return unsugared.Sugar(), zc.Level
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "asset-unpack",
		Short:         "Materialize a packaged asset tree onto a writable directory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(a.log, a.configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.LogLevel = a.logLevel
			}
			lvl, err := zapcore.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			a.level.SetLevel(lvl)
			a.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "config.yaml", "configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(newUnpackCmd(a), newTreeCmd(a), newVerifyCmd(a))
	return root
}

func main() {
	log, level := createLogger()
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{log: log, level: level}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
