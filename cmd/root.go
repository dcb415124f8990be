/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/viajesoeste/apiserver/config"
	"github.com/viajesoeste/apiserver/internal/server"
)

var logLevel string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "viajes",
	Short: "Agencia Viajes Oeste backend",
	Long: `Backend of the Agencia Viajes Oeste travel request system.

It serves the authentication and travel request HTTP API, runs the
Postgres schema migrations and can tail travel request events.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"override the log level (debug, info, warn, error)")
}

// newLogger builds the process logger for cfg, honouring --log-level.
func newLogger(cfg config.Config) (*logrus.Logger, error) {
	logger := server.NewLogger(cfg)
	if logLevel == "" {
		return logger, nil
	}
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	logger.SetLevel(level)
	return logger, nil
}
